package loop

import "time"

type Loop struct {
	ID           string     `json:"id"`
	VideoID      string     `json:"video_id"`
	StartTime    int        `json:"start_time"`
	EndTime      *int       `json:"end_time"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AuthorName   string     `json:"author_name"`
	ThumbnailURL string     `json:"thumbnail_url"`
	IsPublic     bool       `json:"is_public"`
	IsOwner      bool       `json:"is_owner"`
	PlayCount    int        `json:"play_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

type CreateLoopParams struct {
	UserID      string
	Video       string
	StartTime   int
	EndTime     *int
	Title       string
	Description string
	IsPublic    bool
}

type LoopParams struct {
	UserID string
	LoopID string
}
