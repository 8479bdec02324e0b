package loop

// Loop is a saved segment. Timestamps are unix milliseconds; DeletedAt is set while the
// loop is in the trash.
type Loop struct {
	ID           string
	UserID       string
	VideoID      string
	StartTime    int
	EndTime      *int
	Title        string
	Description  string
	AuthorName   string
	ThumbnailURL string
	IsPublic     bool
	PlayCount    int
	CreatedAt    int64
	UpdatedAt    int64
	DeletedAt    *int64
}

type SetLoopParams struct {
	LoopID       string `redis:"id"`
	UserID       string `redis:"user_id"`
	VideoID      string `redis:"video_id"`
	StartTime    int    `redis:"start_time"`
	EndTime      *int   `redis:"end_time"`
	Title        string `redis:"title"`
	Description  string `redis:"description"`
	AuthorName   string `redis:"author_name"`
	ThumbnailURL string `redis:"thumbnail_url"`
	IsPublic     bool   `redis:"is_public"`
	CreatedAt    int64  `redis:"created_at"`
	UpdatedAt    int64  `redis:"updated_at"`
}

type SoftDeleteLoopParams struct {
	LoopID    string
	UserID    string
	DeletedAt int64
}

type RestoreLoopParams struct {
	LoopID    string
	UserID    string
	UpdatedAt int64
}

type RemoveLoopParams struct {
	LoopID string
	UserID string
}
