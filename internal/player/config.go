package player

import (
	"fmt"

	"github.com/sharetube/looper/pkg/ytid"
)

// LoopConfig describes the segment a session loops. EndTime is nil when the segment runs
// to the end of the video.
type LoopConfig struct {
	VideoID   string `json:"video_id"`
	StartTime int    `json:"start_time"`
	EndTime   *int   `json:"end_time,omitempty"`
	Autoplay  bool   `json:"autoplay"`
}

func NewLoopConfig(videoID string, startTime int, endTime *int, autoplay bool) (LoopConfig, error) {
	cfg := LoopConfig{
		VideoID:   videoID,
		StartTime: startTime,
		Autoplay:  autoplay,
	}
	if endTime != nil {
		end := *endTime
		cfg.EndTime = &end
	}

	if err := cfg.Validate(); err != nil {
		return LoopConfig{}, err
	}

	return cfg, nil
}

func (c LoopConfig) Validate() error {
	if !ytid.IsValid(c.VideoID) {
		return fmt.Errorf("%w: video id %q is not valid", ErrInvalidConfig, c.VideoID)
	}

	if c.StartTime < 0 {
		return fmt.Errorf("%w: start time must not be negative", ErrInvalidConfig)
	}

	if c.EndTime != nil {
		if *c.EndTime < 0 {
			return fmt.Errorf("%w: end time must not be negative", ErrInvalidConfig)
		}

		if c.StartTime >= *c.EndTime {
			return fmt.Errorf("%w: start time must be before end time", ErrInvalidConfig)
		}
	}

	return nil
}

func (c LoopConfig) Equal(other LoopConfig) bool {
	if c.VideoID != other.VideoID || c.StartTime != other.StartTime || c.Autoplay != other.Autoplay {
		return false
	}

	if c.EndTime == nil || other.EndTime == nil {
		return c.EndTime == nil && other.EndTime == nil
	}

	return *c.EndTime == *other.EndTime
}

func (c LoopConfig) clone() LoopConfig {
	if c.EndTime != nil {
		end := *c.EndTime
		c.EndTime = &end
	}

	return c
}
