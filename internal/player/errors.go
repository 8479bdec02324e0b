package player

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid loop config")
	ErrAPILoad       = errors.New("failed to load embed api")
	ErrPlayerInit    = errors.New("failed to initialize player")
	ErrPlayback      = errors.New("playback error")
	ErrNotReady      = errors.New("player is not ready")
)

// ErrorCode is the numeric error reported by the embed through onError.
type ErrorCode int

const (
	ErrorCodeInvalidParam  ErrorCode = 2
	ErrorCodeHTML5         ErrorCode = 5
	ErrorCodeNotFound      ErrorCode = 100
	ErrorCodeNotEmbeddable ErrorCode = 101
	ErrorCodeRestricted    ErrorCode = 150
)

func (c ErrorCode) Message() string {
	switch c {
	case ErrorCodeInvalidParam:
		return "the video id is invalid"
	case ErrorCodeHTML5:
		return "the video cannot be played in the html5 player"
	case ErrorCodeNotFound:
		return "the video was not found, it may have been removed or made private"
	case ErrorCodeNotEmbeddable, ErrorCodeRestricted:
		return "the owner of the video does not allow it to be embedded"
	default:
		return "an error occurred while loading the video, the id may be wrong or the video may have been removed or made private"
	}
}
