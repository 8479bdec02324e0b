package ytid

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var ErrNotRecognized = errors.New("video id not recognized")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsValid reports whether id is a canonical 11 character video id.
func IsValid(id string) bool {
	return idPattern.MatchString(id)
}

// Resolve maps a video id, watch url, short url or embed url to the video id.
func Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)

	if IsValid(input) {
		return input, nil
	}

	switch {
	case strings.Contains(input, "youtube.com/watch"):
		return fromWatchURL(input)
	case strings.Contains(input, "youtu.be/"):
		return fromPath(input, "youtu.be/")
	case strings.Contains(input, "youtube.com/embed/"):
		return fromPath(input, "embed/")
	}

	return "", ErrNotRecognized
}

func fromWatchURL(input string) (string, error) {
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", ErrNotRecognized
	}

	return validated(u.Query().Get("v"))
}

func fromPath(input, marker string) (string, error) {
	_, rest, ok := strings.Cut(input, marker)
	if !ok {
		return "", ErrNotRecognized
	}

	if i := strings.IndexAny(rest, "?&"); i >= 0 {
		rest = rest[:i]
	}

	return validated(rest)
}

func validated(id string) (string, error) {
	if !IsValid(id) {
		return "", ErrNotRecognized
	}

	return id, nil
}
