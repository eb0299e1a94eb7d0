package aspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned when a ratio string does not match the W:H form.
var ErrInvalid = errors.New("invalid aspect ratio, expected W:H")

// Normalize validates a user supplied aspect ratio and returns it in
// canonical "W:H" form with surrounding whitespace removed, e.g. "3 : 4"
// becomes "3:4". The empty string is passed through unchanged: it is the
// sentinel for "use the project default" on pages.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return "", ErrInvalid
	}

	wn, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || wn <= 0 {
		return "", ErrInvalid
	}
	hn, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hn <= 0 {
		return "", ErrInvalid
	}

	return fmt.Sprintf("%d:%d", wn, hn), nil
}

// Resolve picks the effective ratio for a page: the page override when set,
// otherwise the project default.
func Resolve(pageRatio, projectDefault string) string {
	if pageRatio != "" {
		return pageRatio
	}
	return projectDefault
}
