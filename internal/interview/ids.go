package interview

import (
	"fmt"
	"strconv"
	"time"

	"github.com/teris-io/shortid"
)

// NewInterviewID returns "<base36 unix millis>-<shortid>".
func NewInterviewID(now time.Time) (string, error) {
	suffix, err := shortid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate id suffix: %w", err)
	}

	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix, nil
}
