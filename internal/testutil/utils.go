package testutil

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("test", t.Name()).
		Logger()
}
