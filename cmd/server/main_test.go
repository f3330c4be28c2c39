package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunFailsBeforeServing(t *testing.T) {
	tcases := []struct {
		name string
		args []string
		err  string
	}{
		{
			name: "invalid room capacity",
			args: []string{"--dsn=memory", "--room-capacity=0"},
			err:  "room capacity",
		},
		{
			name: "unknown flag",
			args: []string{"--no-such-flag"},
			err:  "config",
		},
		{
			name: "unsupported dsn",
			args: []string{"--dsn=redis://localhost:6379"},
			err:  "unsupported database DSN",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			err := run(tc.args)
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.err)
			}
		})
	}
}
