package server

import (
	"testing"

	"github.com/npezzotti/go-interview/internal/testutil"
	"github.com/npezzotti/go-interview/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueMessage(&ServerMessage{})
		assert.True(t, res, "expected queueMessage to return true when channel is not full")

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg, "expected a message to be sent to the client")
		default:
			t.Error("expected a message to be sent to the client, but none was sent")
		}
	})
	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &ServerMessage{}
		res := c.queueMessage(&ServerMessage{})
		assert.False(t, res, "expected queueMessage to return false when channel is full")
	})
}

func Test_displayName(t *testing.T) {
	anon := &Client{}
	assert.Equal(t, "", anon.displayName(""))
	assert.Equal(t, "bob", anon.displayName("bob"))
	assert.Equal(t, "bob", anon.displayName(""), "expected last known name")
	assert.Equal(t, "robert", anon.displayName("robert"))

	verified := &Client{identity: &types.User{Id: "u1", Username: "alice"}}
	assert.Equal(t, "alice", verified.displayName("mallory"))

	unnamed := &Client{identity: &types.User{Id: "u2"}}
	assert.Equal(t, "carol", unnamed.displayName("carol"), "expected asserted name when identity has none")
}

func Test_stopClient(t *testing.T) {
	c := &Client{stop: make(chan struct{})}
	c.stopClient()
	c.stopClient()

	select {
	case <-c.stop:
	default:
		t.Error("expected stop channel closed")
	}
}
