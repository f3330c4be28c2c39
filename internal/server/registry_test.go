package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newMembers(n int) []*Client {
	members := make([]*Client, n)
	for i := range members {
		members[i] = &Client{id: fmt.Sprintf("c-%d", i)}
	}
	return members
}

func TestRegistryJoin(t *testing.T) {
	reg := NewRegistry(2)
	m := newMembers(3)

	res := reg.Join(KindVideo, "r", m[0])
	assert.Equal(t, JoinResult{Accepted: true, Created: true, Count: 1}, res)

	res = reg.Join(KindVideo, "r", m[1])
	assert.True(t, res.Accepted)
	assert.False(t, res.Created)
	assert.Equal(t, []*Client{m[0]}, res.Existing)

	res = reg.Join(KindVideo, "r", m[2])
	assert.False(t, res.Accepted, "expected capacity to be enforced")
	assert.Equal(t, 2, res.Count)

	res = reg.Join(KindVideo, "r", m[0])
	assert.True(t, res.Already)
	assert.Equal(t, []*Client{m[1]}, res.Existing, "expected other members only")
	assert.Equal(t, 2, reg.Count(KindVideo, "r"))
}

func TestRegistryUnboundedKinds(t *testing.T) {
	reg := NewRegistry(1)
	for _, c := range newMembers(5) {
		assert.True(t, reg.Join(KindDocument, "doc", c).Accepted)
		assert.True(t, reg.Join(KindChat, "chat", c).Accepted)
	}
	assert.Equal(t, 5, reg.Count(KindDocument, "doc"))
	assert.Equal(t, 5, reg.Count(KindChat, "chat"))
}

func TestRegistryKindsAreSeparate(t *testing.T) {
	reg := NewRegistry(4)
	m := newMembers(1)
	reg.Join(KindVideo, "same-id", m[0])

	assert.Equal(t, 1, reg.Count(KindVideo, "same-id"))
	assert.Equal(t, 0, reg.Count(KindDocument, "same-id"))
	assert.False(t, reg.Leave(KindDocument, "same-id", m[0]).Left)
}

func TestRegistryLeave(t *testing.T) {
	reg := NewRegistry(4)
	m := newMembers(3)
	for _, c := range m {
		reg.Join(KindVideo, "r", c)
	}

	res := reg.Leave(KindVideo, "r", m[1])
	assert.True(t, res.Left)
	assert.False(t, res.Removed)
	assert.Equal(t, []*Client{m[0], m[2]}, res.Remaining, "expected join order preserved")

	assert.Equal(t, LeaveResult{}, reg.Leave(KindVideo, "r", m[1]), "expected repeat leave to be a no-op")
	assert.Equal(t, LeaveResult{}, reg.Leave(KindVideo, "missing", m[0]))

	reg.Leave(KindVideo, "r", m[0])
	res = reg.Leave(KindVideo, "r", m[2])
	assert.True(t, res.Removed)
	assert.Empty(t, res.Remaining)
	assert.Equal(t, 0, reg.Len(), "expected empty room to be removed")
	assert.Empty(t, reg.memberships)
}

func TestRegistryLeaveAll(t *testing.T) {
	reg := NewRegistry(4)
	m := newMembers(2)
	reg.Join(KindVideo, "r", m[0])
	reg.Join(KindVideo, "r", m[1])
	reg.Join(KindDocument, "d", m[0])
	reg.Join(KindChat, "c", m[0])

	departures := reg.LeaveAll(m[0])
	assert.Len(t, departures, 3)
	for _, d := range departures {
		if d.Kind == KindVideo {
			assert.Equal(t, []*Client{m[1]}, d.Remaining)
		} else {
			assert.True(t, d.Removed)
		}
	}

	assert.Empty(t, reg.LeaveAll(m[0]))
	assert.Equal(t, 1, reg.Len())
	assert.Nil(t, reg.RoomsOf(m[0], KindVideo))
	assert.Equal(t, []string{"r"}, reg.RoomsOf(m[1], KindVideo))
}

func TestRegistryMembersIsACopy(t *testing.T) {
	reg := NewRegistry(4)
	m := newMembers(2)
	reg.Join(KindVideo, "r", m[0])

	members := reg.Members(KindVideo, "r")
	members[0] = m[1]
	assert.Equal(t, []*Client{m[0]}, reg.Members(KindVideo, "r"))
	assert.Nil(t, reg.Members(KindVideo, "missing"))
}
