package server

type roomKind string

const (
	KindVideo    roomKind = "video"
	KindDocument roomKind = "document"
	KindChat     roomKind = "chat"
)

type roomKey struct {
	kind roomKind
	id   string
}

type room struct {
	key     roomKey
	members []*Client
}

func (r *room) indexOf(c *Client) int {
	for i, m := range r.members {
		if m == c {
			return i
		}
	}
	return -1
}

type JoinResult struct {
	Accepted bool
	// Already is set when the connection was a member before the call.
	Already bool
	// Created is set when the join brought the room into existence.
	Created bool
	// Count is the membership after the call.
	Count int
	// Existing holds the other members in join order.
	Existing []*Client
}

type LeaveResult struct {
	Left bool
	// Removed is set when the leave emptied the room.
	Removed   bool
	Remaining []*Client
}

type Departure struct {
	Kind roomKind
	Id   string
	LeaveResult
}

// Registry tracks room membership. It is not safe for concurrent use; the
// server event loop is its only caller.
type Registry struct {
	capacity    int
	rooms       map[roomKey]*room
	memberships map[*Client]map[roomKey]struct{}
}

func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity:    capacity,
		rooms:       make(map[roomKey]*room),
		memberships: make(map[*Client]map[roomKey]struct{}),
	}
}

// Join admits c to the room. Only video rooms are capacity bound.
func (reg *Registry) Join(kind roomKind, id string, c *Client) JoinResult {
	key := roomKey{kind: kind, id: id}
	r, ok := reg.rooms[key]
	if !ok {
		r = &room{key: key}
	}

	if i := r.indexOf(c); i >= 0 {
		existing := make([]*Client, 0, len(r.members)-1)
		existing = append(existing, r.members[:i]...)
		existing = append(existing, r.members[i+1:]...)
		return JoinResult{Accepted: true, Already: true, Count: len(r.members), Existing: existing}
	}

	if kind == KindVideo && len(r.members) >= reg.capacity {
		return JoinResult{Accepted: false, Count: len(r.members)}
	}

	existing := append([]*Client(nil), r.members...)
	r.members = append(r.members, c)
	reg.rooms[key] = r

	if reg.memberships[c] == nil {
		reg.memberships[c] = make(map[roomKey]struct{})
	}
	reg.memberships[c][key] = struct{}{}

	return JoinResult{Accepted: true, Created: !ok, Count: len(r.members), Existing: existing}
}

// Leave removes c from the room. Leaving a room c is not in is a no-op.
func (reg *Registry) Leave(kind roomKind, id string, c *Client) LeaveResult {
	key := roomKey{kind: kind, id: id}
	r, ok := reg.rooms[key]
	if !ok {
		return LeaveResult{}
	}

	i := r.indexOf(c)
	if i < 0 {
		return LeaveResult{}
	}

	r.members = append(r.members[:i], r.members[i+1:]...)
	if rooms := reg.memberships[c]; rooms != nil {
		delete(rooms, key)
		if len(rooms) == 0 {
			delete(reg.memberships, c)
		}
	}

	res := LeaveResult{Left: true, Remaining: append([]*Client(nil), r.members...)}
	if len(r.members) == 0 {
		delete(reg.rooms, key)
		res.Removed = true
	}

	return res
}

// LeaveAll removes c from every room it belongs to.
func (reg *Registry) LeaveAll(c *Client) []Departure {
	keys := make([]roomKey, 0, len(reg.memberships[c]))
	for key := range reg.memberships[c] {
		keys = append(keys, key)
	}

	departures := make([]Departure, 0, len(keys))
	for _, key := range keys {
		res := reg.Leave(key.kind, key.id, c)
		if res.Left {
			departures = append(departures, Departure{Kind: key.kind, Id: key.id, LeaveResult: res})
		}
	}

	return departures
}

// Members returns the room's members in join order.
func (reg *Registry) Members(kind roomKind, id string) []*Client {
	r, ok := reg.rooms[roomKey{kind: kind, id: id}]
	if !ok {
		return nil
	}
	return append([]*Client(nil), r.members...)
}

func (reg *Registry) Count(kind roomKind, id string) int {
	if r, ok := reg.rooms[roomKey{kind: kind, id: id}]; ok {
		return len(r.members)
	}
	return 0
}

// RoomsOf lists the rooms of the given kind that c belongs to.
func (reg *Registry) RoomsOf(c *Client, kind roomKind) []string {
	var ids []string
	for key := range reg.memberships[c] {
		if key.kind == kind {
			ids = append(ids, key.id)
		}
	}
	return ids
}

func (reg *Registry) Len() int {
	return len(reg.rooms)
}
