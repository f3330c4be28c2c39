package server

import (
	"encoding/json"
	"fmt"

	"github.com/npezzotti/go-interview/internal/stats"
	"github.com/npezzotti/go-interview/internal/types"
)

func (s *SignalServer) dispatch(msg *ClientMessage) {
	c := msg.client
	if c == nil {
		return
	}
	if _, ok := s.clients[c.id]; !ok {
		c.log.Debug().Str("event", msg.Event).Msg("dropping event from unregistered connection")
		return
	}

	var err error
	switch msg.Event {
	case EventVideoCall:
		err = s.handleVideoCall(c, msg.Data)
	case EventLeaveRoom:
		err = s.handleLeaveRoom(c, msg.Data)
	case EventOffer:
		err = s.handleOffer(c, msg.Data)
	case EventAnswer:
		err = s.handleAnswer(c, msg.Data)
	case EventICECandidate:
		err = s.handleICECandidate(c, msg.Data)
	case EventToggleEditor, EventToggleQuestions:
		err = s.handleToggle(c, msg.Event, msg.Data)
	case EventGetDocument:
		err = s.handleGetDocument(c, msg.Data)
	case EventSendChanges:
		s.relayToCurrent(c, KindDocument, c.documentId, EventRecvChanges, msg.Data)
	case EventChatRoom:
		err = s.handleChatRoom(c, msg.Data)
	case EventNewChatMessage:
		s.relayToCurrent(c, KindChat, c.chatId, EventGetMessage, msg.Data)
	default:
		c.log.Debug().Str("event", msg.Event).Msg("ignoring unknown event")
	}

	if err != nil {
		c.log.Debug().Err(err).Str("event", msg.Event).Msg("dropping event")
	}
}

func (s *SignalServer) handleVideoCall(c *Client, raw json.RawMessage) error {
	var p VideoCall
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	if p.RoomId == "" {
		return fmt.Errorf("%w: roomId", errMissingField)
	}

	name := c.displayName(p.UserName)

	res := s.registry.Join(KindVideo, p.RoomId, c)
	if !res.Accepted {
		c.log.Info().Str("room_id", p.RoomId).Int("user_count", res.Count).Msg("video room full")
		c.queueMessage(&ServerMessage{
			Event: EventRoomFull,
			Data: RoomFull{
				RoomId:    p.RoomId,
				UserCount: res.Count,
				Message:   fmt.Sprintf("Room is full (max %d participants)", s.registry.capacity),
			},
		})
		return nil
	}

	// a connection sits in at most one video room, and a rejected switch
	// keeps it where it was
	for _, current := range s.registry.RoomsOf(c, KindVideo) {
		if current != p.RoomId {
			s.leave(c, KindVideo, current)
		}
	}

	if !res.Already {
		s.afterJoin(c, KindVideo, p.RoomId, res)
		s.recorder.RecordAsync(p.RoomId, "join", name, types.Details{
			"connectionId": c.id,
			"userCount":    res.Count,
		})
	}

	existing := make([]string, 0, len(res.Existing))
	for _, m := range res.Existing {
		existing = append(existing, m.id)
	}

	c.queueMessage(&ServerMessage{
		Event: EventRoomInfo,
		Data: RoomInfo{
			UserCount:       res.Count,
			RoomId:          p.RoomId,
			UserName:        name,
			ExistingMembers: existing,
		},
	})

	return nil
}

func (s *SignalServer) handleLeaveRoom(c *Client, raw json.RawMessage) error {
	var p LeaveRoom
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	if p.RoomId == "" {
		return fmt.Errorf("%w: roomId", errMissingField)
	}

	s.leave(c, KindVideo, p.RoomId)
	return nil
}

func (s *SignalServer) handleOffer(c *Client, raw json.RawMessage) error {
	var p Offer
	if err := decodePayload(raw, &p); err != nil {
		return err
	}

	out := &ServerMessage{
		Event: EventOffer,
		Data: RelayedOffer{
			RoomId:   p.RoomId,
			Signal:   p.Signal,
			From:     c.id,
			UserName: c.displayName(p.UserName),
		},
	}

	switch {
	case p.To != "":
		return s.unicast(p.To, out)
	case p.RoomId != "":
		s.broadcast(s.registry.Members(KindVideo, p.RoomId), c, out)
		return nil
	default:
		return fmt.Errorf("%w: to or roomId", errMissingField)
	}
}

func (s *SignalServer) handleAnswer(c *Client, raw json.RawMessage) error {
	var p Answer
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	if p.To == "" {
		return fmt.Errorf("%w: to", errMissingField)
	}

	return s.unicast(p.To, &ServerMessage{
		Event: EventAnswer,
		Data:  RelayedAnswer{Signal: p.Signal, From: c.id, UserName: c.displayName("")},
	})
}

func (s *SignalServer) handleICECandidate(c *Client, raw json.RawMessage) error {
	var p ICECandidate
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	if p.To == "" {
		return fmt.Errorf("%w: to", errMissingField)
	}

	return s.unicast(p.To, &ServerMessage{
		Event: EventICECandidate,
		Data:  RelayedICECandidate{Candidate: p.Candidate, From: c.id, UserName: c.displayName("")},
	})
}

func (s *SignalServer) handleToggle(c *Client, event string, raw json.RawMessage) error {
	var p Toggle
	if err := decodePayload(raw, &p); err != nil {
		return err
	}
	if p.RoomId == "" {
		return fmt.Errorf("%w: roomId", errMissingField)
	}

	s.broadcast(s.registry.Members(KindVideo, p.RoomId), c, &ServerMessage{
		Event: event,
		Data:  RelayedToggle{RoomId: p.RoomId, Enabled: p.Enabled, From: c.id},
	})
	return nil
}

func (s *SignalServer) handleGetDocument(c *Client, raw json.RawMessage) error {
	id, err := decodeRoomRef(raw, "documentID")
	if err != nil {
		return err
	}

	s.switchRoom(c, KindDocument, &c.documentId, id)
	c.queueMessage(&ServerMessage{Event: EventLoadDocument, Data: ""})
	return nil
}

func (s *SignalServer) handleChatRoom(c *Client, raw json.RawMessage) error {
	id, err := decodeRoomRef(raw, "chatID")
	if err != nil {
		return err
	}

	s.switchRoom(c, KindChat, &c.chatId, id)
	return nil
}

// switchRoom moves c into room id, leaving the room *current names first.
func (s *SignalServer) switchRoom(c *Client, kind roomKind, current *string, id string) {
	if *current != "" && *current != id {
		s.leave(c, kind, *current)
	}
	*current = id

	res := s.registry.Join(kind, id, c)
	if res.Accepted && !res.Already {
		s.afterJoin(c, kind, id, res)
	}
}

// relayToCurrent forwards payloads verbatim to the other members of the
// connection's current document or chat room.
func (s *SignalServer) relayToCurrent(c *Client, kind roomKind, id, event string, data json.RawMessage) {
	if id == "" {
		c.log.Debug().Str("kind", string(kind)).Msg("no current room, dropping payload")
		return
	}

	s.broadcast(s.registry.Members(kind, id), c, &ServerMessage{Event: event, Data: data})
}

func (s *SignalServer) leave(c *Client, kind roomKind, id string) {
	res := s.registry.Leave(kind, id, c)
	if !res.Left {
		return
	}

	switch kind {
	case KindDocument:
		if c.documentId == id {
			c.documentId = ""
		}
	case KindChat:
		if c.chatId == id {
			c.chatId = ""
		}
	}

	s.afterLeave(c, kind, id, res)
}

func (s *SignalServer) afterJoin(c *Client, kind roomKind, id string, res JoinResult) {
	if res.Created {
		s.stats.Incr(stats.ActiveRooms)
	}

	c.log.Info().Str("kind", string(kind)).Str("room_id", id).Int("user_count", res.Count).Msg("joined room")
	s.broadcast(res.Existing, c, &ServerMessage{
		Event: EventUserJoined,
		Data:  Presence{UserId: c.id, UserName: c.displayName(""), RoomId: id},
	})
}

func (s *SignalServer) afterLeave(c *Client, kind roomKind, id string, res LeaveResult) {
	if res.Removed {
		s.stats.Decr(stats.ActiveRooms)
	}

	name := c.displayName("")
	c.log.Info().Str("kind", string(kind)).Str("room_id", id).Int("user_count", len(res.Remaining)).Msg("left room")
	s.broadcast(res.Remaining, c, &ServerMessage{
		Event: EventUserLeft,
		Data:  Presence{UserId: c.id, UserName: name, RoomId: id},
	})

	if kind == KindVideo {
		s.recorder.RecordAsync(id, "leave", name, types.Details{
			"connectionId": c.id,
			"userCount":    len(res.Remaining),
		})
	}
}

func (s *SignalServer) unicast(to string, msg *ServerMessage) error {
	target := s.lookup(to)
	if target == nil {
		return fmt.Errorf("unknown target connection %q", to)
	}

	target.queueMessage(msg)
	return nil
}

// broadcast queues msg to every member except sender. A slow member with a
// full buffer misses the message without stalling the others.
func (s *SignalServer) broadcast(members []*Client, sender *Client, msg *ServerMessage) {
	for _, m := range members {
		if m == sender {
			continue
		}
		m.queueMessage(msg)
	}
}
