package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

type sessionState int

const (
	stateAnonymous sessionState = iota
	stateIdentified
	stateClosed
)

// Session drives one client connection through its lifecycle:
// anonymous until a login frame, identified while relaying, closed on
// disconnect. Malformed or out-of-order frames are logged and dropped;
// they never tear down the connection.
type Session struct {
	log         *slog.Logger
	sink        contract.EventSink
	connections contract.IConnectionRegistry
	rooms       contract.IRoomRegistry
	presence    contract.IPresenceBroadcaster
	router      contract.IMessageRouter

	// authPhone is the identity proven by the session token. A login
	// frame claiming anyone else is rejected.
	authPhone domain.Identity

	mu       sync.Mutex
	state    sessionState
	identity domain.Identity
	joined   map[domain.RoomKey]struct{}
}

func NewSession(
	log *slog.Logger,
	sink contract.EventSink,
	connections contract.IConnectionRegistry,
	rooms contract.IRoomRegistry,
	presence contract.IPresenceBroadcaster,
	router contract.IMessageRouter,
	authPhone domain.Identity,
) *Session {
	return &Session{
		log:         log,
		sink:        sink,
		connections: connections,
		rooms:       rooms,
		presence:    presence,
		router:      router,
		authPhone:   authPhone,
		joined:      make(map[domain.RoomKey]struct{}),
	}
}

// Handle dispatches one inbound frame.
func (s *Session) Handle(ctx context.Context, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn("Dropping malformed frame", "error", err)
		return
	}

	switch env.Event {
	case eventLogin:
		s.handleLogin(env.Data)
	case eventJoinChat:
		s.handleJoin(env.Data)
	case eventLeaveChat:
		s.handleLeave(env.Data)
	case eventSendMessage:
		s.handleSend(ctx, env.Data)
	default:
		s.log.Warn("Unknown event", "event", env.Event)
	}
}

func (s *Session) handleLogin(data []byte) {
	var p loginPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn("Dropping malformed login", "error", err)
		return
	}

	id := domain.Identity(p.Phone)
	if !id.IsValid() {
		s.log.Warn("Dropping login with invalid phone", "phone", p.Phone)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateAnonymous {
		s.log.Warn("Dropping login on non-anonymous session", "phone", p.Phone)
		return
	}
	if s.authPhone != "" && id != s.authPhone {
		s.log.Warn("Login identity does not match session token",
			"claimed", id, "token", s.authPhone)
		return
	}

	// Announce first so the newcomer never receives its own arrival,
	// then publish the sink. A previous connection for the same phone
	// is silently superseded.
	s.presence.AnnounceConnected(id)
	s.connections.Register(id, s.sink)
	s.identity = id
	s.state = stateIdentified

	s.log.Info("User logged in", "phone", id)
}

func (s *Session) handleJoin(data []byte) {
	id, key, ok := s.roomFrame(data, "joinChat")
	if !ok {
		return
	}

	s.mu.Lock()
	s.joined[key] = struct{}{}
	s.mu.Unlock()

	s.rooms.Join(key, id)
	s.log.Info("Joined room", "phone", id, "room", key)
}

func (s *Session) handleLeave(data []byte) {
	id, key, ok := s.roomFrame(data, "leaveChat")
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.joined, key)
	s.mu.Unlock()

	s.rooms.Leave(key, id)
	s.log.Info("Left room", "phone", id, "room", key)
}

// roomFrame validates a {from,to} frame against the session identity
// and resolves the canonical room key.
func (s *Session) roomFrame(data []byte, what string) (domain.Identity, domain.RoomKey, bool) {
	var p roomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn("Dropping malformed frame", "event", what, "error", err)
		return "", "", false
	}

	s.mu.Lock()
	state, id := s.state, s.identity
	s.mu.Unlock()

	if state != stateIdentified {
		s.log.Warn("Dropping frame on unidentified session", "event", what)
		return "", "", false
	}
	if domain.Identity(p.From) != id {
		s.log.Warn("Frame claims another identity", "event", what,
			"claimed", p.From, "session", id)
		return "", "", false
	}

	key, err := domain.NewRoomKey(domain.Identity(p.From), domain.Identity(p.To))
	if err != nil {
		s.log.Warn("Invalid phone number(s) for room", "event", what,
			"from", p.From, "to", p.To, "error", err)
		return "", "", false
	}
	return id, key, true
}

func (s *Session) handleSend(ctx context.Context, data []byte) {
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.log.Warn("Dropping malformed sendMessage", "error", err)
		return
	}

	s.mu.Lock()
	state, id := s.state, s.identity
	s.mu.Unlock()

	if state != stateIdentified {
		s.log.Warn("Dropping sendMessage on unidentified session")
		return
	}
	if domain.Identity(p.From) != id {
		s.log.Warn("sendMessage claims another identity",
			"claimed", p.From, "session", id)
		return
	}

	outcome, err := s.router.Send(ctx, id, domain.Identity(p.To), p.Message)
	if err != nil {
		s.log.Warn("Dropping sendMessage", "from", id, "to", p.To, "error", err)
		return
	}

	switch outcome {
	case contract.OutcomeDelivered:
		s.log.Info("Message delivered", "from", id, "to", p.To)
	case contract.OutcomeNotified:
		s.log.Info("Recipient notified outside room", "from", id, "to", p.To)
	case contract.OutcomeUnreachable:
		s.log.Info("Recipient unreachable, message dropped", "from", id, "to", p.To)
	}
}

// Disconnect tears the session down. Safe to call more than once.
// Room membership is released and the presence departure announced only
// if this session still owned the registry entry; a session that was
// superseded by a fresh login stays silent and leaves no room.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	state, id := s.state, s.identity
	joined := make([]domain.RoomKey, 0, len(s.joined))
	for key := range s.joined {
		joined = append(joined, key)
	}
	s.joined = make(map[domain.RoomKey]struct{})
	s.state = stateClosed
	s.mu.Unlock()

	if state != stateIdentified {
		return
	}

	// A fresher login for the same identity owns the registry entry and
	// any rooms it re-joined; a superseded session must not touch them.
	if !s.connections.Unregister(id, s.sink) {
		return
	}

	for _, key := range joined {
		s.rooms.Leave(key, id)
	}

	s.presence.AnnounceDisconnected(id)
	s.log.Info("User disconnected", "phone", id)
}
