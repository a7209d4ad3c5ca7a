package ws

import (
	"encoding/json"
	"fmt"

	"chat-relay/domain/event"
)

// Wire format: every frame is a JSON envelope whose "event" field names
// the action, mirroring the event names clients already know.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	eventLogin       = "login"
	eventJoinChat    = "joinChat"
	eventLeaveChat   = "leaveChat"
	eventSendMessage = "sendMessage"
)

type loginPayload struct {
	Phone string `json:"phone"`
}

type roomPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type sendPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// encodeEvent turns a domain event into its outbound frame. The event
// name doubles as the envelope type, so clients dispatch the same way
// the server does.
func encodeEvent(e event.DomainEvent) ([]byte, error) {
	var data any

	switch evt := e.(type) {
	case event.UserConnected:
		data = string(evt.User)
	case event.UserDisconnected:
		data = string(evt.User)
	case event.MessageReceived:
		data = struct {
			ID      string `json:"id"`
			From    string `json:"from"`
			To      string `json:"to"`
			Message string `json:"message"`
			SentAt  int64  `json:"sentAt"`
		}{
			ID:      evt.ID.String(),
			From:    string(evt.From),
			To:      string(evt.To),
			Message: evt.Body,
			SentAt:  evt.At.UnixNano(),
		}
	case event.MessageNotification:
		data = struct {
			From    string `json:"from"`
			To      string `json:"to"`
			Message string `json:"message"`
			RoomID  string `json:"roomId"`
		}{
			From:    string(evt.From),
			To:      string(evt.To),
			Message: evt.Body,
			RoomID:  string(evt.RoomKey),
		}
	default:
		return nil, fmt.Errorf("unknown event type %T", e)
	}

	return json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: e.Name(), Data: data})
}
