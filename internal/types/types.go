package types

import "github.com/DoyleJ11/redblue-backend/internal/engine"

const (
	ClientDisconnect = "disconnect_event"

	ServerError = "Error"
)

type ClientMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"player_name,omitempty"`
	Token      string `json:"token,omitempty"`
}

type ServerMessage struct {
	Type  string       `json:"type"` // event kind | "Error"
	Event engine.Event `json:"event,omitempty"`
	Error string       `json:"error,omitempty"`
}

func EventMessage(ev engine.Event) ServerMessage {
	return ServerMessage{Type: string(ev.Kind()), Event: ev}
}

func ErrorMessage(err string) ServerMessage {
	return ServerMessage{Type: ServerError, Error: err}
}
