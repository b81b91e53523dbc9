package types

import "github.com/DoyleJ11/card-battle-backend/internal/engine"

// Client -> Server (websocket)
// Join:        player_id, player_name
// StartGame:   {}
// ChooseCard:  card_index, side ("human" by default)
// Leave:       player_id
const (
	MsgJoin       = "Join"
	MsgStartGame  = "StartGame"
	MsgChooseCard = "ChooseCard"
	MsgLeave      = "Leave"
)

// Server -> Client
const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

type ClientMessage struct {
	Type       string `json:"type"`
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	CardIndex  int    `json:"card_index"`
	Side       string `json:"side,omitempty"`
}

type ServerMessage struct {
	Type    string        `json:"type"`
	Version int           `json:"version,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Error   string        `json:"error,omitempty"`
}
