package types

import "github.com/DoyleJ11/card-battle-backend/internal/engine"

// StateSnapshot:
//   version: number
//   state:
//     roomId, phase ("lobby" | "in_progress" | "complete"), step, round
//     human / ai: { id, name, isAI, hand[], score, active, chosenCard, statusEffects[] }
//     combo: { human: {element, streak}, ai: {element, streak} }
//     opponent (tournament rooms only), winner ("human" | "ai" | "tie")
//     history: per-round { humanCard, aiCard, humanStrength, aiStrength, winner, combos }

func Snapshot(version int, state engine.State) ServerMessage {
	return ServerMessage{Type: MsgStateSnapshot, Version: version, State: &state}
}

func Error(code string) ServerMessage {
	return ServerMessage{Type: MsgError, Error: code}
}
