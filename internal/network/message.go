package network

import (
	"github.com/goccy/go-json"

	"github.com/annel0/survival-server/internal/world"
	"github.com/annel0/survival-server/internal/world/entity"
)

// ===== Сообщения клиента =====

// Типы сообщений от клиента
const (
	MsgTypeInput    = "input"
	MsgTypeCraft    = "craft"
	MsgTypeCrafting = "crafting"
)

// ClientMessage сообщение клиента.
//
//	{"type":"input","input":{"facing":"up","inventoryItem":2,"dx":0,"dy":-1,"fire":true}}
//	{"type":"crafting","crafting":true}
//	{"type":"craft","recipe":"Wall"}
type ClientMessage struct {
	Type     string         `json:"type"`
	Input    *entity.Input  `json:"input,omitempty"`
	Crafting bool           `json:"crafting,omitempty"`
	Recipe   entity.ItemKey `json:"recipe,omitempty"`
}

// ===== Сообщения сервера =====

// Типы сообщений сервера
const (
	MsgTypeWelcome  = "welcome"
	MsgTypeSnapshot = "snapshot"
	MsgTypeError    = "error"
)

// WelcomeMessage отправляется сразу после подключения
type WelcomeMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// SnapshotMessage снимок мира для конкретного клиента.
// PlayerID пуст, пока игрок сессии не создан или уже удалён.
type SnapshotMessage struct {
	Type     string                `json:"type"`
	Tick     uint64                `json:"tick"`
	MapID    string                `json:"map"`
	PlayerID string                `json:"playerId,omitempty"`
	Entities json.RawMessage       `json:"entities"`
	Removed  []world.RemovedEntity `json:"removed,omitempty"`
}

// ErrorMessage сообщает клиенту об отклонённом сообщении
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorMessage(text string) ([]byte, error) {
	return json.Marshal(ErrorMessage{Type: MsgTypeError, Message: text})
}
