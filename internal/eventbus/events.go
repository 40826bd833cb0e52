package eventbus

import "github.com/annel0/survival-server/internal/vec"

// Типы событий симуляции
const (
	EventEntitySpawned = "EntitySpawned"
	EventEntityRemoved = "EntityRemoved"
	EventPlayerJoined  = "PlayerJoined"
	EventPlayerLeft    = "PlayerLeft"
)

// Приоритеты: появление и удаление сущностей можно терять, вход и выход игроков нет.
const (
	PriorityEntity  = 3
	PrioritySession = 7
)

// SourceWorld имя источника событий симуляции
const SourceWorld = "world"

// EntityEvent полезная нагрузка EntitySpawned/EntityRemoved.
type EntityEvent struct {
	Tick       uint64         `json:"tick"`
	EntityID   string         `json:"entity_id"`
	EntityType string         `json:"entity_type"`
	Position   *vec.Vec2Float `json:"position,omitempty"`
}

// SessionEvent полезная нагрузка PlayerJoined/PlayerLeft.
type SessionEvent struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}
