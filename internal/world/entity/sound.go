package entity

// SoundKind вид звукового события
type SoundKind string

const (
	SoundPistol     SoundKind = "pistol"
	SoundPlayerHurt SoundKind = "player_hurt"
)

// Sound одноразовое звуковое событие. Попадает ровно в один снимок
// и удаляет себя при первом обновлении.
type Sound struct {
	BaseEntity
	body

	kind SoundKind
}

// NewSound создаёт звуковое событие
func NewSound(em *EntityManager, kind SoundKind) *Sound {
	return &Sound{
		BaseEntity: newBaseEntity(em, EntityTypeSound),
		kind:       kind,
	}
}

// Kind возвращает вид звука
func (s *Sound) Kind() SoundKind { return s.kind }

// Update помечает звук на удаление
func (s *Sound) Update(float64) error {
	s.manager.MarkEntityForRemoval(s)
	return nil
}

// Serialize возвращает снимок звука
func (s *Sound) Serialize() RawEntity {
	raw := s.BaseEntity.Serialize()
	raw["position"] = s.position
	raw["soundType"] = s.kind
	return raw
}
