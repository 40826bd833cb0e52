package entity

const (
	WeaponWidth  = 16
	WeaponHeight = 16
)

// Weapon оружие, лежащее в мире
type Weapon struct {
	BaseEntity
	body

	kind ItemKey
}

// NewWeapon создаёт оружие заданного вида
func NewWeapon(em *EntityManager, kind ItemKey) *Weapon {
	return &Weapon{
		BaseEntity: newBaseEntity(em, EntityTypeWeapon),
		body:       body{width: WeaponWidth, height: WeaponHeight},
		kind:       kind,
	}
}

// Kind возвращает вид оружия
func (w *Weapon) Kind() ItemKey { return w.kind }

// Interact подбирает оружие
func (w *Weapon) Interact(actor Collector) {
	pickUp(w, w.manager, actor, InventoryItem{Key: w.kind})
}

// Serialize возвращает снимок оружия
func (w *Weapon) Serialize() RawEntity {
	raw := w.BaseEntity.Serialize()
	raw["position"] = w.position
	raw["weaponType"] = w.kind
	return raw
}
