package entity

const (
	BandageWidth  = 8
	BandageHeight = 8
	BandageHeal   = 1
)

// Bandage бинт: подбирается и восстанавливает здоровье при употреблении
type Bandage struct {
	BaseEntity
	body
}

// NewBandage создаёт бинт
func NewBandage(em *EntityManager) *Bandage {
	return &Bandage{
		BaseEntity: newBaseEntity(em, EntityTypeBandage),
		body:       body{width: BandageWidth, height: BandageHeight},
	}
}

// Interact подбирает бинт
func (b *Bandage) Interact(actor Collector) {
	pickUp(b, b.manager, actor, InventoryItem{Key: ItemBandage})
}

// Consume лечит цель, если её здоровье не полное
func (b *Bandage) Consume(target Healable) bool {
	if target.Health() >= target.MaxHealth() {
		return false
	}
	target.Heal(BandageHeal)
	return true
}

// Serialize возвращает снимок бинта
func (b *Bandage) Serialize() RawEntity {
	raw := b.BaseEntity.Serialize()
	raw["position"] = b.position
	return raw
}
