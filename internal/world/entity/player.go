package entity

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"

	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

const (
	PlayerWidth         = 16
	PlayerHeight        = 16
	PlayerHitboxPadding = 2
	PlayerSpeed         = 60.0
	PlayerMaxHealth     = 3

	MaxInventorySlots  = 8
	MaxInteractRadius  = 20.0
	DropOffset         = 16.0
	DeathScatterRadius = 32.0
	KnifeRange         = 24.0
	KnifeDamage        = 1
	ShotgunSpreadAngle = 2.0

	FireCooldown     = 0.4
	DropCooldown     = 0.5
	InteractCooldown = 0.5
	ConsumeCooldown  = 0.5
)

// Player управляемый клиентом персонаж
type Player struct {
	BaseEntity
	body

	velocity   vec.Vec2Float
	health     int
	inventory  []*InventoryItem
	activeItem *InventoryItem
	input      Input
	isCrafting bool

	fireCooldown     *Cooldown
	dropCooldown     *Cooldown
	interactCooldown *Cooldown
	consumeCooldown  *Cooldown
}

// NewPlayer создаёт игрока с полным здоровьем и пустым инвентарём.
// Регистрацию в реестре выполняет вызывающий.
func NewPlayer(em *EntityManager) *Player {
	return &Player{
		BaseEntity:       newBaseEntity(em, EntityTypePlayer),
		body:             body{width: PlayerWidth, height: PlayerHeight},
		health:           PlayerMaxHealth,
		inventory:        make([]*InventoryItem, 0, MaxInventorySlots),
		input:            DefaultInput(),
		fireCooldown:     NewCooldown(FireCooldown),
		dropCooldown:     NewCooldown(DropCooldown),
		interactCooldown: NewCooldown(InteractCooldown),
		consumeCooldown:  NewCooldown(ConsumeCooldown),
	}
}

// GiveStarterKit выдаёт набор предметов для отладки
func (p *Player) GiveStarterKit() {
	for _, key := range []ItemKey{ItemKnife, ItemPistol, ItemShotgun, ItemWood, ItemWood, ItemWood} {
		p.AddItem(InventoryItem{Key: key})
	}
}

func (p *Player) Velocity() vec.Vec2Float            { return p.velocity }
func (p *Player) SetVelocity(velocity vec.Vec2Float) { p.velocity = velocity }
func (p *Player) Health() int                        { return p.health }
func (p *Player) MaxHealth() int                     { return PlayerMaxHealth }
func (p *Player) IsDead() bool                       { return p.health <= 0 }
func (p *Player) IsCrafting() bool                   { return p.isCrafting }
func (p *Player) SetIsCrafting(crafting bool)        { p.isCrafting = crafting }
func (p *Player) Input() Input                       { return p.input }
func (p *Player) ActiveItem() *InventoryItem         { return p.activeItem }
func (p *Player) Hitbox() physics.Hitbox             { return p.box(PlayerHitboxPadding) }
func (p *Player) DamageBox() physics.Hitbox          { return p.box(0) }

// Inventory возвращает копию инвентаря
func (p *Player) Inventory() []InventoryItem {
	out := make([]InventoryItem, len(p.inventory))
	for i, item := range p.inventory {
		out[i] = *item
	}
	return out
}

// SetInput заменяет буферизованный ввод и выставляет скорость по dx/dy
func (p *Player) SetInput(input Input) {
	p.input = input
	if p.isCrafting || p.IsDead() {
		p.velocity = vec.Zero
		return
	}
	p.velocity = p.inputVelocity()
}

func (p *Player) inputVelocity() vec.Vec2Float {
	return vec.Vec2Float{X: p.input.DX, Y: p.input.DY}.Normalized().Mul(PlayerSpeed)
}

// IsInventoryFull сообщает, заняты ли все слоты
func (p *Player) IsInventoryFull() bool {
	return len(p.inventory) >= MaxInventorySlots
}

// HasInInventory сообщает, есть ли предмет с таким ключом
func (p *Player) HasInInventory(key ItemKey) bool {
	for _, item := range p.inventory {
		if item.Key == key {
			return true
		}
	}
	return false
}

// AddItem кладёт предмет в первый свободный слот. При полном инвентаре возвращает false.
func (p *Player) AddItem(item InventoryItem) bool {
	if p.IsInventoryFull() {
		return false
	}
	p.inventory = append(p.inventory, &item)
	return true
}

// Heal восстанавливает здоровье, не выше максимума
func (p *Player) Heal(amount int) {
	p.health += amount
	if p.health > PlayerMaxHealth {
		p.health = PlayerMaxHealth
	}
}

// Craft расходует компоненты рецепта и добавляет результат в инвентарь
func (p *Player) Craft(key ItemKey) error {
	recipe, ok := Recipes[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRecipe, key)
	}
	if !recipe.CanCraft(p.inventory) {
		return fmt.Errorf("%w: %q", ErrMissingComponents, key)
	}
	p.inventory = recipe.apply(p.inventory)
	p.isCrafting = false
	if p.activeItem != nil && !p.holds(p.activeItem) {
		p.activeItem = nil
	}
	return nil
}

// Damage наносит урон. Переход здоровья через ноль разбрасывает инвентарь.
func (p *Player) Damage(amount int) {
	wasDead := p.IsDead()
	p.health -= amount
	if p.health < 0 {
		p.health = 0
	}

	hurt := NewSound(p.manager, SoundPlayerHurt)
	hurt.SetPosition(p.CenterPosition())
	p.manager.AddEntity(hurt)

	if !wasDead && p.IsDead() {
		p.onDeath()
	}
}

func (p *Player) onDeath() {
	p.isCrafting = false
	p.velocity = vec.Zero
	if err := p.scatterInventory(); err != nil {
		logging.Error("Игрок %s: ошибка разброса инвентаря: %v", p.id, err)
	}
}

// scatterInventory превращает каждый предмет в сущность в случайной точке вокруг игрока
func (p *Player) scatterInventory() error {
	var errs error
	rng := p.manager.Rand()
	for _, item := range p.inventory {
		e, err := NewEntityFromItem(p.manager, *item)
		if err != nil {
			// предмет неизвестного вида теряется вместе с инвентарём
			errs = multierr.Append(errs, err)
			continue
		}
		theta := rng.Float64() * 2 * math.Pi
		radius := rng.Float64() * DeathScatterRadius
		e.SetPosition(vec.Vec2Float{
			X: p.position.X + math.Cos(theta)*radius,
			Y: p.position.Y + math.Sin(theta)*radius,
		})
		p.manager.AddEntity(e)
	}
	p.inventory = p.inventory[:0]
	p.activeItem = nil
	return errs
}

// Update выполняет конвейер действий игрока за тик
func (p *Player) Update(dt float64) error {
	if p.isCrafting || p.IsDead() {
		return nil
	}

	// после крафта скорость берётся из буферизованного ввода
	p.velocity = p.inputVelocity()
	p.updateActiveItem()
	p.handleAttack(dt)
	p.handleMovement(dt)
	p.handleInteract(dt)

	var errs error
	errs = multierr.Append(errs, p.handleDrop(dt))
	p.handleConsume(dt)
	return errs
}

func (p *Player) updateActiveItem() {
	if p.input.InventoryItem == nil {
		return
	}
	p.activeItem = p.itemAt(*p.input.InventoryItem)
}

// itemAt возвращает предмет по номеру слота с 1 или nil
func (p *Player) itemAt(slot int) *InventoryItem {
	idx := slot - 1
	if idx < 0 || idx >= len(p.inventory) {
		return nil
	}
	return p.inventory[idx]
}

func (p *Player) holds(item *InventoryItem) bool {
	for _, it := range p.inventory {
		if it == item {
			return true
		}
	}
	return false
}

func (p *Player) removeItem(item *InventoryItem) {
	for i, it := range p.inventory {
		if it == item {
			p.inventory = append(p.inventory[:i], p.inventory[i+1:]...)
			break
		}
	}
	if p.activeItem == item {
		p.activeItem = nil
	}
}

// handleMovement двигает игрока по осям X и Y раздельно, откатывая ось при столкновении с другим игроком
func (p *Player) handleMovement(dt float64) {
	if p.velocity.IsZero() {
		return
	}
	from := p.position

	p.position.X += p.velocity.X * dt
	if p.manager.IsCollidingWith(p, EntityTypePlayer) {
		p.position.X = from.X
	}

	p.position.Y += p.velocity.Y * dt
	if p.manager.IsCollidingWith(p, EntityTypePlayer) {
		p.position.Y = from.Y
	}

	logging.LogEntityMovement(p.id, from.X, from.Y, p.position.X, p.position.Y)
}

func (p *Player) handleAttack(dt float64) {
	p.fireCooldown.Update(dt)
	if !p.input.Fire {
		return
	}
	if p.activeItem == nil || !p.activeItem.Key.IsWeapon() {
		return
	}
	if !p.fireCooldown.IsReady() {
		return
	}
	p.fireCooldown.Reset()

	switch p.activeItem.Key {
	case ItemPistol:
		p.spawnBullet(0)
		sound := NewSound(p.manager, SoundPistol)
		sound.SetPosition(p.CenterPosition())
		p.manager.AddEntity(sound)
	case ItemShotgun:
		for _, offset := range []float64{-ShotgunSpreadAngle, 0, ShotgunSpreadAngle} {
			p.spawnBullet(offset)
		}
	case ItemKnife:
		p.stab()
	}
}

func (p *Player) spawnBullet(angleOffset float64) {
	bullet := NewBullet(p.manager, p.input.Facing.Vector().Rotate(angleOffset))
	bullet.SetPosition(p.CenterPosition())
	p.manager.AddEntity(bullet)
}

// stab наносит удар ножом ближайшему живому зомби в радиусе досягаемости
func (p *Player) stab() {
	var (
		target Damageable
		best   = math.Inf(1)
	)
	center := p.CenterPosition()
	for _, e := range p.manager.Entities() {
		z, ok := e.(*Zombie)
		if !ok || z.IsDead() {
			continue
		}
		if d := physics.Distance(center, z.CenterPosition()); d <= KnifeRange && d < best {
			best = d
			target = z
		}
	}
	if target != nil {
		target.Damage(KnifeDamage)
	}
}

func (p *Player) handleInteract(dt float64) {
	p.interactCooldown.Update(dt)
	if !p.input.Interact || !p.interactCooldown.IsReady() {
		return
	}
	p.interactCooldown.Reset()

	var candidates []Interactable
	for _, e := range p.manager.NearbyEntities(p.position, MaxInteractRadius) {
		if i, ok := e.(Interactable); ok && e.ID() != p.id {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return physics.Distance(candidates[a].Position(), p.position) <
			physics.Distance(candidates[b].Position(), p.position)
	})
	candidates[0].Interact(p)
}

func (p *Player) handleDrop(dt float64) error {
	p.dropCooldown.Update(dt)
	if !p.input.Drop || p.input.InventoryItem == nil {
		return nil
	}
	if !p.dropCooldown.IsReady() {
		return nil
	}
	p.dropCooldown.Reset()

	slot := *p.input.InventoryItem
	item := p.itemAt(slot)
	if item == nil {
		return nil
	}

	e, err := NewEntityFromItem(p.manager, *item)
	if err != nil {
		return fmt.Errorf("drop slot %d: %w", slot, err)
	}
	p.removeItem(item)

	offset := p.input.Facing.Vector().Mul(DropOffset)
	e.SetPosition(p.position.Add(offset))
	p.manager.AddEntity(e)
	return nil
}

func (p *Player) handleConsume(dt float64) {
	p.consumeCooldown.Update(dt)
	if !p.input.Consume || p.input.InventoryItem == nil {
		return
	}
	if !p.consumeCooldown.IsReady() {
		return
	}

	item := p.itemAt(*p.input.InventoryItem)
	if item == nil {
		return
	}
	consumable, ok := newConsumableFromItem(p.manager, *item)
	if !ok {
		return
	}
	p.consumeCooldown.Reset()

	if consumable.Consume(p) {
		p.removeItem(item)
	}
}

// Serialize возвращает снимок игрока
func (p *Player) Serialize() RawEntity {
	raw := p.BaseEntity.Serialize()
	raw["position"] = p.position
	raw["velocity"] = p.velocity
	raw["health"] = p.health
	raw["inventory"] = p.Inventory()
	raw["isCrafting"] = p.isCrafting
	var active *InventoryItem
	if p.activeItem != nil {
		item := *p.activeItem
		active = &item
	}
	raw["activeItem"] = active
	return raw
}
