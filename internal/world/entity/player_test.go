package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
)

func TestPlayer_DamageClampsAndScattersOnce(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 100, 100)
	player.AddItem(InventoryItem{Key: ItemPistol})
	player.AddItem(InventoryItem{Key: ItemWood})
	player.AddItem(InventoryItem{Key: ItemBandage})
	player.SetIsCrafting(true)

	player.Damage(5)

	assert.Equal(t, 0, player.Health(), "Здоровье не уходит ниже нуля")
	assert.True(t, player.IsDead())
	assert.False(t, player.IsCrafting(), "Смерть сбрасывает крафт")
	assert.Empty(t, player.Inventory())
	assert.Equal(t, 1, countType(em, EntityTypeWeapon))
	assert.Equal(t, 1, countType(em, EntityTypeTree))
	assert.Equal(t, 1, countType(em, EntityTypeBandage))
	assert.Equal(t, 1, countType(em, EntityTypeSound))

	for _, e := range em.PositionableEntities() {
		if e.Type() == EntityTypePlayer || e.Type() == EntityTypeSound {
			continue
		}
		assert.LessOrEqual(t, physics.Distance(e.Position(), player.Position()), DeathScatterRadius)
	}

	before := em.Count()
	player.Damage(1)
	assert.Equal(t, 0, player.Health())
	assert.Equal(t, before+1, em.Count(), "Повторный урон даёт только звук")
}

func TestPlayer_DeathDropsUnknownItemKind(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 100, 100)
	player.AddItem(InventoryItem{Key: ItemPistol})
	player.AddItem(InventoryItem{Key: "Rock"})
	player.AddItem(InventoryItem{Key: ItemBandage})

	player.Damage(PlayerMaxHealth)

	assert.True(t, player.IsDead())
	assert.Empty(t, player.Inventory(), "Инвентарь очищается целиком")
	assert.Equal(t, 1, countType(em, EntityTypeWeapon), "Известные предметы разбрасываются")
	assert.Equal(t, 1, countType(em, EntityTypeBandage))
	assert.Equal(t, 4, em.Count(), "Предмет неизвестного вида не становится сущностью")
}

func TestPlayer_DamageEmitsHurtSound(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)

	player.Damage(1)

	assert.Equal(t, 2, player.Health())
	sounds := em.NearbyEntities(player.CenterPosition(), 0, EntityTypeSound)
	require.Len(t, sounds, 1)
	assert.Equal(t, SoundPlayerHurt, sounds[0].(*Sound).Kind())
}

func TestPlayer_FirePistol(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemPistol})
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Fire: true})

	require.NoError(t, player.Update(0.016))

	assert.Equal(t, ItemPistol, player.ActiveItem().Key)
	assert.Equal(t, 1, countType(em, EntityTypeBullet), "Пистолет выпускает ровно одну пулю")
	assert.InDelta(t, FireCooldown, player.fireCooldown.Remaining(), 1e-9, "Кулдаун сброшен")

	var sound *Sound
	for _, e := range em.Entities() {
		if s, ok := e.(*Sound); ok {
			sound = s
		}
	}
	require.NotNil(t, sound)
	assert.Equal(t, SoundPistol, sound.Kind())
	assert.Equal(t, player.CenterPosition(), sound.Position())

	require.NoError(t, player.Update(0.1))
	assert.Equal(t, 1, countType(em, EntityTypeBullet), "Пока кулдаун не готов, выстрела нет")
}

func TestPlayer_FireShotgunSpread(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemShotgun})
	player.SetInput(Input{Facing: DirectionUp, InventoryItem: slot(1), Fire: true})

	require.NoError(t, player.Update(0.016))

	var bullets []*Bullet
	for _, e := range em.Entities() {
		if b, ok := e.(*Bullet); ok {
			bullets = append(bullets, b)
		}
	}
	require.Len(t, bullets, 3)
	assert.Equal(t, 0, countType(em, EntityTypeSound), "Дробовик не издаёт звук")

	// Смещения -2°, 0°, +2° при взгляде вверх
	assert.Less(t, bullets[0].Velocity().X, 0.0)
	assert.InDelta(t, 0, bullets[1].Velocity().X, 1e-9)
	assert.Greater(t, bullets[2].Velocity().X, 0.0)
	for _, b := range bullets {
		assert.Less(t, b.Velocity().Y, 0.0)
		assert.Equal(t, player.CenterPosition(), b.Position())
	}
}

func TestPlayer_FireWithoutWeaponDoesNothing(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemWood})
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Fire: true})

	require.NoError(t, player.Update(0.016))
	assert.Equal(t, 1, em.Count())
	assert.True(t, player.fireCooldown.IsReady())
}

func TestPlayer_KnifeHitsClosestZombie(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	near := spawnZombie(em, 20, 0)
	far := spawnZombie(em, 40, 0)
	player.AddItem(InventoryItem{Key: ItemKnife})
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Fire: true})

	require.NoError(t, player.Update(0.016))

	assert.Equal(t, ZombieMaxHealth-KnifeDamage, near.Health())
	assert.Equal(t, ZombieMaxHealth, far.Health())
}

func TestPlayer_OutOfRangeSlotClearsActiveItem(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemPistol})

	player.SetInput(Input{InventoryItem: slot(1)})
	require.NoError(t, player.Update(0.016))
	require.NotNil(t, player.ActiveItem())

	player.SetInput(Input{InventoryItem: slot(5)})
	require.NoError(t, player.Update(0.016))
	assert.Nil(t, player.ActiveItem())
}

func TestPlayer_CraftingOrDeadIsNoop(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemPistol})
	player.SetIsCrafting(true)
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Fire: true, DX: 1})

	require.NoError(t, player.Update(1))
	assert.Equal(t, 1, em.Count())
	assert.Equal(t, vec.Zero, player.Position())
}

func TestPlayer_ResumesBufferedInputAfterCrafting(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 100, 100)
	player.SetIsCrafting(true)
	player.SetInput(Input{Facing: DirectionRight, DX: 1})
	assert.Equal(t, vec.Zero, player.Velocity(), "Во время крафта игрок стоит")

	player.SetIsCrafting(false)
	require.NoError(t, player.Update(0.5))

	assert.InDelta(t, 100+PlayerSpeed*0.5, player.Position().X, 1e-9, "Ввод, пришедший во время крафта, применяется после него")
	assert.Equal(t, 100.0, player.Position().Y)
}

func TestPlayer_ResumesMovementAfterCraft(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 100, 100)
	player.AddItem(InventoryItem{Key: ItemWood})
	player.AddItem(InventoryItem{Key: ItemWood})
	player.SetIsCrafting(true)
	player.SetInput(Input{Facing: DirectionDown, DY: 1})

	require.NoError(t, player.Craft(ItemBandage))
	require.NoError(t, player.Update(0.5))

	assert.InDelta(t, 100+PlayerSpeed*0.5, player.Position().Y, 1e-9)
}

func TestPlayer_MovementRevertsOnlyBlockedAxis(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	spawnPlayer(em, 14, 0)
	player.SetInput(Input{Facing: DirectionRight, DX: 1, DY: 1})

	require.NoError(t, player.Update(0.1))

	step := PlayerSpeed * 0.1 / 1.4142135623730951
	assert.Equal(t, 0.0, player.Position().X, "Ось X упирается в другого игрока")
	assert.InDelta(t, step, player.Position().Y, 1e-9, "По оси Y игрок скользит")
}

func TestPlayer_MovementIgnoresNonPlayers(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	spawnZombie(em, 6, 0)
	spawnWall(em, 8, 0)
	player.SetInput(Input{Facing: DirectionRight, DX: 1})

	require.NoError(t, player.Update(0.1))
	assert.InDelta(t, 6.0, player.Position().X, 1e-9)
}

func TestPlayer_InteractPicksClosest(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	tree := NewTree(em)
	tree.SetPosition(vec.Vec2Float{X: 10, Y: 0})
	weapon := NewWeapon(em, ItemShotgun)
	weapon.SetPosition(vec.Vec2Float{X: 5, Y: 0})
	em.AddEntities(tree, weapon)

	player.SetInput(Input{Facing: DirectionRight, Interact: true})
	require.NoError(t, player.Update(0.016))

	assert.True(t, player.HasInInventory(ItemShotgun))
	assert.True(t, em.IsMarkedForRemoval(weapon))
	assert.False(t, em.IsMarkedForRemoval(tree))

	require.NoError(t, player.Update(0.016))
	assert.False(t, player.HasInInventory(ItemWood), "Повтор до истечения кулдауна игнорируется")
}

func TestPlayer_InteractHarvestsTree(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	tree := NewTree(em)
	tree.SetPosition(vec.Vec2Float{X: 10, Y: 10})
	em.AddEntity(tree)

	player.SetInput(Input{Facing: DirectionRight, Interact: true})
	require.NoError(t, player.Update(0.016))

	assert.True(t, player.HasInInventory(ItemWood))
	assert.True(t, em.IsMarkedForRemoval(tree))
}

func TestPlayer_InteractWithFullInventory(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	for i := 0; i < MaxInventorySlots; i++ {
		require.True(t, player.AddItem(InventoryItem{Key: ItemWood}))
	}
	assert.True(t, player.IsInventoryFull())
	assert.False(t, player.AddItem(InventoryItem{Key: ItemWood}))

	bandage := NewBandage(em)
	em.AddEntity(bandage)
	player.SetInput(Input{Facing: DirectionRight, Interact: true})
	require.NoError(t, player.Update(0.016))

	assert.False(t, em.IsMarkedForRemoval(bandage), "Предмет остаётся в мире")
}

func TestPlayer_DropPlacesEntityInFacingDirection(t *testing.T) {
	cases := []struct {
		facing Direction
		want   vec.Vec2Float
	}{
		{DirectionUp, vec.Vec2Float{X: 100, Y: 84}},
		{DirectionDown, vec.Vec2Float{X: 100, Y: 116}},
		{DirectionLeft, vec.Vec2Float{X: 84, Y: 100}},
		{DirectionRight, vec.Vec2Float{X: 116, Y: 100}},
	}
	for _, tc := range cases {
		t.Run(string(tc.facing), func(t *testing.T) {
			em, _ := newTestManager(t)
			player := spawnPlayer(em, 100, 100)
			player.AddItem(InventoryItem{Key: ItemKnife})
			player.AddItem(InventoryItem{Key: ItemWall, State: &ItemState{Health: 3}})
			player.SetInput(Input{Facing: tc.facing, InventoryItem: slot(2), Drop: true})

			require.NoError(t, player.Update(0.016))

			require.Len(t, player.Inventory(), 1)
			assert.Equal(t, ItemKnife, player.Inventory()[0].Key)
			assert.Nil(t, player.ActiveItem(), "Выброшенный предмет больше не активен")

			var wall *Wall
			for _, e := range em.Entities() {
				if w, ok := e.(*Wall); ok {
					wall = w
				}
			}
			require.NotNil(t, wall)
			assert.Equal(t, tc.want, wall.Position())
			assert.Equal(t, 3, wall.Health(), "Состояние предмета переносится в сущность")
		})
	}
}

func TestPlayer_DropUnknownItemAborts(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: "Rock"})
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Drop: true})

	err := player.Update(0.016)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownItemKind)
	assert.Len(t, player.Inventory(), 1, "Инвентарь не меняется")
	assert.Equal(t, 1, em.Count())
}

func TestPlayer_ConsumeBandage(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemBandage})
	player.Damage(1)
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Consume: true})

	require.NoError(t, player.Update(0.016))

	assert.Equal(t, PlayerMaxHealth, player.Health())
	assert.Empty(t, player.Inventory())
}

func TestPlayer_ConsumeAtFullHealthKeepsItem(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemBandage})
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Consume: true})

	require.NoError(t, player.Update(0.016))

	assert.Len(t, player.Inventory(), 1)
	assert.False(t, player.consumeCooldown.IsReady())
}

func TestPlayer_ConsumeNonConsumableKeepsCooldown(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	player.AddItem(InventoryItem{Key: ItemKnife})
	player.SetInput(Input{Facing: DirectionRight, InventoryItem: slot(1), Consume: true})

	require.NoError(t, player.Update(0.016))

	assert.Len(t, player.Inventory(), 1)
	assert.True(t, player.consumeCooldown.IsReady(), "Кулдаун не сбрасывается без действия")
}

func TestPlayer_Craft(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 0, 0)
	for i := 0; i < 3; i++ {
		player.AddItem(InventoryItem{Key: ItemWood})
	}
	player.AddItem(InventoryItem{Key: ItemKnife})

	require.NoError(t, player.Craft(ItemWall))
	inv := player.Inventory()
	require.Len(t, inv, 2)
	assert.Equal(t, ItemKnife, inv[0].Key)
	assert.Equal(t, ItemWall, inv[1].Key)
	assert.Equal(t, WallMaxHealth, inv[1].State.Health)

	assert.ErrorIs(t, player.Craft(ItemBandage), ErrMissingComponents)
	assert.ErrorIs(t, player.Craft("Rocket"), ErrUnknownRecipe)
}

func TestPlayer_Serialize(t *testing.T) {
	em, _ := newTestManager(t)
	player := spawnPlayer(em, 1, 2)
	player.AddItem(InventoryItem{Key: ItemPistol})

	raw := player.Serialize()
	assert.Equal(t, player.ID(), raw.ID())
	assert.Equal(t, EntityTypePlayer, raw["type"])
	assert.Equal(t, vec.Vec2Float{X: 1, Y: 2}, raw["position"])
	assert.Equal(t, PlayerMaxHealth, raw["health"])
	assert.Equal(t, false, raw["isCrafting"])
	assert.Len(t, raw["inventory"], 1)
}
