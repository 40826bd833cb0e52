package world

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/physics"
	"github.com/annel0/survival-server/internal/vec"
	"github.com/annel0/survival-server/internal/world/entity"
)

var (
	// ErrUnknownMap возвращается при загрузке карты, которой нет в реестре
	ErrUnknownMap = errors.New("unknown map")
	// ErrUnsupportedStaticEntity возвращается для статической сущности неподдерживаемого типа
	ErrUnsupportedStaticEntity = errors.New("unsupported static entity")
)

// StaticEntity запись о статической сущности карты
type StaticEntity struct {
	Type     entity.EntityType `yaml:"type" json:"type"`
	Position vec.Vec2Float     `yaml:"position" json:"position"`
	Item     entity.ItemKey    `yaml:"item,omitempty" json:"item,omitempty"` // вид оружия для weapon
}

// MapDefinition описание карты: статические сущности и сетка проходимости (строки 0/1)
type MapDefinition struct {
	ID       string         `yaml:"id" json:"id"`
	Spawn    vec.Vec2Float  `yaml:"spawn" json:"spawn"`
	Entities []StaticEntity `yaml:"entities" json:"entities"`
	Grid     [][]int        `yaml:"grid" json:"grid"`
}

// MapManager хранит известные карты и загружает выбранную в реестр сущностей.
// Является источником сетки для поиска пути зомби.
type MapManager struct {
	entities *entity.EntityManager
	maps     map[string]MapDefinition
	current  *MapDefinition
	grid     *physics.Grid
	mu       sync.RWMutex
}

// NewMapManager создаёт менеджер со встроенными картами и подключает его к реестру как источник сетки
func NewMapManager(em *entity.EntityManager) *MapManager {
	mm := &MapManager{
		entities: em,
		maps:     make(map[string]MapDefinition),
	}
	for _, def := range builtinMaps() {
		mm.RegisterMap(def)
	}
	em.SetGridProvider(mm)
	return mm
}

// RegisterMap добавляет или заменяет карту
func (mm *MapManager) RegisterMap(def MapDefinition) {
	mm.mu.Lock()
	mm.maps[def.ID] = def
	mm.mu.Unlock()
}

// RegisterMapFile читает описание карты из YAML файла
func (mm *MapManager) RegisterMapFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read map %s: %w", path, err)
	}
	var def MapDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return "", fmt.Errorf("parse map %s: %w", path, err)
	}
	if def.ID == "" {
		return "", fmt.Errorf("map %s: id is required", path)
	}
	mm.RegisterMap(def)
	return def.ID, nil
}

// LoadMap очищает реестр и заполняет его статическими сущностями карты
func (mm *MapManager) LoadMap(mapID string) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	def, ok := mm.maps[mapID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMap, mapID)
	}

	created := make([]entity.Entity, 0, len(def.Entities))
	for i, se := range def.Entities {
		e, err := newStaticEntity(mm.entities, se)
		if err != nil {
			return fmt.Errorf("map %q entity #%d: %w", mapID, i, err)
		}
		created = append(created, e)
	}

	mm.entities.Clear()
	mm.entities.AddEntities(created...)
	mm.current = &def
	mm.grid = physics.NewGrid(def.Grid, physics.TileSize)

	logging.Info("Загружена карта %s: %d статических сущностей, сетка %dx%d",
		mapID, len(created), mm.grid.Cols(), mm.grid.Rows())
	return nil
}

// GetMap возвращает текущую карту или nil
func (mm *MapManager) GetMap() *MapDefinition {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.current
}

// CurrentMapID возвращает id текущей карты
func (mm *MapManager) CurrentMapID() string {
	if m := mm.GetMap(); m != nil {
		return m.ID
	}
	return ""
}

// Grid возвращает сетку проходимости текущей карты
func (mm *MapManager) Grid() *physics.Grid {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.grid
}

// MapIDs возвращает id зарегистрированных карт
func (mm *MapManager) MapIDs() []string {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	ids := make([]string, 0, len(mm.maps))
	for id := range mm.maps {
		ids = append(ids, id)
	}
	return ids
}

func newStaticEntity(em *entity.EntityManager, se StaticEntity) (entity.Entity, error) {
	var e entity.Positionable
	switch se.Type {
	case entity.EntityTypeTree:
		e = entity.NewTree(em)
	case entity.EntityTypeWall:
		e = entity.NewWall(em, entity.WallMaxHealth)
	case entity.EntityTypeZombie:
		e = entity.NewZombie(em)
	case entity.EntityTypeBandage:
		e = entity.NewBandage(em)
	case entity.EntityTypeWeapon:
		if !se.Item.IsWeapon() {
			return nil, fmt.Errorf("%w: weapon with item %q", ErrUnsupportedStaticEntity, se.Item)
		}
		e = entity.NewWeapon(em, se.Item)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStaticEntity, se.Type)
	}
	e.SetPosition(se.Position)
	return e, nil
}
