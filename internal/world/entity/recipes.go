package entity

import "errors"

// Recipe рецепт крафта: сколько каких предметов расходуется и что получается
type Recipe struct {
	Result     ItemKey         `json:"result"`
	Components map[ItemKey]int `json:"components"`
}

// Recipes известные рецепты
var Recipes = map[ItemKey]Recipe{
	ItemWall: {
		Result:     ItemWall,
		Components: map[ItemKey]int{ItemWood: 3},
	},
	ItemBandage: {
		Result:     ItemBandage,
		Components: map[ItemKey]int{ItemWood: 2},
	},
}

// ErrUnknownRecipe возвращается для рецепта, которого нет в Recipes
var ErrUnknownRecipe = errors.New("unknown recipe")

// ErrMissingComponents возвращается, когда в инвентаре не хватает компонентов
var ErrMissingComponents = errors.New("missing recipe components")

// CanCraft проверяет, хватает ли предметов для рецепта
func (r Recipe) CanCraft(inventory []*InventoryItem) bool {
	counts := make(map[ItemKey]int)
	for _, item := range inventory {
		counts[item.Key]++
	}
	for key, need := range r.Components {
		if counts[key] < need {
			return false
		}
	}
	return true
}

// apply возвращает инвентарь без израсходованных компонентов и с результатом в конце
func (r Recipe) apply(inventory []*InventoryItem) []*InventoryItem {
	left := make(map[ItemKey]int, len(r.Components))
	for key, need := range r.Components {
		left[key] = need
	}
	out := make([]*InventoryItem, 0, len(inventory))
	for _, item := range inventory {
		if left[item.Key] > 0 {
			left[item.Key]--
			continue
		}
		out = append(out, item)
	}
	result := &InventoryItem{Key: r.Result}
	if r.Result == ItemWall {
		result.State = &ItemState{Health: WallMaxHealth}
	}
	return append(out, result)
}
