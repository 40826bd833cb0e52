package entity

// pickUp переносит предмет в инвентарь актёра и помечает сущность на удаление.
// Сущность, уже ждущая удаления, повторно не подбирается.
func pickUp(e Entity, em *EntityManager, actor Collector, item InventoryItem) bool {
	if em.IsMarkedForRemoval(e) {
		return false
	}
	if !actor.AddItem(item) {
		return false
	}
	em.MarkEntityForRemoval(e)
	return true
}
