package world

import (
	"errors"
	"fmt"

	"github.com/annel0/survival-server/internal/eventbus"
	"github.com/annel0/survival-server/internal/world/entity"
)

var (
	// ErrUnknownSession возвращается для команды от сессии без игрока
	ErrUnknownSession = errors.New("unknown session")
	// ErrCommandQueueFull возвращается, когда поток симуляции не успевает разбирать команды
	ErrCommandQueueFull = errors.New("command queue full")
)

// command изменение мира, поступающее извне. Применяется только в потоке симуляции в начале тика.
type command interface {
	apply(w *WorldManager) error
}

type joinCommand struct {
	sessionID string
}

func (c joinCommand) apply(w *WorldManager) error {
	if _, ok := w.sessions[c.sessionID]; ok {
		return nil
	}
	p := entity.NewPlayer(w.entities)
	if m := w.maps.GetMap(); m != nil {
		p.SetPosition(m.Spawn)
	}
	if w.cfg.StarterKit {
		p.GiveStarterKit()
	}
	w.entities.AddEntity(p)
	w.sessions[c.sessionID] = p
	w.setSessionPlayer(c.sessionID, p.ID())
	w.queueEvent(eventbus.EventPlayerJoined, eventbus.PrioritySession,
		eventbus.SessionEvent{SessionID: c.sessionID, PlayerID: p.ID()})
	w.logger.Info("Сессия %s: игрок %s вошёл", c.sessionID, p.ID())
	return nil
}

type leaveCommand struct {
	sessionID string
}

func (c leaveCommand) apply(w *WorldManager) error {
	p, err := w.player(c.sessionID)
	if err != nil {
		return err
	}
	w.entities.MarkEntityForRemoval(p)
	delete(w.sessions, c.sessionID)
	w.setSessionPlayer(c.sessionID, "")
	w.queueEvent(eventbus.EventPlayerLeft, eventbus.PrioritySession,
		eventbus.SessionEvent{SessionID: c.sessionID, PlayerID: p.ID()})
	w.logger.Info("Сессия %s: игрок %s вышел", c.sessionID, p.ID())
	return nil
}

type inputCommand struct {
	sessionID string
	input     entity.Input
}

func (c inputCommand) apply(w *WorldManager) error {
	p, err := w.player(c.sessionID)
	if err != nil {
		return err
	}
	p.SetInput(c.input)
	return nil
}

type craftingCommand struct {
	sessionID string
	crafting  bool
}

func (c craftingCommand) apply(w *WorldManager) error {
	p, err := w.player(c.sessionID)
	if err != nil {
		return err
	}
	if p.IsDead() {
		return nil
	}
	p.SetIsCrafting(c.crafting)
	return nil
}

type craftCommand struct {
	sessionID string
	recipe    entity.ItemKey
}

func (c craftCommand) apply(w *WorldManager) error {
	p, err := w.player(c.sessionID)
	if err != nil {
		return err
	}
	if p.IsDead() {
		return nil
	}
	return p.Craft(c.recipe)
}

func (w *WorldManager) player(sessionID string) (*entity.Player, error) {
	p, ok := w.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return p, nil
}

func (w *WorldManager) submit(cmd command) error {
	select {
	case w.commands <- cmd:
		return nil
	default:
		w.metrics.commandsDropped.Inc()
		return ErrCommandQueueFull
	}
}

// Join создаёт игрока для сессии в начале следующего тика
func (w *WorldManager) Join(sessionID string) error {
	return w.submit(joinCommand{sessionID: sessionID})
}

// Leave удаляет игрока сессии. Выход не отбрасывается при переполненной очереди:
// он откладывается и применяется в начале следующего тика.
func (w *WorldManager) Leave(sessionID string) error {
	select {
	case w.commands <- leaveCommand{sessionID: sessionID}:
	default:
		w.leavesMu.Lock()
		w.pendingLeaves = append(w.pendingLeaves, sessionID)
		w.leavesMu.Unlock()
	}
	return nil
}

// SetInput передаёт ввод игроку сессии
func (w *WorldManager) SetInput(sessionID string, input entity.Input) error {
	return w.submit(inputCommand{sessionID: sessionID, input: input})
}

// SetCrafting включает или выключает режим крафта
func (w *WorldManager) SetCrafting(sessionID string, crafting bool) error {
	return w.submit(craftingCommand{sessionID: sessionID, crafting: crafting})
}

// Craft создаёт предмет по рецепту
func (w *WorldManager) Craft(sessionID string, recipe entity.ItemKey) error {
	return w.submit(craftCommand{sessionID: sessionID, recipe: recipe})
}

// drainCommands применяет все накопленные команды, затем отложенные выходы.
// Ошибки команд логируются и не прерывают тик.
func (w *WorldManager) drainCommands() {
drain:
	for {
		select {
		case cmd := <-w.commands:
			w.applyCommand(cmd)
		default:
			break drain
		}
	}

	w.leavesMu.Lock()
	leaves := w.pendingLeaves
	w.pendingLeaves = nil
	w.leavesMu.Unlock()
	for _, sessionID := range leaves {
		w.applyCommand(leaveCommand{sessionID: sessionID})
	}
}

func (w *WorldManager) applyCommand(cmd command) {
	if err := cmd.apply(w); err != nil {
		w.logger.Warn("Тик %d: команда %T отклонена: %v", w.tick, cmd, err)
	}
}
