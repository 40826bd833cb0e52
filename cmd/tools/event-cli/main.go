package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/survival-server/internal/eventbus"
)

const (
	defaultServerAddr = "nats://127.0.0.1:4222"
	timeFormat        = "15:04:05.000"
)

// knownTypes события, которые публикует сервер
var knownTypes = []struct {
	Type        string
	Description string
}{
	{eventbus.EventEntitySpawned, "сущность появилась в снимке"},
	{eventbus.EventEntityRemoved, "сущность удалена при prune"},
	{eventbus.EventPlayerJoined, "сессия создала игрока"},
	{eventbus.EventPlayerLeft, "сессия закрыта, игрок удалён"},
}

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "NATS server URL")
		stream     = flag.String("stream", "SURVIVAL", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats, types")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		limit      = flag.Int("limit", 100, "Maximum number of events for tail")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
		window     = flag.Duration("window", 10*time.Second, "Collection window for stats")
	)
	flag.Parse()

	if *command == "types" {
		showTypes()
		return
	}

	bus, err := eventbus.NewJetStreamBus(*serverAddr, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to server: %v", err)
	}
	defer bus.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}

	switch *command {
	case "tail":
		if err := tailEvents(ctx, bus, filter, *limit, *follow); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		if err := showStats(ctx, bus, filter, *window); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats, types")
		os.Exit(1)
	}
}

// tailEvents выводит события по мере поступления
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, limit int, follow bool) error {
	fmt.Printf("🎬 Tailing events (limit: %d, follow: %v)\n", limit, follow)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		if !follow && count >= limit {
			return
		}
		fmt.Println(formatEvent(ev))
		count++
		if !follow && count >= limit {
			cancel()
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	mu.Lock()
	fmt.Printf("\n📊 Total events: %d\n", count)
	mu.Unlock()
	return nil
}

// showStats собирает события в течение окна и выводит количество по типам
func showStats(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, window time.Duration) error {
	fmt.Printf("📊 Event statistics (window: %v)\n", window)

	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	counter := newTypeCounter()
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		counter.add(ev.EventType)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	fmt.Print(counter.String())
	return nil
}

// showTypes выводит типы событий сервера
func showTypes() {
	fmt.Println("📋 Available event types")
	for _, t := range knownTypes {
		fmt.Printf("Type: %s\n  Subject: %s\n  Description: %s\n\n", t.Type, eventbus.Subject(t.Type), t.Description)
	}
}

// formatEvent форматирует событие в одну строку с деталями полезной нагрузки
func formatEvent(ev *eventbus.Envelope) string {
	head := fmt.Sprintf("[%s] %s [%s] %s", ev.Timestamp.Format(timeFormat), ev.Source, ev.EventType, ev.ID)

	switch ev.EventType {
	case eventbus.EventEntitySpawned, eventbus.EventEntityRemoved:
		var payload eventbus.EntityEvent
		if err := ev.Decode(&payload); err != nil {
			return head + "\n  (bad payload: " + err.Error() + ")"
		}
		details := fmt.Sprintf("  Tick: %d Entity: %s (%s)", payload.Tick, payload.EntityID, payload.EntityType)
		if payload.Position != nil {
			details += fmt.Sprintf(" at (%.1f,%.1f)", payload.Position.X, payload.Position.Y)
		}
		return head + "\n" + details
	case eventbus.EventPlayerJoined, eventbus.EventPlayerLeft:
		var payload eventbus.SessionEvent
		if err := ev.Decode(&payload); err != nil {
			return head + "\n  (bad payload: " + err.Error() + ")"
		}
		return head + fmt.Sprintf("\n  Session: %s Player: %s", payload.SessionID, payload.PlayerID)
	default:
		return head
	}
}

// typeCounter считает события по типам
type typeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

func newTypeCounter() *typeCounter {
	return &typeCounter{counts: make(map[string]int)}
}

func (c *typeCounter) add(eventType string) {
	c.mu.Lock()
	c.counts[eventType]++
	c.total++
	c.mu.Unlock()
}

func (c *typeCounter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]string, 0, len(c.counts))
	for t := range c.counts {
		types = append(types, t)
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "Total events: %d\n\nBy event type:\n", c.total)
	for _, t := range types {
		fmt.Fprintf(&b, "  %s: %d events\n", t, c.counts[t])
	}
	return b.String()
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
