package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/annel0/survival-server/internal/network"
	"github.com/annel0/survival-server/internal/world/entity"
)

func main() {
	addr := flag.String("addr", "ws://localhost:7777/ws", "WebSocket endpoint")
	frames := flag.Int("frames", 20, "Number of snapshots to read per step")
	flag.Parse()

	fmt.Println("=== ТЕСТОВЫЙ КЛИЕНТ ДЛЯ ПРОВЕРКИ ПРОТОКОЛА ===")

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()

	fmt.Println("✅ Подключен к серверу")

	// Тест 1: приветствие
	fmt.Println("\n=== ТЕСТ 1: ПРИВЕТСТВИЕ ===")
	readFrames(conn, 1)

	// Тест 2: движение
	fmt.Println("\n=== ТЕСТ 2: ДВИЖЕНИЕ ВНИЗ ===")
	input := entity.DefaultInput()
	input.Facing = entity.DirectionDown
	input.DY = 1
	send(conn, network.ClientMessage{Type: network.MsgTypeInput, Input: &input})
	readFrames(conn, *frames)

	// Тест 3: крафт
	fmt.Println("\n=== ТЕСТ 3: КРАФТ ===")
	send(conn, network.ClientMessage{Type: network.MsgTypeCrafting, Crafting: true})
	send(conn, network.ClientMessage{Type: network.MsgTypeCraft, Recipe: entity.ItemBandage})
	readFrames(conn, *frames)

	// Тест 4: неизвестное сообщение
	fmt.Println("\n=== ТЕСТ 4: НЕИЗВЕСТНОЕ СООБЩЕНИЕ ===")
	send(conn, network.ClientMessage{Type: "teleport"})
	readFrames(conn, *frames)

	fmt.Println("\n=== ТЕСТИРОВАНИЕ ЗАВЕРШЕНО ===")
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func send(conn *websocket.Conn, msg network.ClientMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("❌ Ошибка сериализации %s: %v", msg.Type, err)
		return
	}
	fmt.Printf("📤 %s\n", data)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("❌ Ошибка отправки: %v", err)
	}
}

// readFrames читает n кадров и печатает краткую сводку по каждому
func readFrames(conn *websocket.Conn, n int) {
	for i := 0; i < n; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("❌ Ошибка чтения: %v", err)
			return
		}
		fmt.Println(describeFrame(data))
	}
}

// describeFrame возвращает однострочное описание кадра сервера
func describeFrame(data []byte) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Sprintf("❓ %d байт: %v", len(data), err)
	}

	switch head.Type {
	case network.MsgTypeWelcome:
		var msg network.WelcomeMessage
		_ = json.Unmarshal(data, &msg)
		return "📥 welcome session=" + msg.SessionID
	case network.MsgTypeError:
		var msg network.ErrorMessage
		_ = json.Unmarshal(data, &msg)
		return "⚠️ error: " + msg.Message
	case network.MsgTypeSnapshot:
		var msg network.SnapshotMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Sprintf("❓ snapshot: %v", err)
		}
		var entities []entity.RawEntity
		if err := json.Unmarshal(msg.Entities, &entities); err != nil {
			return fmt.Sprintf("❓ snapshot entities: %v", err)
		}
		return fmt.Sprintf("📥 tick=%d map=%s player=%s %s removed=%d",
			msg.Tick, msg.MapID, msg.PlayerID, countTypes(entities), len(msg.Removed))
	default:
		return fmt.Sprintf("❓ %s (%d байт)", head.Type, len(data))
	}
}

// countTypes считает сущности по типам: "player:1 tree:4"
func countTypes(entities []entity.RawEntity) string {
	counts := make(map[string]int)
	for _, raw := range entities {
		t, _ := raw["type"].(string)
		counts[t]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	out := ""
	for i, t := range types {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s:%d", t, counts[t])
	}
	return out
}
