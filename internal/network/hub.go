package network

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/world"
	"github.com/annel0/survival-server/internal/world/entity"
)

const (
	defaultSendBuffer = 64
	readLimit         = 4096
	pongWait          = 60 * time.Second
	pingPeriod        = 30 * time.Second
	writeWait         = 10 * time.Second
)

// World часть WorldManager, нужная хабу. Все методы безопасны из любой горутины.
type World interface {
	Join(sessionID string) error
	Leave(sessionID string) error
	SetInput(sessionID string, input entity.Input) error
	SetCrafting(sessionID string, crafting bool) error
	Craft(sessionID string, recipe entity.ItemKey) error
	PlayerID(sessionID string) (string, bool)
}

// Client подключенный клиент, одна игровая сессия
type Client struct {
	conn *websocket.Conn
	send chan []byte // Канал для отправки сообщений
	id   string      // Идентификатор сессии
}

// ID возвращает идентификатор сессии клиента
func (c *Client) ID() string { return c.id }

// Hub принимает websocket соединения, передаёт сообщения клиентов в мир
// и рассылает снимки. Реализует world.SnapshotSink.
type Hub struct {
	world    World
	clients  map[string]*Client
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	metrics  *HubMetrics
	logger   *logging.Logger

	sendBuffer int
}

var _ world.SnapshotSink = (*Hub)(nil)

// NewHub создаёт хаб. metrics может быть nil.
func NewHub(w World, metrics *HubMetrics) *Hub {
	if metrics == nil {
		metrics = NewHubMetrics(nil)
	}
	return &Hub{
		world:   w,
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		metrics:    metrics,
		logger:     logging.GetNetworkLogger(),
		sendBuffer: defaultSendBuffer,
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection обрабатывает новое WebSocket подключение: создаёт сессию и игрока
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Error upgrading connection from %s: %v", r.RemoteAddr, err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		id:   uuid.NewString(),
	}

	if err := h.world.Join(client.id); err != nil {
		h.logger.Warn("Сессия %s отклонена: %v", client.id, err)
		if frame, mErr := newErrorMessage(err.Error()); mErr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, frame)
		}
		_ = conn.Close()
		return
	}

	welcome, err := json.Marshal(WelcomeMessage{Type: MsgTypeWelcome, SessionID: client.id})
	if err != nil {
		_ = conn.Close()
		return
	}
	client.send <- welcome

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.metrics.connections.Inc()
	h.logger.Info("Client connected: %s (%s)", client.id, r.RemoteAddr)

	go h.writePump(client)
	go h.readPump(client)
}

// unregister удаляет клиента и его игрока. Повторный вызов ничего не делает.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.id]
	if ok {
		delete(h.clients, client.id)
		close(client.send)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	h.metrics.connections.Dec()
	if err := h.world.Leave(client.id); err != nil {
		h.logger.Warn("Leave %s: %v", client.id, err)
	}
	h.logger.Info("Client disconnected: %s", client.id)
}

// readPump читает сообщения клиента и превращает их в команды мира
func (h *Hub) readPump(client *Client) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(readLimit)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Error reading message from %s: %v", client.id, err)
			}
			return
		}
		_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.handleMessage(client, data); err != nil {
			h.metrics.rejected.Inc()
			h.logger.Debug("Сообщение %s отклонено: %v", client.id, err)
			if frame, mErr := newErrorMessage(err.Error()); mErr == nil {
				h.trySend(client, frame)
			}
		}
	}
}

func (h *Hub) handleMessage(client *Client, data []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("malformed message: %w", err)
	}

	switch msg.Type {
	case MsgTypeInput:
		if msg.Input == nil {
			return fmt.Errorf("input message without input")
		}
		h.metrics.received.WithLabelValues(msg.Type).Inc()
		return h.world.SetInput(client.id, *msg.Input)
	case MsgTypeCrafting:
		h.metrics.received.WithLabelValues(msg.Type).Inc()
		return h.world.SetCrafting(client.id, msg.Crafting)
	case MsgTypeCraft:
		if msg.Recipe == "" {
			return fmt.Errorf("craft message without recipe")
		}
		h.metrics.received.WithLabelValues(msg.Type).Inc()
		return h.world.Craft(client.id, msg.Recipe)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// writePump асинхронно отправляет сообщения клиенту
func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрыт
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend ставит сообщение в очередь клиента, не блокируясь. Закрытый клиент пропускается.
func (h *Hub) trySend(client *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.id]; !ok {
		return false
	}
	select {
	case client.send <- frame:
		return true
	default:
		return false
	}
}

// PublishSnapshot рассылает снимок всем клиентам. Клиент с полным буфером пропускает кадр.
func (h *Hub) PublishSnapshot(ctx context.Context, snap *world.Snapshot, delta world.Delta) error {
	entities, err := json.Marshal(snap.Entities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		playerID, _ := h.world.PlayerID(client.id)
		frame, err := json.Marshal(SnapshotMessage{
			Type:     MsgTypeSnapshot,
			Tick:     snap.Tick,
			MapID:    snap.MapID,
			PlayerID: playerID,
			Entities: entities,
			Removed:  delta.Removed,
		})
		if err != nil {
			return fmt.Errorf("encode snapshot for %s: %w", client.id, err)
		}

		select {
		case client.send <- frame:
			h.metrics.framesSent.Inc()
		default:
			h.metrics.framesDropped.Inc()
		}
	}
	return nil
}

// Close закрывает все соединения. Игроки не удаляются: мир останавливается вместе с хабом.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
		h.metrics.connections.Dec()
	}
	return nil
}
