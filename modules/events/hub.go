package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 이벤트 타입
const (
	StateChanged        = "state_changed"
	GenerationStarted   = "generation_started"
	GenerationCompleted = "generation_completed"
	GenerationFailed    = "generation_failed"
	AutomationState     = "automation_state"
	SafetyStop          = "safety_stop"
	ProjectImported     = "project_imported"
)

// Publisher - 스튜디오 이벤트 발행 (논블로킹)
type Publisher interface {
	Publish(eventType string, data any)
}

// Event - WebSocket 으로 전송되는 메시지
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// 연결된 클라이언트
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub - 모든 WebSocket 클라이언트에게 이벤트 브로드캐스트
type Hub struct {
	mutex   sync.RWMutex
	clients map[*client]bool
	closed  bool
}

// NewHub - 빈 허브 생성
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Publish - 모든 클라이언트에게 전송, 버퍼가 가득 찬 클라이언트는 연결 해제
func (h *Hub) Publish(eventType string, data any) {
	messageBytes, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		log.Printf("❌ [Events] Error marshaling %s: %v", eventType, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		select {
		case c.send <- messageBytes:
		default:
			log.Printf("⚠️  [Events] Dropping slow client")
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// ClientCount - 연결된 클라이언트 수
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close - 모든 연결 종료
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.closed = true
}

// HandleWebSocket - /ws 핸들러
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Events] WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}

	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = true
	count := len(h.clients)
	h.mutex.Unlock()

	log.Printf("👤 [Events] Client connected from %s (clients: %d)", r.RemoteAddr, count)

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) remove(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// 클라이언트로부터 메시지 읽기 (수신 메시지는 무시, 연결 종료 감지용)
func (c *client) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  [Events] WebSocket error: %v", err)
			}
			return
		}
	}
}

// 클라이언트로 메시지 쓰기
func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("⚠️  [Events] WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
