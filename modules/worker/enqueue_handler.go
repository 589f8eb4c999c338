package worker

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

// Pusher - 트리거 큐 쓰기 (*redis.Client)
type Pusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// EnqueueHandler - POST /api/triggers
type EnqueueHandler struct {
	rdb Pusher
	now func() time.Time
}

// EnqueueRequest - Enqueue 요청
type EnqueueRequest struct {
	Action string `json:"action"`
}

// EnqueueResponse - Enqueue 응답
type EnqueueResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	TriggerID     string `json:"triggerId,omitempty"`
	Queue         string `json:"queue,omitempty"`
	QueuePosition int64  `json:"queuePosition,omitempty"`
}

// NewEnqueueHandler - EnqueueHandler 생성
func NewEnqueueHandler(rdb Pusher) *EnqueueHandler {
	return &EnqueueHandler{rdb: rdb, now: time.Now}
}

// RegisterRoutes - 라우트 등록
func (h *EnqueueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/triggers", h.HandleEnqueue).Methods("POST", "OPTIONS")
	log.Println("✅ Trigger routes registered: /api/triggers")
}

// HandleEnqueue - 트리거를 큐에 LPUSH
func (h *EnqueueHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Worker] Invalid trigger request: %v", err)
		writeResponse(w, http.StatusBadRequest, EnqueueResponse{Success: false, Error: "Invalid request body"})
		return
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	if !ValidAction(action) {
		writeResponse(w, http.StatusBadRequest, EnqueueResponse{Success: false, Error: "action must be render or mix"})
		return
	}

	trigger := Trigger{
		ID:          uuid.New().String(),
		Action:      action,
		RequestedAt: h.now().UnixMilli(),
	}
	payload, err := json.Marshal(trigger)
	if err != nil {
		writeResponse(w, http.StatusInternalServerError, EnqueueResponse{Success: false, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.rdb.LPush(ctx, QueueName, payload).Err(); err != nil {
		log.Printf("❌ [Worker] Redis LPUSH failed: %v", err)
		writeResponse(w, http.StatusServiceUnavailable, EnqueueResponse{Success: false, Error: err.Error()})
		return
	}

	queueLen, _ := h.rdb.LLen(ctx, QueueName).Result()
	log.Printf("📥 [Worker] Trigger %s (%s) enqueued (position: %d)", trigger.ID, action, queueLen)

	writeResponse(w, http.StatusAccepted, EnqueueResponse{
		Success:       true,
		Message:       "Trigger enqueued successfully",
		TriggerID:     trigger.ID,
		Queue:         QueueName,
		QueuePosition: queueLen,
	})
}

func writeResponse(w http.ResponseWriter, status int, resp EnqueueResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
