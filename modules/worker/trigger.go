package worker

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QueueName - 외부 트리거 Redis 리스트 키
const QueueName = "cinecompose:triggers"

// 트리거 액션
const (
	ActionRender = "render" // 현재 씬 그대로 수동 생성
	ActionMix    = "mix"    // 풀에서 무작위 믹스 1회
)

// Trigger - 큐에 쌓이는 트리거 메시지
type Trigger struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	RequestedAt int64  `json:"requestedAt"`
}

// ValidAction - 지원하는 액션인지 확인
func ValidAction(action string) bool {
	return action == ActionRender || action == ActionMix
}

// ParseTrigger - 큐 payload 파싱
// JSON 이 아니면 payload 자체를 액션 이름으로 취급 (redis-cli LPUSH 편의용)
func ParseTrigger(payload string) (Trigger, error) {
	var t Trigger
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &t); err != nil {
			return Trigger{}, fmt.Errorf("invalid trigger payload: %w", err)
		}
	} else {
		t.Action = trimmed
	}

	t.Action = strings.ToLower(strings.TrimSpace(t.Action))
	if !ValidAction(t.Action) {
		return Trigger{}, fmt.Errorf("unknown trigger action: %q", t.Action)
	}
	return t, nil
}
