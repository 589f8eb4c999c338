package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"cinecompose-server/modules/common/model"
)

const (
	// popTimeout - BRPOP 1회 대기 시간 (종료 신호 확인 주기)
	popTimeout = 5 * time.Second
	retryDelay = 5 * time.Second
)

// Queue - 트리거 큐 읽기 (*redis.Client)
type Queue interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Dispatcher - 트리거를 실행할 스튜디오 (studio.Service)
type Dispatcher interface {
	GenerateManual(ctx context.Context) (*model.GenerationResult, error)
	MixOnce(ctx context.Context) (*model.GenerationResult, error)
}

// Worker - Redis 트리거 큐 소비자
// 트리거는 한 번에 하나씩 순서대로 실행
type Worker struct {
	queue      Queue
	studio     Dispatcher
	limiter    *rate.Limiter
	retryDelay time.Duration
}

// NewWorker - minInterval 간격으로 트리거를 처리하는 Worker 생성
func NewWorker(queue Queue, studio Dispatcher, minInterval time.Duration) *Worker {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Worker{
		queue:      queue,
		studio:     studio,
		limiter:    rate.NewLimiter(limit, 1),
		retryDelay: retryDelay,
	}
}

// Run - ctx 가 끝날 때까지 큐 감시
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("👀 [Worker] Watching queue: %s", QueueName)

	for {
		if ctx.Err() != nil {
			log.Println("🛑 [Worker] Stopped")
			return nil
		}

		result, err := w.queue.BRPop(ctx, popTimeout, QueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			log.Printf("❌ [Worker] Redis BRPOP error: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
			continue
		}

		// result[0] 은 큐 이름, result[1] 이 payload
		if len(result) < 2 {
			continue
		}

		if err := w.limiter.Wait(ctx); err != nil {
			continue
		}
		if err := w.Handle(ctx, result[1]); err != nil {
			log.Printf("❌ [Worker] Trigger failed: %v", err)
		}
	}
}

// Handle - payload 1건 실행
func (w *Worker) Handle(ctx context.Context, payload string) error {
	trigger, err := ParseTrigger(payload)
	if err != nil {
		return err
	}

	log.Printf("🎯 [Worker] Received trigger: %s (%s)", trigger.Action, trigger.ID)

	var result *model.GenerationResult
	switch trigger.Action {
	case ActionRender:
		result, err = w.studio.GenerateManual(ctx)
	case ActionMix:
		result, err = w.studio.MixOnce(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s trigger: %w", trigger.Action, err)
	}

	log.Printf("✅ [Worker] Trigger %s completed: %s", trigger.Action, result.ID)
	return nil
}
