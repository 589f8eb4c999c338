package automation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cinecompose-server/modules/common/model"
)

// DefaultDelay - 자동 생성 간격
const DefaultDelay = 3000 * time.Millisecond

// State - 자동화 루프 상태
type State int

const (
	Idle          State = iota // 루프 꺼짐
	Armed                      // 루프 켜짐, 예약된 타이머 없음
	WaitingToFire              // 타이머 대기 중
	Firing                     // 믹스 + 생성 진행 중
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case WaitingToFire:
		return "waiting"
	case Firing:
		return "firing"
	default:
		return "unknown"
	}
}

// Runner - 믹스 + 생성 1회 실행 (완료까지 블로킹)
type Runner interface {
	RunAutomated(ctx context.Context) error
}

// Options - Controller 생성 옵션
type Options struct {
	Delay     time.Duration
	Scheduler Scheduler
	// InFlight - 다른 생성이 진행 중인지 (수동 생성 포함)
	InFlight func() bool
	// OnStateChange / OnSafetyStop 은 controller 락 밖에서 호출됨
	OnStateChange func(State)
	OnSafetyStop  func(error)
}

// Controller - 자동화 루프 상태 머신
// 락 순서: Controller → Runner 쪽 상태. Runner 는 자기 락을 잡은 채로 Controller 를 호출하면 안 됨
type Controller struct {
	mu    sync.Mutex
	state State
	timer Timer
	// seq - 타이머 세대. 취소된 타이머 콜백이 늦게 도착해도 무시하기 위함
	seq uint64
	// pendingErr - Firing 중에 끝난 다른 생성의 실패. fire 가 마무리할 때 safety stop
	pendingErr error

	ctx           context.Context
	runner        Runner
	delay         time.Duration
	scheduler     Scheduler
	inFlight      func() bool
	onStateChange func(State)
	onSafetyStop  func(error)
}

// NewController - 자동화 컨트롤러 생성
func NewController(ctx context.Context, runner Runner, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.InFlight == nil {
		opts.InFlight = func() bool { return false }
	}
	return &Controller{
		ctx:           ctx,
		runner:        runner,
		delay:         opts.Delay,
		scheduler:     opts.Scheduler,
		inFlight:      opts.InFlight,
		onStateChange: opts.OnStateChange,
		onSafetyStop:  opts.OnSafetyStop,
	}
}

// State - 현재 상태
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Looping - 루프가 켜져 있는지 (Idle 이 아니면 looping)
func (c *Controller) Looping() bool {
	return c.State() != Idle
}

// Delay - 발사 간격
func (c *Controller) Delay() time.Duration {
	return c.delay
}

// Ready - 루프를 켤 수 있는 풀 구성인지 검사
// 환경 풀이 비어있지 않고, 현재 존재하는 슬롯 중 하나 이상에 풀이 있어야 함
func Ready(pools model.PoolSet, slotCount int) error {
	if len(pools.Environment) == 0 {
		return model.ErrAutomationNotConfigured
	}
	for i := 0; i < slotCount; i++ {
		if len(pools.Characters[i]) > 0 {
			return nil
		}
	}
	return model.ErrAutomationNotConfigured
}

// Arm - 루프 시작. 이미 켜져 있으면 no-op
func (c *Controller) Arm(pools model.PoolSet, slotCount int) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil
	}
	if err := Ready(pools, slotCount); err != nil {
		c.mu.Unlock()
		return err
	}

	c.state = Armed
	c.scheduleLocked()
	cur := c.state
	c.mu.Unlock()

	log.Printf("🔁 [Automation] Loop armed (delay: %v)", c.delay)
	c.emit(Idle, cur, nil)
	return nil
}

// Stop - 어떤 상태에서든 타이머 취소 후 Idle
// 진행 중인 생성은 끝까지 실행되고 기록되지만 다음 타이머는 예약되지 않음
func (c *Controller) Stop() {
	c.mu.Lock()
	prev := c.state
	c.stopLocked()
	c.mu.Unlock()

	if prev != Idle {
		log.Printf("⏹️  [Automation] Loop stopped (was %s)", prev)
	}
	c.emit(prev, Idle, nil)
}

// GenerationStarted - 수동/믹스 생성 시작 알림. 대기 중인 타이머는 취소
func (c *Controller) GenerationStarted() {
	c.mu.Lock()
	prev := c.state
	if c.state == WaitingToFire {
		c.cancelTimerLocked()
		c.state = Armed
	}
	cur := c.state
	c.mu.Unlock()

	c.emit(prev, cur, nil)
}

// GenerationFinished - 생성 종료 알림
// 루프가 켜진 상태에서 실패하면 safety stop, 성공하면 다음 발사 예약
func (c *Controller) GenerationFinished(err error) {
	c.mu.Lock()
	prev := c.state
	if c.state == Firing {
		// 결과는 fire 에서 처리
		if err != nil && c.pendingErr == nil {
			c.pendingErr = err
		}
		c.mu.Unlock()
		return
	}
	if c.state != Armed {
		c.mu.Unlock()
		return
	}

	var stopErr error
	if err != nil {
		c.stopLocked()
		stopErr = err
	} else {
		c.scheduleLocked()
	}
	cur := c.state
	c.mu.Unlock()

	if stopErr != nil {
		log.Printf("🛑 [Automation] Safety stop after generation failure: %v", stopErr)
	}
	c.emit(prev, cur, stopErr)
}

// scheduleLocked - Armed 이고 진행 중인 생성이 없을 때만 타이머 1개 예약
func (c *Controller) scheduleLocked() {
	if c.state != Armed || c.inFlight() {
		return
	}

	c.cancelTimerLocked()
	seq := c.seq
	c.timer = c.scheduler.AfterFunc(c.delay, func() {
		c.fire(seq)
	})
	c.state = WaitingToFire
}

func (c *Controller) cancelTimerLocked() {
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) stopLocked() {
	c.cancelTimerLocked()
	c.state = Idle
	c.pendingErr = nil
}

// fire - 타이머 콜백
func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if seq != c.seq || c.state != WaitingToFire {
		// 취소된 타이머
		c.mu.Unlock()
		return
	}
	c.timer = nil

	if c.inFlight() {
		// 진행 중인 생성이 끝나면 GenerationFinished 가 다시 예약함
		c.state = Armed
		c.mu.Unlock()
		c.emit(WaitingToFire, Armed, nil)
		return
	}
	c.state = Firing
	c.mu.Unlock()
	c.emit(WaitingToFire, Firing, nil)

	log.Printf("🎲 [Automation] Firing automated mix")
	err := c.runner.RunAutomated(c.ctx)

	c.mu.Lock()
	if c.state != Firing || c.seq != seq {
		// 실행 중에 Stop 됨: 결과는 기록됐고 재예약 없음
		c.mu.Unlock()
		return
	}

	if c.pendingErr != nil && (err == nil || errors.Is(err, model.ErrGenerationInFlight)) {
		err = c.pendingErr
	}
	c.pendingErr = nil

	var stopErr error
	switch {
	case err == nil:
		c.state = Armed
		c.scheduleLocked()
	case errors.Is(err, model.ErrGenerationInFlight):
		// 수동 생성과 경합, 그 생성이 끝난 뒤 재예약
		c.state = Armed
		c.scheduleLocked()
	default:
		c.stopLocked()
		stopErr = err
	}
	cur := c.state
	c.mu.Unlock()

	if stopErr != nil {
		log.Printf("🛑 [Automation] Safety stop: %v", stopErr)
	}
	c.emit(Firing, cur, stopErr)
}

func (c *Controller) emit(prev, cur State, stopErr error) {
	if prev != cur && c.onStateChange != nil {
		c.onStateChange(cur)
	}
	if stopErr != nil && c.onSafetyStop != nil {
		c.onSafetyStop(stopErr)
	}
}
