package automation

import (
	"context"
	"sync"
	"time"
)

// fakeTimer - 수동으로 발사하는 타이머
type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler - 예약된 타이머를 기록만 함
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// pending - 아직 취소/발사되지 않은 타이머
func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (s *fakeScheduler) all() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTimer(nil), s.timers...)
}

// fireAt - 취소 여부와 관계없이 콜백 실행 (늦게 도착한 콜백 재현용)
func (t *fakeTimer) fireAt() {
	t.fired = true
	t.f()
}

// fakeRunner - 호출 횟수를 세고 지정된 결과를 반환
type fakeRunner struct {
	calls  int
	errs   []error
	during func()
}

func (r *fakeRunner) RunAutomated(ctx context.Context) error {
	r.calls++
	if r.during != nil {
		r.during()
	}
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

// seqRandom - 정해진 순서대로 index 반환
type seqRandom struct {
	picks []int
	calls []int
}

func (r *seqRandom) Intn(n int) int {
	r.calls = append(r.calls, n)
	if len(r.picks) == 0 {
		return 0
	}
	p := r.picks[0]
	r.picks = r.picks[1:]
	return p % n
}
