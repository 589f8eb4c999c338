package automation

import "time"

// Timer - 취소 가능한 예약 작업
type Timer interface {
	Stop() bool
}

// Scheduler - 지연 실행 소스 (테스트에서 교체)
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler - time.AfterFunc 기반 스케줄러
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
