package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cinecompose-server/modules/automation"
	"cinecompose-server/modules/common/model"
)

// fakeGateway - 요청을 기록하고 지정된 결과 반환
type fakeGateway struct {
	mu       sync.Mutex
	requests []model.GenerationRequest
	image    []byte
	err      error
	// block - 설정되면 닫힐 때까지 Generate 가 대기
	block   chan struct{}
	started chan struct{}
}

func (g *fakeGateway) Generate(ctx context.Context, req model.GenerationRequest) (*model.RenderedImage, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	block, started := g.block, g.started
	data, err := g.image, g.err
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte("rendered")
	}
	return &model.RenderedImage{Data: data, MimeType: "image/png", Prompt: "prompt"}, nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *fakeGateway) lastRequest() model.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

// recordingPublisher - 발행된 이벤트 타입 기록
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) has(eventType string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == eventType {
			return true
		}
	}
	return false
}

// fakeArchiver - 보관 요청 기록
type fakeArchiver struct {
	mu      sync.Mutex
	results []model.GenerationResult
}

func (a *fakeArchiver) Archive(ctx context.Context, result model.GenerationResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	return nil
}

// manualTimer / manualScheduler - 테스트에서 직접 발사하는 타이머
type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) automation.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) pending() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext - 대기 중인 첫 타이머 발사
func (s *manualScheduler) fireNext(t *testing.T) {
	t.Helper()
	pending := s.pending()
	require.NotEmpty(t, pending, "no pending timer")
	pending[0].fired = true
	pending[0].f()
}

type fixture struct {
	svc       *Service
	gateway   *fakeGateway
	publisher *recordingPublisher
	archiver  *fakeArchiver
	sched     *manualScheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gateway:   &fakeGateway{},
		publisher: &recordingPublisher{},
		archiver:  &fakeArchiver{},
		sched:     &manualScheduler{},
	}
	f.svc = NewService(Options{
		Gateway:         f.gateway,
		Publisher:       f.publisher,
		Archiver:        f.archiver,
		AutomationDelay: 3 * time.Second,
		RequestTimeout:  5 * time.Second,
		Scheduler:       f.sched,
		Random:          &firstPick{},
		Now:             func() time.Time { return time.UnixMilli(1700000000000) },
	})
	t.Cleanup(f.svc.Close)
	return f
}

// firstPick - 항상 첫 항목 선택
type firstPick struct{}

func (firstPick) Intn(n int) int { return 0 }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
