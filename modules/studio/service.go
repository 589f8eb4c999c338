package studio

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cinecompose-server/modules/automation"
	"cinecompose-server/modules/common/model"
	"cinecompose-server/modules/events"
	"cinecompose-server/modules/pool"
	"cinecompose-server/modules/preview"
)

// 사용자에게 보여주는 에러 메시지
const (
	msgEmptyEnvironment = "Please describe the environment first."
	msgGenerationFailed = "Failed to generate scene."
	msgAutoMixEmptyPool = "Auto-Mix Error: Environment pool is empty."
)

// Gateway - 이미지 생성 게이트웨이 (cinema.Service)
type Gateway interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*model.RenderedImage, error)
}

// Archiver - 생성 결과 외부 보관 (선택)
type Archiver interface {
	Archive(ctx context.Context, result model.GenerationResult) error
}

// Options - Service 생성 옵션
type Options struct {
	Gateway   Gateway
	Publisher events.Publisher
	Archiver  Archiver
	Previews  *preview.Registry
	Pools     *pool.Store

	AutomationDelay time.Duration
	RequestTimeout  time.Duration
	Scheduler       automation.Scheduler
	Random          automation.RandomSource
	Now             func() time.Time
}

// Service - 단일 세션 스튜디오 상태 + 생성 오케스트레이션
// 락 순서: automation.Controller → Service.mu. mu 를 잡은 채로 loop 를 호출하지 않음
type Service struct {
	mu         sync.Mutex
	scene      model.SceneConfig
	slots      []model.CharacterSlot
	history    []model.GenerationResult
	generating bool
	lastError  string
	selectedID string
	random     automation.RandomSource // mu 안에서만 사용

	pools     *pool.Store
	previews  *preview.Registry
	gateway   Gateway
	loop      *automation.Controller
	publisher events.Publisher
	archiver  Archiver
	now       func() time.Time
	timeout   time.Duration
	archiveWG sync.WaitGroup
	closed    bool // Close 이후 새 아카이브 거부 (mu 보호)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// NewService - 기본 씬 + 캐릭터 1개로 스튜디오 생성
func NewService(opts Options) *Service {
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	if opts.Previews == nil {
		opts.Previews = preview.NewRegistry()
	}
	if opts.Pools == nil {
		opts.Pools = pool.NewStore()
	}
	if opts.Random == nil {
		opts.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 180 * time.Second
	}

	s := &Service{
		scene:     model.DefaultSceneConfig(),
		slots:     []model.CharacterSlot{model.NewCharacterSlot(1)},
		random:    opts.Random,
		pools:     opts.Pools,
		previews:  opts.Previews,
		gateway:   opts.Gateway,
		publisher: opts.Publisher,
		archiver:  opts.Archiver,
		now:       opts.Now,
		timeout:   opts.RequestTimeout,
	}

	s.loop = automation.NewController(context.Background(), s, automation.Options{
		Delay:     opts.AutomationDelay,
		Scheduler: opts.Scheduler,
		InFlight:  s.IsGenerating,
		OnStateChange: func(st automation.State) {
			s.publisher.Publish(events.AutomationState, s.automationStatus(st))
		},
		OnSafetyStop: func(err error) {
			s.publisher.Publish(events.SafetyStop, map[string]string{"error": err.Error()})
		},
	})

	return s
}

// Previews - 미리보기 레지스트리 (preview 핸들러와 공유)
func (s *Service) Previews() *preview.Registry {
	return s.previews
}

// Loop - 자동화 컨트롤러
func (s *Service) Loop() *automation.Controller {
	return s.loop
}

// IsGenerating - 생성 진행 중 여부
func (s *Service) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// ===== Scene =====

// SetSceneField - 씬 필드 하나 교체
func (s *Service) SetSceneField(field, value string) error {
	s.mu.Lock()
	switch field {
	case "filmStyle":
		s.scene.FilmStyle = value
	case "timeOfDay":
		s.scene.TimeOfDay = value
	case "cameraSetting":
		s.scene.CameraSetting = value
	case "environment":
		s.scene.Environment = value
	case "aspectRatio":
		s.scene.AspectRatio = value
	case "resolution":
		s.scene.Resolution = value
	case "outputWidth":
		s.scene.OutputWidth = parseOutputWidth(value)
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", model.ErrUnknownSceneField, field)
	}
	s.mu.Unlock()

	s.publishState()
	return nil
}

// UpdateScene - 씬 전체 교체
func (s *Service) UpdateScene(scene model.SceneConfig) {
	if scene.OutputWidth <= 0 {
		scene.OutputWidth = model.DefaultOutputWidth
	}

	s.mu.Lock()
	s.scene = scene
	s.mu.Unlock()

	s.publishState()
}

// Scene - 현재 씬 복사본
func (s *Service) Scene() model.SceneConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

func parseOutputWidth(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return model.DefaultOutputWidth
	}
	return n
}

// ===== Characters =====

// AddCharacterSlot - 슬롯 추가 (최대 5개)
func (s *Service) AddCharacterSlot() (model.CharacterSlot, error) {
	s.mu.Lock()
	if len(s.slots) >= model.MaxCharacterSlots {
		s.mu.Unlock()
		return model.CharacterSlot{}, model.ErrSlotLimitReached
	}
	slot := model.NewCharacterSlot(len(s.slots) + 1)
	s.slots = append(s.slots, slot)
	s.mu.Unlock()

	s.publishState()
	return slot, nil
}

// RemoveCharacterSlot - 슬롯 삭제 후 뒤 슬롯 번호 재부여. 풀은 건드리지 않음
func (s *Service) RemoveCharacterSlot(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.slots) {
		s.mu.Unlock()
		return model.ErrSlotIndexOutOfRange
	}

	s.previews.Release(s.slots[index].PreviewID)

	slots := make([]model.CharacterSlot, 0, len(s.slots)-1)
	slots = append(slots, s.slots[:index]...)
	slots = append(slots, s.slots[index+1:]...)
	for i := range slots {
		slots[i].ID = i + 1
		slots[i].Name = model.NewCharacterSlot(i + 1).Name
	}
	s.slots = slots
	s.mu.Unlock()

	s.publishState()
	return nil
}

// SetCharacterPrompt - 슬롯 프롬프트 교체
func (s *Service) SetCharacterPrompt(index int, prompt string) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.slots) {
		s.mu.Unlock()
		return model.ErrSlotIndexOutOfRange
	}
	s.slots[index].Prompt = prompt
	s.mu.Unlock()

	s.publishState()
	return nil
}

// SetCharacterImage - 레퍼런스 이미지 교체 (nil 이면 제거)
// 이전 미리보기 핸들을 먼저 해제한 뒤 새 핸들 발급
func (s *Service) SetCharacterImage(index int, img *model.ImageData) (string, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.slots) {
		s.mu.Unlock()
		return "", model.ErrSlotIndexOutOfRange
	}

	slot := &s.slots[index]
	s.previews.Release(slot.PreviewID)
	slot.Image = nil
	slot.PreviewID = ""

	if img != nil && len(img.Data) > 0 {
		data := make([]byte, len(img.Data))
		copy(data, img.Data)
		slot.Image = &model.ImageData{Data: data, MimeType: img.MimeType}
		slot.PreviewID = s.previews.Acquire(slot.Image)
	}
	previewID := slot.PreviewID
	s.mu.Unlock()

	s.publishState()
	return previewID, nil
}

// Characters - 슬롯 복사본
func (s *Service) Characters() []model.CharacterSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlots(s.slots)
}

func cloneSlots(slots []model.CharacterSlot) []model.CharacterSlot {
	out := make([]model.CharacterSlot, len(slots))
	copy(out, slots)
	return out
}

// ===== Pools =====

// AddPoolItem - 풀에 항목 추가 (공백만 있으면 무시)
func (s *Service) AddPoolItem(key pool.Key, text string) (model.PoolItem, bool) {
	item, ok := s.pools.Add(key, text)
	if ok {
		s.publishState()
	}
	return item, ok
}

// RemovePoolItem - 풀 항목 삭제
func (s *Service) RemovePoolItem(key pool.Key, id string) bool {
	removed := s.pools.Remove(key, id)
	if removed {
		s.publishState()
	}
	return removed
}

// Pools - 전체 풀 복사본
func (s *Service) Pools() model.PoolSet {
	return s.pools.Snapshot()
}

// ===== Generation =====

// GenerateManual - 현재 씬/슬롯 그대로 생성 ("Manual Composition")
func (s *Service) GenerateManual(ctx context.Context) (*model.GenerationResult, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return nil, model.ErrGenerationInFlight
	}
	if strings.TrimSpace(s.scene.Environment) == "" {
		s.lastError = msgEmptyEnvironment
		s.mu.Unlock()
		s.publishState()
		return nil, model.ErrEmptyEnvironment
	}
	req := s.beginLocked()
	s.mu.Unlock()

	return s.execute(ctx, req, model.SourceManual)
}

// MixOnce - 루프 밖에서 무작위 믹스 1회
func (s *Service) MixOnce(ctx context.Context) (*model.GenerationResult, error) {
	if s.loop.Looping() {
		return nil, model.ErrAutomationActive
	}
	return s.mixAndExecute(ctx)
}

// RunAutomated - 자동화 루프의 발사 1회 (automation.Runner)
func (s *Service) RunAutomated(ctx context.Context) error {
	_, err := s.mixAndExecute(ctx)
	return err
}

// mixAndExecute - 믹스 결과를 씬/슬롯에 반영한 뒤 생성
func (s *Service) mixAndExecute(ctx context.Context) (*model.GenerationResult, error) {
	pools := s.pools.Snapshot()

	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return nil, model.ErrGenerationInFlight
	}

	mix, err := automation.Mix(s.random, pools.Environment, s.slots, pools.Characters)
	if err != nil {
		s.lastError = msgAutoMixEmptyPool
		s.mu.Unlock()
		log.Printf("❌ [Studio] %s", msgAutoMixEmptyPool)
		s.publisher.Publish(events.GenerationFailed, map[string]string{"error": msgAutoMixEmptyPool})
		return nil, err
	}

	s.scene.Environment = mix.Environment
	s.slots = mix.Characters
	req := s.beginLocked()
	s.mu.Unlock()

	log.Printf("🎲 [Studio] Mixed scene: %s", mix.Label())
	s.publishState()
	return s.execute(ctx, req, mix.Label())
}

// beginLocked - 생성 시작 표시 후 요청 스냅샷 반환 (mu 보유 상태에서 호출)
func (s *Service) beginLocked() model.GenerationRequest {
	s.generating = true
	s.lastError = ""
	s.selectedID = ""
	return model.GenerationRequest{
		Scene:      s.scene,
		Characters: cloneSlots(s.slots),
	}
}

// execute - 게이트웨이 호출 1회 + 히스토리 기록
// 요청 컨텍스트가 끊겨도 생성은 끝까지 진행 (timeout 만 적용)
func (s *Service) execute(ctx context.Context, req model.GenerationRequest, label string) (*model.GenerationResult, error) {
	s.loop.GenerationStarted()
	s.publisher.Publish(events.GenerationStarted, map[string]string{"sourceLabel": label})
	log.Printf("🎬 [Studio] Generation started: %s", label)

	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	img, err := s.gateway.Generate(genCtx, req)
	cancel()

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = msgGenerationFailed
		}

		s.mu.Lock()
		s.generating = false
		s.lastError = msg
		s.mu.Unlock()

		log.Printf("❌ [Studio] Generation failed (%s): %v", label, err)
		s.publisher.Publish(events.GenerationFailed, map[string]string{"sourceLabel": label, "error": msg})
		s.loop.GenerationFinished(err)
		return nil, fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}

	result := model.GenerationResult{
		ID:          uuid.New().String(),
		Image:       img.Data,
		MimeType:    img.MimeType,
		Timestamp:   s.now(),
		SourceLabel: label,
		Config:      req.Scene,
	}

	s.mu.Lock()
	s.generating = false
	s.history = append(s.history, result)
	s.selectedID = result.ID
	s.mu.Unlock()

	log.Printf("✅ [Studio] Generation completed: %s (%s, %d bytes)", label, result.ID, len(result.Image))
	s.publisher.Publish(events.GenerationCompleted, result)
	s.archive(result)
	s.loop.GenerationFinished(nil)
	return &result, nil
}

// archive - 결과를 비동기로 외부 보관 (실패해도 세션에는 영향 없음)
func (s *Service) archive(result model.GenerationResult) {
	if s.archiver == nil {
		return
	}

	// Add 는 mu 안에서만, Close 의 Wait 이후에는 호출되지 않음
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Printf("⚠️  [Archive] Skipped %s: studio closed", result.ID)
		return
	}
	s.archiveWG.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.archiveWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.archiver.Archive(ctx, result); err != nil {
			log.Printf("⚠️  [Archive] Failed to archive %s: %v", result.ID, err)
		}
	}()
}

// ===== Automation =====

// StartLoop - 자동화 루프 시작
func (s *Service) StartLoop() error {
	pools := s.pools.Snapshot()
	s.mu.Lock()
	slotCount := len(s.slots)
	s.mu.Unlock()

	return s.loop.Arm(pools, slotCount)
}

// StopLoop - 자동화 루프 정지
func (s *Service) StopLoop() {
	s.loop.Stop()
}

// AutomationStatus - 자동화 상태 응답
type AutomationStatus struct {
	Looping bool   `json:"isLooping"`
	State   string `json:"state"`
	DelayMs int64  `json:"delayMs"`
}

// Automation - 현재 자동화 상태
func (s *Service) Automation() AutomationStatus {
	return s.automationStatus(s.loop.State())
}

func (s *Service) automationStatus(st automation.State) AutomationStatus {
	return AutomationStatus{
		Looping: st != automation.Idle,
		State:   st.String(),
		DelayMs: s.loop.Delay().Milliseconds(),
	}
}

// ===== History =====

// History - 생성 결과 목록 (완료 순서)
func (s *Service) History() []model.GenerationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.GenerationResult, len(s.history))
	copy(out, s.history)
	return out
}

// Result - id 로 결과 조회
func (s *Service) Result(id string) (model.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.history {
		if r.ID == id {
			return r, nil
		}
	}
	return model.GenerationResult{}, model.ErrResultNotFound
}

// ===== Snapshot =====

// Snapshot - 전체 상태 응답
type Snapshot struct {
	Scene      model.SceneConfig        `json:"sceneConfig"`
	Characters []model.CharacterSlot    `json:"characters"`
	Pools      model.PoolSet            `json:"pools"`
	Generating bool                     `json:"isGenerating"`
	Error      string                   `json:"error,omitempty"`
	SelectedID string                   `json:"selectedResultId,omitempty"`
	Automation AutomationStatus         `json:"automation"`
	History    []model.GenerationResult `json:"history"`
}

// Snapshot - 현재 상태 전체 복사본
func (s *Service) Snapshot() Snapshot {
	// loop 를 먼저 조회 (락 순서)
	automationStatus := s.Automation()
	pools := s.pools.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]model.GenerationResult, len(s.history))
	copy(history, s.history)
	return Snapshot{
		Scene:      s.scene,
		Characters: cloneSlots(s.slots),
		Pools:      pools,
		Generating: s.generating,
		Error:      s.lastError,
		SelectedID: s.selectedID,
		Automation: automationStatus,
		History:    history,
	}
}

func (s *Service) publishState() {
	s.publisher.Publish(events.StateChanged, nil)
}

// Close - 루프 정지, 모든 미리보기 해제, 아카이브 대기
func (s *Service) Close() {
	s.loop.Stop()

	s.mu.Lock()
	s.closed = true
	for i := range s.slots {
		s.slots[i].PreviewID = ""
	}
	released := s.previews.ReleaseAll()
	s.mu.Unlock()

	s.archiveWG.Wait()
	log.Printf("🧹 [Studio] Closed (released %d previews)", released)
}
