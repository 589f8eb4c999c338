package model

import "time"

// MaxCharacterSlots - 한 스튜디오에서 허용하는 최대 캐릭터 슬롯 수
const MaxCharacterSlots = 5

// DefaultOutputWidth - outputWidth 가 없거나 잘못된 경우 사용하는 다운로드 너비
const DefaultOutputWidth = 960

// PoolItem - 환경/캐릭터 풀에 저장된 프리셋 텍스트
type PoolItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PoolSet - 스튜디오의 전체 풀
// 캐릭터 풀은 캐릭터가 아니라 슬롯 위치(index)로 키잉됨
type PoolSet struct {
	Environment []PoolItem         `json:"environment"`
	Characters  map[int][]PoolItem `json:"characters"`
}

// SceneConfig - 게이트웨이로 전달되는 씬 파라미터 (값 타입)
type SceneConfig struct {
	FilmStyle     string `json:"filmStyle"`
	TimeOfDay     string `json:"timeOfDay"`
	CameraSetting string `json:"cameraSetting"`
	Environment   string `json:"environment"`
	AspectRatio   string `json:"aspectRatio"`
	Resolution    string `json:"resolution"`
	OutputWidth   int    `json:"outputWidth"`
}

// ImageData - 캐릭터 슬롯에 첨부된 레퍼런스 이미지 원본
type ImageData struct {
	Data     []byte
	MimeType string
}

// CharacterSlot - 위치 기반 캐릭터 정의
// ID/Name 은 슬롯 위치에서 파생되며 앞 슬롯이 삭제되면 다시 매겨짐
type CharacterSlot struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Prompt    string     `json:"prompt"`
	Image     *ImageData `json:"-"`
	PreviewID string     `json:"previewId,omitempty"`
}

// HasImage - 레퍼런스 이미지 첨부 여부
func (c CharacterSlot) HasImage() bool {
	return c.Image != nil && len(c.Image.Data) > 0
}

// IsActive - 프롬프트나 이미지가 있으면 생성에 참여
func (c CharacterSlot) IsActive() bool {
	return c.Prompt != "" || c.HasImage()
}

// GenerationRequest - 게이트웨이 호출 1회분 요청
type GenerationRequest struct {
	Scene      SceneConfig
	Characters []CharacterSlot
}

// RenderedImage - 게이트웨이가 반환한 이미지
type RenderedImage struct {
	Data     []byte
	MimeType string
	Prompt   string
}

// GenerationResult - 히스토리 항목 (추가 후 변경 불가)
type GenerationResult struct {
	ID          string      `json:"id"`
	Image       []byte      `json:"-"`
	MimeType    string      `json:"mimeType"`
	Timestamp   time.Time   `json:"timestamp"`
	SourceLabel string      `json:"sourceLabel"`
	Config      SceneConfig `json:"config"`
}

const (
	SourceManual = "Manual Composition"
	SourceMixFmt = "MIX: %s..."
)
