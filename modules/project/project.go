package project

import (
	"encoding/json"
	"fmt"
	"time"

	"cinecompose-server/modules/common/model"
)

// Version - 현재 프로젝트 파일 포맷 버전
const Version = "1.0"

// CharacterEntry - 파일에 저장되는 캐릭터 (이미지는 저장하지 않음)
type CharacterEntry struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Prompt     string  `json:"prompt"`
	Image      any     `json:"image"`
	PreviewURL *string `json:"previewUrl"`
}

// File - 프로젝트 파일 구조
type File struct {
	Version     string            `json:"version"`
	Timestamp   int64             `json:"timestamp"`
	SceneConfig model.SceneConfig `json:"sceneConfig"`
	Characters  []CharacterEntry  `json:"characters"`
	Pools       model.PoolSet     `json:"pools"`
}

// Imported - import 로 복원할 상태
type Imported struct {
	Version string
	Scene   model.SceneConfig
	Prompts []string
	// Pools - 파일에 pools 가 없으면 nil (기존 풀 유지)
	Pools *model.PoolSet
}

// Export - 현재 상태를 2칸 들여쓰기 JSON 으로 직렬화
func Export(scene model.SceneConfig, slots []model.CharacterSlot, pools model.PoolSet, now time.Time) ([]byte, error) {
	file := File{
		Version:     Version,
		Timestamp:   now.UnixMilli(),
		SceneConfig: scene,
		Characters:  make([]CharacterEntry, len(slots)),
		Pools:       pools,
	}
	for i, slot := range slots {
		file.Characters[i] = CharacterEntry{ID: slot.ID, Name: slot.Name, Prompt: slot.Prompt}
	}
	if file.Pools.Environment == nil {
		file.Pools.Environment = []model.PoolItem{}
	}
	if file.Pools.Characters == nil {
		file.Pools.Characters = map[int][]model.PoolItem{}
	}

	return json.MarshalIndent(file, "", "  ")
}

// FileName - 다운로드 파일명
func FileName(now time.Time) string {
	return fmt.Sprintf("cinecompose-project-%d.json", now.UnixMilli())
}

// rawFile - 필드 존재 여부 확인용
type rawFile struct {
	Version     *string         `json:"version"`
	SceneConfig json.RawMessage `json:"sceneConfig"`
	Characters  []struct {
		Prompt string `json:"prompt"`
	} `json:"characters"`
	Pools *struct {
		Environment []model.PoolItem         `json:"environment"`
		Characters  map[int][]model.PoolItem `json:"characters"`
	} `json:"pools"`
}

// Parse - 프로젝트 파일 검증 + 파싱
// version, sceneConfig 가 없으면 model.ErrInvalidProjectFile
func Parse(data []byte) (*Imported, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidProjectFile, err)
	}
	if raw.Version == nil || *raw.Version == "" {
		return nil, fmt.Errorf("%w: missing version", model.ErrInvalidProjectFile)
	}
	if len(raw.SceneConfig) == 0 || string(raw.SceneConfig) == "null" {
		return nil, fmt.Errorf("%w: missing sceneConfig", model.ErrInvalidProjectFile)
	}

	// 빠진 씬 필드는 기본값 유지
	scene := model.DefaultSceneConfig()
	if err := json.Unmarshal(raw.SceneConfig, &scene); err != nil {
		return nil, fmt.Errorf("%w: sceneConfig: %v", model.ErrInvalidProjectFile, err)
	}
	if scene.OutputWidth <= 0 {
		scene.OutputWidth = model.DefaultOutputWidth
	}

	imported := &Imported{
		Version: *raw.Version,
		Scene:   scene,
		Prompts: make([]string, 0, len(raw.Characters)),
	}
	for i, c := range raw.Characters {
		if i >= model.MaxCharacterSlots {
			break
		}
		imported.Prompts = append(imported.Prompts, c.Prompt)
	}

	if raw.Pools != nil {
		imported.Pools = &model.PoolSet{
			Environment: raw.Pools.Environment,
			Characters:  raw.Pools.Characters,
		}
		if imported.Pools.Environment == nil {
			imported.Pools.Environment = []model.PoolItem{}
		}
		if imported.Pools.Characters == nil {
			imported.Pools.Characters = map[int][]model.PoolItem{}
		}
	}

	return imported, nil
}
