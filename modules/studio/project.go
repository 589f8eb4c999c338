package studio

import (
	"log"

	"cinecompose-server/modules/common/model"
	"cinecompose-server/modules/events"
	"cinecompose-server/modules/project"
)

// ExportProject - 현재 씬/슬롯/풀을 프로젝트 파일로 직렬화 (파일명 포함)
func (s *Service) ExportProject() ([]byte, string, error) {
	pools := s.pools.Snapshot()

	s.mu.Lock()
	scene := s.scene
	slots := cloneSlots(s.slots)
	s.mu.Unlock()

	now := s.now()
	data, err := project.Export(scene, slots, pools, now)
	if err != nil {
		return nil, "", err
	}
	return data, project.FileName(now), nil
}

// ImportProject - 프로젝트 파일로 상태 교체
// 검증 실패 시 상태는 그대로. 성공 시 기존 미리보기 전부 해제, 이미지는 복원하지 않음
func (s *Service) ImportProject(data []byte) error {
	imported, err := project.Parse(data)
	if err != nil {
		log.Printf("❌ [Studio] Project import rejected: %v", err)
		return err
	}

	slots := make([]model.CharacterSlot, len(imported.Prompts))
	for i, prompt := range imported.Prompts {
		slots[i] = model.NewCharacterSlot(i + 1)
		slots[i].Prompt = prompt
	}

	s.mu.Lock()
	released := 0
	for _, slot := range s.slots {
		if s.previews.Release(slot.PreviewID) {
			released++
		}
	}
	s.scene = imported.Scene
	s.slots = slots
	s.mu.Unlock()

	if imported.Pools != nil {
		s.pools.Replace(*imported.Pools)
	}

	log.Printf("📂 [Studio] Project imported (version %s, %d characters, pools replaced: %v, previews released: %d)",
		imported.Version, len(slots), imported.Pools != nil, released)
	s.publisher.Publish(events.ProjectImported, map[string]any{
		"characters":    len(slots),
		"poolsReplaced": imported.Pools != nil,
	})
	s.publishState()
	return nil
}
