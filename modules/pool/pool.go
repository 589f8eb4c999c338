package pool

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cinecompose-server/modules/common/model"
)

// Key - 풀 식별자 (환경 풀 또는 슬롯 위치별 캐릭터 풀)
type Key struct {
	environment bool
	slot        int
}

// EnvironmentKey - 환경 풀 키
func EnvironmentKey() Key {
	return Key{environment: true}
}

// CharacterKey - 0부터 시작하는 슬롯 위치의 캐릭터 풀 키
func CharacterKey(slot int) Key {
	return Key{slot: slot}
}

func (k Key) String() string {
	if k.environment {
		return "environment"
	}
	return fmt.Sprintf("character[%d]", k.slot)
}

func (k Key) valid() bool {
	return k.environment || k.slot >= 0
}

// Store - 환경/캐릭터 풀 저장소
// 캐릭터 풀은 슬롯이 삭제되어도 남아있음 (위치 기반)
type Store struct {
	mu          sync.RWMutex
	environment []model.PoolItem
	characters  map[int][]model.PoolItem
}

// NewStore - 빈 풀 저장소 생성
func NewStore() *Store {
	return &Store{
		characters: make(map[int][]model.PoolItem),
	}
}

// Add - 풀에 항목 추가
// 공백만 있는 텍스트는 거부, 저장 시에는 원문 그대로 보관
func (s *Store) Add(key Key, text string) (model.PoolItem, bool) {
	if !key.valid() || strings.TrimSpace(text) == "" {
		return model.PoolItem{}, false
	}

	item := model.PoolItem{ID: uuid.New().String(), Text: text}

	s.mu.Lock()
	defer s.mu.Unlock()
	if key.environment {
		s.environment = append(s.environment, item)
	} else {
		s.characters[key.slot] = append(s.characters[key.slot], item)
	}
	return item, true
}

// Remove - id 로 항목 삭제, 없으면 false
func (s *Store) Remove(key Key, id string) bool {
	if !key.valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if key.environment {
		var removed bool
		s.environment, removed = without(s.environment, id)
		return removed
	}

	items, removed := without(s.characters[key.slot], id)
	if !removed {
		return false
	}
	if len(items) == 0 {
		delete(s.characters, key.slot)
	} else {
		s.characters[key.slot] = items
	}
	return true
}

// List - 풀 항목 복사본 (삽입 순서)
func (s *Store) List(key Key) []model.PoolItem {
	if !key.valid() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if key.environment {
		return clone(s.environment)
	}
	return clone(s.characters[key.slot])
}

// Snapshot - 전체 풀 복사본
func (s *Store) Snapshot() model.PoolSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := model.PoolSet{
		Environment: clone(s.environment),
		Characters:  make(map[int][]model.PoolItem, len(s.characters)),
	}
	if set.Environment == nil {
		set.Environment = []model.PoolItem{}
	}
	for slot, items := range s.characters {
		if len(items) > 0 {
			set.Characters[slot] = clone(items)
		}
	}
	return set
}

// Replace - 풀 전체 교체 (프로젝트 import 용)
// 빈 id 는 새로 발급, 중복 id 는 첫 항목만 유지
func (s *Store) Replace(set model.PoolSet) {
	// id 중복은 풀 단위로만 제거
	normalize := func(items []model.PoolItem) []model.PoolItem {
		seen := make(map[string]bool, len(items))
		out := make([]model.PoolItem, 0, len(items))
		for _, item := range items {
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			out = append(out, item)
		}
		return out
	}

	env := normalize(set.Environment)
	chars := make(map[int][]model.PoolItem, len(set.Characters))
	for slot, items := range set.Characters {
		if slot < 0 {
			continue
		}
		if normalized := normalize(items); len(normalized) > 0 {
			chars[slot] = normalized
		}
	}

	s.mu.Lock()
	s.environment = env
	s.characters = chars
	s.mu.Unlock()
}

// HasCharacterPool - slotCount 미만 슬롯 중 하나라도 비어있지 않은 풀이 있는지
func (s *Store) HasCharacterPool(slotCount int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for slot, items := range s.characters {
		if slot < slotCount && len(items) > 0 {
			return true
		}
	}
	return false
}

func without(items []model.PoolItem, id string) ([]model.PoolItem, bool) {
	for i, item := range items {
		if item.ID == id {
			out := make([]model.PoolItem, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}
	return items, false
}

func clone(items []model.PoolItem) []model.PoolItem {
	if items == nil {
		return nil
	}
	out := make([]model.PoolItem, len(items))
	copy(out, items)
	return out
}
