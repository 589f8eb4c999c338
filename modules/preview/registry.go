package preview

import (
	"log"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"cinecompose-server/modules/common/model"
)

// Registry - 캐릭터 레퍼런스 이미지 미리보기 핸들 저장소
// 핸들은 만료되지 않고, 소유한 슬롯이 Release 할 때만 사라짐
type Registry struct {
	items *cache.Cache
}

// NewRegistry - 빈 레지스트리 생성
func NewRegistry() *Registry {
	return &Registry{
		items: cache.New(cache.NoExpiration, 0),
	}
}

// Acquire - 이미지 복사본을 등록하고 preview id 반환
func (r *Registry) Acquire(img *model.ImageData) string {
	id := uuid.New().String()
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	r.items.Set(id, model.ImageData{Data: data, MimeType: img.MimeType}, cache.NoExpiration)
	return id
}

// Release - 핸들 해제. 빈 id 나 이미 해제된 id 는 false
func (r *Registry) Release(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := r.items.Get(id); !ok {
		log.Printf("⚠️  [Preview] Release of unknown handle %s", id)
		return false
	}
	r.items.Delete(id)
	return true
}

// Get - 핸들로 이미지 조회
func (r *Registry) Get(id string) (model.ImageData, bool) {
	v, ok := r.items.Get(id)
	if !ok {
		return model.ImageData{}, false
	}
	return v.(model.ImageData), true
}

// Count - 살아있는 핸들 수
func (r *Registry) Count() int {
	return r.items.ItemCount()
}

// ReleaseAll - 모든 핸들 해제, 해제된 개수 반환
func (r *Registry) ReleaseAll() int {
	n := r.items.ItemCount()
	r.items.Flush()
	return n
}
