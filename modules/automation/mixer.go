package automation

import (
	"fmt"

	"cinecompose-server/modules/common/model"
)

// RandomSource - 균등 난수 소스 (*rand.Rand 호환)
type RandomSource interface {
	Intn(n int) int
}

// MixResult - 믹스 1회로 확정된 환경/캐릭터 구성
type MixResult struct {
	Environment string
	Characters  []model.CharacterSlot
}

// Label - 히스토리에 남길 source label ("MIX: <환경 앞 12자>...")
func (r MixResult) Label() string {
	env := []rune(r.Environment)
	if len(env) > 12 {
		env = env[:12]
	}
	return fmt.Sprintf(model.SourceMixFmt, string(env))
}

// Mix - 환경 풀에서 하나, 슬롯별 풀에서 하나씩 무작위로 골라 구성 확정
// 입력은 변경하지 않음. 풀이 비어있는 슬롯은 기존 프롬프트 유지
func Mix(src RandomSource, env []model.PoolItem, slots []model.CharacterSlot, pools map[int][]model.PoolItem) (MixResult, error) {
	if len(env) == 0 {
		return MixResult{}, model.ErrEmptyEnvironmentPool
	}

	result := MixResult{
		Environment: env[src.Intn(len(env))].Text,
		Characters:  make([]model.CharacterSlot, len(slots)),
	}

	for i, slot := range slots {
		if items := pools[i]; len(items) > 0 {
			slot.Prompt = items[src.Intn(len(items))].Text
		}
		result.Characters[i] = slot
	}

	return result, nil
}
