package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinecompose-server/modules/common/model"
)

func TestStoreAdd(t *testing.T) {
	t.Run("keeps text verbatim", func(t *testing.T) {
		s := NewStore()
		item, ok := s.Add(EnvironmentKey(), "  rainy rooftop  ")
		require.True(t, ok)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "  rainy rooftop  ", item.Text)
		assert.Equal(t, []model.PoolItem{item}, s.List(EnvironmentKey()))
	})

	t.Run("rejects whitespace only", func(t *testing.T) {
		s := NewStore()
		_, ok := s.Add(EnvironmentKey(), " \n\t ")
		assert.False(t, ok)
		assert.Empty(t, s.List(EnvironmentKey()))
	})

	t.Run("rejects negative slot", func(t *testing.T) {
		s := NewStore()
		_, ok := s.Add(CharacterKey(-1), "hero")
		assert.False(t, ok)
	})

	t.Run("ids are unique", func(t *testing.T) {
		s := NewStore()
		a, _ := s.Add(CharacterKey(0), "same")
		b, _ := s.Add(CharacterKey(0), "same")
		assert.NotEqual(t, a.ID, b.ID)
		assert.Len(t, s.List(CharacterKey(0)), 2)
	})
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	a, _ := s.Add(CharacterKey(2), "a")
	b, _ := s.Add(CharacterKey(2), "b")

	assert.False(t, s.Remove(CharacterKey(2), "missing"))
	assert.False(t, s.Remove(CharacterKey(1), a.ID))
	assert.True(t, s.Remove(CharacterKey(2), a.ID))
	assert.Equal(t, []model.PoolItem{b}, s.List(CharacterKey(2)))

	assert.True(t, s.Remove(CharacterKey(2), b.ID))
	assert.Empty(t, s.List(CharacterKey(2)))
	assert.Empty(t, s.Snapshot().Characters)
}

func TestStoreListIsACopy(t *testing.T) {
	s := NewStore()
	s.Add(EnvironmentKey(), "desert")

	items := s.List(EnvironmentKey())
	items[0].Text = "mutated"

	assert.Equal(t, "desert", s.List(EnvironmentKey())[0].Text)
}

func TestStoreReplace(t *testing.T) {
	s := NewStore()
	s.Add(EnvironmentKey(), "old")

	s.Replace(model.PoolSet{
		Environment: []model.PoolItem{
			{ID: "e1", Text: "neon alley"},
			{ID: "e1", Text: "duplicate"},
			{ID: "", Text: "no id"},
		},
		Characters: map[int][]model.PoolItem{
			0:  {{ID: "c1", Text: "hero"}},
			3:  {},
			-1: {{ID: "bad", Text: "ignored"}},
		},
	})

	env := s.List(EnvironmentKey())
	require.Len(t, env, 2)
	assert.Equal(t, "neon alley", env[0].Text)
	assert.Equal(t, "no id", env[1].Text)
	assert.NotEmpty(t, env[1].ID)

	snap := s.Snapshot()
	assert.Len(t, snap.Characters, 1)
	assert.Equal(t, "hero", snap.Characters[0][0].Text)

	t.Run("same id in different pools is kept", func(t *testing.T) {
		s := NewStore()
		s.Replace(model.PoolSet{
			Environment: []model.PoolItem{{ID: "1700000000000", Text: "Rainy alley"}},
			Characters: map[int][]model.PoolItem{
				0: {{ID: "1700000000000", Text: "Wears red coat"}},
				1: {{ID: "1700000000000", Text: "Holds a lantern"}},
			},
		})

		assert.Equal(t, []model.PoolItem{{ID: "1700000000000", Text: "Rainy alley"}}, s.List(EnvironmentKey()))
		assert.Equal(t, []model.PoolItem{{ID: "1700000000000", Text: "Wears red coat"}}, s.List(CharacterKey(0)))
		assert.Equal(t, []model.PoolItem{{ID: "1700000000000", Text: "Holds a lantern"}}, s.List(CharacterKey(1)))
		assert.True(t, s.HasCharacterPool(1))
	})
}

func TestStoreHasCharacterPool(t *testing.T) {
	s := NewStore()
	s.Add(CharacterKey(2), "orphan")

	// 슬롯 0..1 만 존재하면 index 2 의 풀은 세지 않음
	assert.False(t, s.HasCharacterPool(2))
	assert.True(t, s.HasCharacterPool(3))
}
