package cinema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cinecompose-server/modules/common/model"
)

func TestBuildScenePrompt(t *testing.T) {
	scene := model.DefaultSceneConfig()
	scene.Environment = "c1 and c2 argue under a flickering sign"

	t.Run("scene blocks", func(t *testing.T) {
		prompt := BuildScenePrompt(scene, nil)

		assert.Contains(t, prompt, "[1. FILM STYLE PRESET]\nFilm style: Blade Runner 2049 (Cyberpunk, Neon, Fog)\n")
		assert.Contains(t, prompt, "Camera Setting: Standard (35mm-50mm) - Natural View\n")
		assert.Contains(t, prompt, "Time of day: Midnight\n")
		assert.Contains(t, prompt, "Environment:\nc1 and c2 argue under a flickering sign\n")
		assert.Contains(t, prompt, "using labels c1, c2, c3, etc.")
		assert.NotContains(t, prompt, "[CHARACTER")
	})

	t.Run("labels follow active characters only", func(t *testing.T) {
		chars := []model.CharacterSlot{
			{ID: 1, Name: "Character 1", Prompt: ""},
			{ID: 2, Name: "Character 2", Prompt: "Trench coat, holding umbrella"},
			{ID: 3, Name: "Character 3", Image: &model.ImageData{Data: []byte{1}, MimeType: "image/png"}},
		}

		prompt := BuildScenePrompt(scene, chars)

		assert.Contains(t, prompt, "\n[CHARACTER 1 (c1)]\n(No reference image provided for this character)\nCharacter Modifications & Placement:\nTrench coat, holding umbrella\n")
		assert.Contains(t, prompt, "\n[CHARACTER 2 (c2)]\nBase character appearance is provided via the attached reference image 2. Preserve facial identity and body proportions.\nCharacter Modifications & Placement:\n\n")
		assert.NotContains(t, prompt, "(c3)")
	})

	t.Run("character blocks come after the scene", func(t *testing.T) {
		chars := []model.CharacterSlot{{ID: 1, Prompt: "hero"}}
		prompt := BuildScenePrompt(scene, chars)

		assert.Less(t, strings.Index(prompt, "[4. SCENE DESCRIPTION]"), strings.Index(prompt, "[CHARACTER 1 (c1)]"))
	})
}

func TestActiveCharacters(t *testing.T) {
	chars := []model.CharacterSlot{
		{ID: 1},
		{ID: 2, Prompt: "x"},
		{ID: 3, Image: &model.ImageData{}},
		{ID: 4, Image: &model.ImageData{Data: []byte{1}}},
	}

	active := ActiveCharacters(chars)
	if assert.Len(t, active, 2) {
		assert.Equal(t, 2, active[0].ID)
		assert.Equal(t, 4, active[1].ID)
	}
}
