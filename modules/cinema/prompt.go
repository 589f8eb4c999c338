package cinema

import (
	"fmt"
	"strings"

	"cinecompose-server/modules/common/model"
)

// ActiveCharacters - 프롬프트나 이미지가 있는 캐릭터만 순서대로
func ActiveCharacters(characters []model.CharacterSlot) []model.CharacterSlot {
	active := make([]model.CharacterSlot, 0, len(characters))
	for _, c := range characters {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	return active
}

// BuildScenePrompt - 씬 구성 프롬프트 생성
// 활성 캐릭터는 1부터 번호가 매겨지고 씬 설명에서 c1, c2 ... 로 참조됨
func BuildScenePrompt(scene model.SceneConfig, characters []model.CharacterSlot) string {
	var promptBuilder strings.Builder

	promptBuilder.WriteString("\nYou are a cinematic scene composition engine.\n")
	promptBuilder.WriteString("Create a single-frame scene that looks like a still from a high-budget movie.\n\n")

	// 1. 필름 스타일
	promptBuilder.WriteString("[1. FILM STYLE PRESET]\n")
	promptBuilder.WriteString(fmt.Sprintf("Film style: %s\n\n", scene.FilmStyle))

	// 2. 카메라
	promptBuilder.WriteString("[2. CAMERA & ANGLE]\n")
	promptBuilder.WriteString(fmt.Sprintf("Camera Setting: %s\n\n", scene.CameraSetting))

	// 3. 시간대 / 조명
	promptBuilder.WriteString("[3. TIME & LIGHTING]\n")
	promptBuilder.WriteString(fmt.Sprintf("Time of day: %s\n", scene.TimeOfDay))
	promptBuilder.WriteString("Lighting: cinematic contrast, volumetric light, realistic global illumination, film grain, color grading matching the selected film.\n\n")

	// 4. 씬 설명
	promptBuilder.WriteString("[4. SCENE DESCRIPTION]\n")
	promptBuilder.WriteString("Environment:\n")
	promptBuilder.WriteString(scene.Environment)
	promptBuilder.WriteString("\n\n")
	promptBuilder.WriteString("Include multiple objects and environmental storytelling elements.\n")
	promptBuilder.WriteString("Ensure depth, foreground, midground, and background separation.\n")
	promptBuilder.WriteString("Note: The user may refer to characters in the scene description using labels c1, c2, c3, etc. These correspond to the characters defined below.\n")

	// 캐릭터별 블록 (레퍼런스 이미지 번호 = 캐릭터 번호)
	for i, char := range ActiveCharacters(characters) {
		charNum := i + 1
		promptBuilder.WriteString(fmt.Sprintf("\n[CHARACTER %d (c%d)]", charNum, charNum))

		if char.HasImage() {
			promptBuilder.WriteString(fmt.Sprintf("\nBase character appearance is provided via the attached reference image %d. Preserve facial identity and body proportions.", charNum))
		} else {
			promptBuilder.WriteString("\n(No reference image provided for this character)")
		}

		promptBuilder.WriteString(fmt.Sprintf("\nCharacter Modifications & Placement:\n%s\n", char.Prompt))
	}

	return promptBuilder.String()
}
