package model

import "fmt"

// Option - 선택형 씬 필드의 라벨/값
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var FilmStyles = []string{
	"Blade Runner 2049 (Cyberpunk, Neon, Fog)",
	"The Dark Knight (Gritty, Urban, IMAX)",
	"Dune (Grand Scale, Monochromatic, Sandy)",
	"Ghost in the Shell (High Tech, Glossy, Anime-Realism)",
	"Children of Men (Handheld, Desaturated, Realistic)",
	"Wes Anderson (Symmetrical, Pastel, Flat)",
	"Mad Max: Fury Road (High Contrast, Saturated, Chaos)",
	"The Godfather (Warm, Shadowy, Noir)",
}

var CameraSettings = []string{
	"Standard (35mm-50mm) - Natural View",
	"Wide Angle (24mm) - Expansive",
	"Ultra Wide / Fisheye - Distorted/Panoramic",
	"Telephoto (85mm+) - Compressed Depth",
	"Macro - Extreme Close-up",
	"Low Angle - Heroic/Imposing",
	"High Angle / Bird's Eye - Overview",
	"Dutch Angle - Tilted/Unsettling",
	"Over-the-Shoulder - Conversational",
	"Drone / Aerial - High Altitude",
	"Handheld - Shaky/Documentary Style",
}

var TimesOfDay = []string{
	"Golden Hour",
	"Blue Hour",
	"High Noon",
	"Midnight",
	"Overcast Day",
	"Stormy Night",
}

var AspectRatios = []Option{
	{Label: "16:9 (Cinematic)", Value: "16:9"},
	{Label: "9:16 (Portrait)", Value: "9:16"},
	{Label: "1:1 (Square)", Value: "1:1"},
	{Label: "4:3 (Classic TV)", Value: "4:3"},
	{Label: "3:4 (Vertical)", Value: "3:4"},
}

var Resolutions = []Option{
	{Label: "1K (Standard)", Value: "1K"},
	{Label: "2K (High Def)", Value: "2K"},
}

// Catalog - 씬 설정 폼에 필요한 선택지 목록
type Catalog struct {
	FilmStyles     []string `json:"filmStyles"`
	CameraSettings []string `json:"cameraSettings"`
	TimesOfDay     []string `json:"timesOfDay"`
	AspectRatios   []Option `json:"aspectRatios"`
	Resolutions    []Option `json:"resolutions"`
	MaxCharacters  int      `json:"maxCharacters"`
}

// GetCatalog - 씬 옵션 카탈로그 반환
func GetCatalog() Catalog {
	return Catalog{
		FilmStyles:     FilmStyles,
		CameraSettings: CameraSettings,
		TimesOfDay:     TimesOfDay,
		AspectRatios:   AspectRatios,
		Resolutions:    Resolutions,
		MaxCharacters:  MaxCharacterSlots,
	}
}

// DefaultSceneConfig - 새 스튜디오의 기본 씬 설정
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		FilmStyle:     FilmStyles[0],
		TimeOfDay:     "Midnight",
		CameraSetting: CameraSettings[0],
		Environment:   "",
		AspectRatio:   "16:9",
		Resolution:    "1K",
		OutputWidth:   DefaultOutputWidth,
	}
}

// NewCharacterSlot - 1부터 시작하는 위치 id 의 빈 슬롯 생성
func NewCharacterSlot(id int) CharacterSlot {
	return CharacterSlot{
		ID:   id,
		Name: fmt.Sprintf("Character %d", id),
	}
}
