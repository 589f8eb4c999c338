package cinema

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"

	"cinecompose-server/modules/common/model"
)

// contentGenerator - genai.Models 중 사용하는 메서드
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Service - Gemini 이미지 생성 게이트웨이
// 재시도 없음: 요청 1건당 API 호출 1회
type Service struct {
	models contentGenerator
	model  string
}

// NewService - genai 클라이언트로 게이트웨이 생성
func NewService(client *genai.Client, modelName string) *Service {
	return &Service{
		models: client.Models,
		model:  modelName,
	}
}

// Generate - 씬 + 활성 캐릭터로 이미지 1장 생성
func (s *Service) Generate(ctx context.Context, req model.GenerationRequest) (*model.RenderedImage, error) {
	active := ActiveCharacters(req.Characters)
	prompt := BuildScenePrompt(req.Scene, req.Characters)

	// 순서: 캐릭터 레퍼런스 이미지들 → 텍스트 프롬프트
	var parts []*genai.Part
	for i, char := range active {
		if !char.HasImage() {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(char.Image.Data, char.Image.MimeType))
		log.Printf("📎 [Cinema] Added reference image for c%d (%s, %d bytes)", i+1, char.Image.MimeType, len(char.Image.Data))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	log.Printf("📤 [Cinema] Sending request to Gemini (%s) with %d parts, %d active characters", s.model, len(parts), len(active))
	result, err := s.models.GenerateContent(
		ctx,
		s.model,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{
				AspectRatio: req.Scene.AspectRatio,
				ImageSize:   req.Scene.Resolution,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	img, err := extractImage(result)
	if err != nil {
		return nil, err
	}
	img.Prompt = prompt

	log.Printf("✅ [Cinema] Received image from Gemini: %d bytes (%s)", len(img.Data), img.MimeType)
	return img, nil
}

// extractImage - 첫 번째 후보에서 inline 이미지 추출
func extractImage(result *genai.GenerateContentResponse) (*model.RenderedImage, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := result.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return &model.RenderedImage{Data: part.InlineData.Data, MimeType: mimeType}, nil
			}
		}
	}

	// 안전 필터 등으로 차단된 경우
	switch candidate.FinishReason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop:
	default:
		return nil, fmt.Errorf("image generation stopped (finish reason: %s)", candidate.FinishReason)
	}

	return nil, fmt.Errorf("No image data found in response")
}
