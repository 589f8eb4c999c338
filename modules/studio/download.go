package studio

import (
	"fmt"

	"cinecompose-server/modules/common/utils"
)

// Download - 결과 이미지를 출력 너비로 리사이즈 후 재인코딩
// width <= 0 이면 현재 씬의 outputWidth 사용
func (s *Service) Download(id, format string, width int) ([]byte, string, string, error) {
	result, err := s.Result(id)
	if err != nil {
		return nil, "", "", err
	}
	if width <= 0 {
		width = s.Scene().OutputWidth
	}

	data, mimeType, err := utils.ProcessForDownload(result.Image, width, format)
	if err != nil {
		return nil, "", "", err
	}

	ext := "jpg"
	if mimeType == "image/webp" {
		ext = "webp"
	}
	return data, mimeType, fmt.Sprintf("cinecompose-%d.%s", s.now().UnixMilli(), ext), nil
}
