package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG 디코더 등록
	"log"
	"net/http"
	"strings"

	_ "github.com/kolesa-team/go-webp/decoder" // WebP 디코더 등록
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// JPEGQuality - 다운로드용 JPEG 품질 (0.9)
const JPEGQuality = 90

// WebPQuality - WebP 변환 품질
const WebPQuality float32 = 90

// DecodeImage - PNG/JPEG/WebP 자동 감지 디코딩
func DecodeImage(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	log.Printf("🔍 Decoded image format: %s (%dx%d)", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// ResizeToWidth - 비율 유지하며 너비를 targetWidth 로 맞춤 (Nearest Neighbor)
func ResizeToWidth(src image.Image, targetWidth int) image.Image {
	srcBounds := src.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()
	if targetWidth <= 0 || srcWidth == 0 || targetWidth == srcWidth {
		return src
	}

	scale := float64(targetWidth) / float64(srcWidth)
	targetHeight := int(float64(srcHeight) * scale)
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	for y := 0; y < targetHeight; y++ {
		srcY := srcBounds.Min.Y + int(float64(y)/scale)
		if srcY >= srcBounds.Max.Y {
			srcY = srcBounds.Max.Y - 1
		}
		for x := 0; x < targetWidth; x++ {
			srcX := srcBounds.Min.X + int(float64(x)/scale)
			if srcX >= srcBounds.Max.X {
				srcX = srcBounds.Max.X - 1
			}
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}

	return dst
}

// EncodeJPEG - JPEG 인코딩
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeWebP - WebP 인코딩
func EncodeWebP(img image.Image, quality float32) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}
	return webpBuffer.Bytes(), nil
}

// ConvertToWebP - 이미지 바이너리(PNG/JPEG/WebP)를 WebP 로 변환
func ConvertToWebP(data []byte, quality float32) ([]byte, error) {
	log.Printf("🔄 Converting image to WebP (quality: %.1f)", quality)

	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	webpData, err := EncodeWebP(img, quality)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Image converted to WebP: %d bytes → %d bytes", len(data), len(webpData))
	return webpData, nil
}

// ProcessForDownload - 너비 조정 후 JPEG/WebP 로 재인코딩
// format: "jpeg" (기본) | "webp"
func ProcessForDownload(data []byte, width int, format string) ([]byte, string, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, "", err
	}
	resized := ResizeToWidth(img, width)

	switch strings.ToLower(format) {
	case "", "jpeg", "jpg":
		out, err := EncodeJPEG(resized, JPEGQuality)
		return out, "image/jpeg", err
	case "webp":
		out, err := EncodeWebP(resized, WebPQuality)
		return out, "image/webp", err
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
}

// DetectMimeType - 업로드된 이미지의 MIME 타입 감지 (image/* 가 아니면 에러)
func DetectMimeType(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("unsupported content type: %s", mimeType)
	}
	return mimeType, nil
}
