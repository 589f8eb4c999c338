package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"cinecompose-server/modules/common/database"
	"cinecompose-server/modules/common/model"
	"cinecompose-server/modules/common/utils"
)

// Uploader - 이미지 업로드 (storage.Client)
type Uploader interface {
	Upload(ctx context.Context, filePath string, data []byte, contentType string) error
}

// Recorder - 메타데이터 저장 (database.Client)
type Recorder interface {
	InsertRender(ctx context.Context, record database.RenderRecord) error
}

// Archiver - 생성 결과를 WebP 로 변환해 Storage 업로드 + 테이블 기록
type Archiver struct {
	uploader Uploader
	recorder Recorder
}

// NewArchiver - Archiver 생성
func NewArchiver(uploader Uploader, recorder Recorder) *Archiver {
	return &Archiver{uploader: uploader, recorder: recorder}
}

// Archive - studio.Archiver 구현
func (a *Archiver) Archive(ctx context.Context, result model.GenerationResult) error {
	webpData, err := utils.ConvertToWebP(result.Image, utils.WebPQuality)
	if err != nil {
		return fmt.Errorf("failed to convert to WebP: %w", err)
	}

	filePath := StoragePath(result)
	if err := a.uploader.Upload(ctx, filePath, webpData, "image/webp"); err != nil {
		return err
	}

	record := database.RenderRecord{
		ResultID:      result.ID,
		SourceLabel:   result.SourceLabel,
		Environment:   result.Config.Environment,
		FilmStyle:     result.Config.FilmStyle,
		TimeOfDay:     result.Config.TimeOfDay,
		CameraSetting: result.Config.CameraSetting,
		AspectRatio:   result.Config.AspectRatio,
		Resolution:    result.Config.Resolution,
		StoragePath:   filePath,
		FileSize:      int64(len(webpData)),
		FileType:      "image/webp",
		CreatedAt:     result.Timestamp.UTC().Format(time.RFC3339),
	}
	if err := a.recorder.InsertRender(ctx, record); err != nil {
		return err
	}

	log.Printf("✅ [Archive] Archived %s (%d bytes)", result.ID, len(webpData))
	return nil
}

// StoragePath - renders/YYYY/MM/DD/<resultID>.webp
func StoragePath(result model.GenerationResult) string {
	return fmt.Sprintf("renders/%s/%s.webp", result.Timestamp.UTC().Format("2006/01/02"), result.ID)
}
