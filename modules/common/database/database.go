package database

import (
	"context"
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"

	"cinecompose-server/modules/common/config"
)

// RendersTable - 생성 결과 메타데이터 테이블
const RendersTable = "cinecompose_renders"

// RenderRecord - 아카이브된 결과 1건
type RenderRecord struct {
	ResultID      string `json:"result_id"`
	SourceLabel   string `json:"source_label"`
	Environment   string `json:"environment"`
	FilmStyle     string `json:"film_style"`
	TimeOfDay     string `json:"time_of_day"`
	CameraSetting string `json:"camera_setting"`
	AspectRatio   string `json:"aspect_ratio"`
	Resolution    string `json:"resolution"`
	StoragePath   string `json:"storage_path"`
	FileSize      int64  `json:"file_size"`
	FileType      string `json:"file_type"`
	CreatedAt     string `json:"created_at"`
}

// Client - Supabase 테이블 클라이언트
type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient(cfg *config.Config) (*Client, error) {
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{
		supabase: supabaseClient,
	}, nil
}

// InsertRender - 결과 메타데이터 저장
// postgrest-go 의 Execute 는 context 를 받지 않으므로 호출 전 취소 여부만 확인
func (c *Client) InsertRender(ctx context.Context, record RenderRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render record %s not saved: %w", record.ResultID, err)
	}

	log.Printf("💾 [Archive] Creating render record: %s", record.ResultID)

	_, _, err := c.supabase.From(RendersTable).
		Insert(record, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert render record: %w", err)
	}

	log.Printf("✅ [Archive] Render record created: %s", record.ResultID)
	return nil
}
