package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"cinecompose-server/modules/common/config"
)

// Client - Supabase Storage 업로드 클라이언트
type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
		serviceKey: cfg.SupabaseServiceKey,
		bucket:     cfg.SupabaseStorageBucket,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Bucket - 업로드 대상 버킷
func (c *Client) Bucket() string {
	return c.bucket
}

// Upload - 버킷의 filePath 에 업로드
func (c *Client) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, filePath)
	log.Printf("📤 [Archive] Uploading to storage: %s/%s (%d bytes)", c.bucket, filePath, len(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ [Archive] Uploaded: %s/%s", c.bucket, filePath)
	return nil
}
