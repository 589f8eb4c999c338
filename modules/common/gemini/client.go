package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"google.golang.org/genai"

	"cinecompose-server/modules/common/config"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// NewClient - 설정된 백엔드(Gemini API / Vertex AI)로 genai 클라이언트 생성
func NewClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	if cfg.GeminiBackend == config.BackendVertex {
		return newVertexClient(ctx, cfg)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Genai client: %w", err)
	}

	log.Printf("✅ [Gemini] Client initialized (Gemini API, model=%s)", cfg.GeminiModel)
	return client, nil
}

// newVertexClient - Vertex AI 백엔드 클라이언트 (자격증명 자동 처리)
func newVertexClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	creds, err := vertexCredentials(cfg)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendVertexAI,
		Project:     cfg.VertexProject,
		Location:    cfg.VertexLocation,
		Credentials: creds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	log.Printf("✅ [Gemini] Client initialized (Vertex AI, project=%s, location=%s)", cfg.VertexProject, cfg.VertexLocation)
	return client, nil
}

// vertexCredentials - 환경변수 JSON → 파일 경로 → ADC 순서로 자격증명 탐색
func vertexCredentials(cfg *config.Config) (*auth.Credentials, error) {
	var credsJSON []byte

	if cfg.VertexCredentialsJSON != "" {
		// 1. VERTEXAI_CREDENTIALS_JSON (배포용)
		log.Println("✅ [Gemini] Using VERTEXAI_CREDENTIALS_JSON from environment")
		credsJSON = []byte(cfg.VertexCredentialsJSON)
	} else if cfg.VertexCredentialsPath != "" {
		// 2. VERTEXAI_CREDENTIALS_PATH (로컬 테스트용)
		log.Printf("✅ [Gemini] Using credentials from file: %s", cfg.VertexCredentialsPath)
		data, err := os.ReadFile(cfg.VertexCredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		// 3. Application Default Credentials
		log.Println("⚠️  [Gemini] No explicit credentials found, using Application Default Credentials")
	}

	if credsJSON != nil && !json.Valid(credsJSON) {
		return nil, fmt.Errorf("invalid JSON credentials")
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes:          []string{cloudPlatformScope},
		CredentialsJSON: credsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect credentials: %w", err)
	}
	return creds, nil
}
