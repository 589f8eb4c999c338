package model

import "errors"

// 입력 검증
var (
	ErrEmptyEnvironment    = errors.New("please describe the environment first")
	ErrInvalidProjectFile  = errors.New("invalid project file structure")
	ErrUnknownSceneField   = errors.New("unknown scene field")
	ErrSlotLimitReached    = errors.New("character slot limit reached")
	ErrSlotIndexOutOfRange = errors.New("character slot index out of range")
	ErrResultNotFound      = errors.New("result not found")
)

// 자동화 설정
var (
	ErrAutomationNotConfigured = errors.New("configuration error: ensure you have items in the environment pool and at least one character slot pool")
	ErrAutomationActive        = errors.New("automation loop is active")
)

// 생성
var (
	ErrGenerationInFlight   = errors.New("a generation is already in progress")
	ErrEmptyEnvironmentPool = errors.New("environment pool is empty")
	ErrGenerationFailed     = errors.New("failed to generate scene")
)
