package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cinecompose-server/modules/common/model"
	"cinecompose-server/modules/common/utils"
	"cinecompose-server/modules/pool"
)

const (
	maxImageUpload   = 20 << 20
	maxProjectUpload = 5 << 20
)

// StudioHandler - 스튜디오 HTTP API
type StudioHandler struct {
	service *Service
}

// Response - 공통 응답
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// NewStudioHandler - StudioHandler 생성
func NewStudioHandler(service *Service) *StudioHandler {
	return &StudioHandler{service: service}
}

// RegisterRoutes - 라우터에 스튜디오 엔드포인트 등록
func (h *StudioHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/catalog", h.GetCatalog).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/state", h.GetState).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/scene", h.UpdateScene).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/scene/{field}", h.SetSceneField).Methods("PATCH", "OPTIONS")

	r.HandleFunc("/api/characters", h.AddCharacter).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/characters/{index}", h.RemoveCharacter).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/characters/{index}/prompt", h.SetCharacterPrompt).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/characters/{index}/image", h.SetCharacterImage).Methods("PUT", "OPTIONS")
	r.HandleFunc("/api/characters/{index}/image", h.ClearCharacterImage).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/api/pools", h.GetPools).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/pools/environment", h.AddEnvironmentItem).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/pools/environment/{itemId}", h.RemoveEnvironmentItem).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/pools/characters/{slot}", h.AddCharacterItem).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/pools/characters/{slot}/{itemId}", h.RemoveCharacterItem).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/api/generate", h.Generate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/mix", h.MixOnce).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/automation", h.GetAutomation).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/automation/start", h.StartAutomation).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/automation/stop", h.StopAutomation).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/results", h.GetResults).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/results/{id}/image", h.GetResultImage).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/results/{id}/download", h.DownloadResult).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/project/export", h.ExportProject).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/project/import", h.ImportProject).Methods("POST", "OPTIONS")

	log.Println("✅ Studio routes registered: /api/scene, /api/characters, /api/pools, /api/generate, /api/mix, /api/automation, /api/results, /api/project")
}

// ===== Scene =====

// GetCatalog - GET /api/catalog
func (h *StudioHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: model.GetCatalog()})
}

// GetState - GET /api/state
func (h *StudioHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Snapshot()})
}

// UpdateScene - PUT /api/scene
func (h *StudioHandler) UpdateScene(w http.ResponseWriter, r *http.Request) {
	var scene model.SceneConfig
	if err := json.NewDecoder(r.Body).Decode(&scene); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	h.service.UpdateScene(scene)
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Scene()})
}

// SetSceneField - PATCH /api/scene/{field}  body {value}
func (h *StudioHandler) SetSceneField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	// outputWidth 는 숫자/문자열 모두 허용
	value := string(req.Value)
	var str string
	if err := json.Unmarshal(req.Value, &str); err == nil {
		value = str
	}

	if err := h.service.SetSceneField(mux.Vars(r)["field"], value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Scene()})
}

// ===== Characters =====

// AddCharacter - POST /api/characters
func (h *StudioHandler) AddCharacter(w http.ResponseWriter, r *http.Request) {
	slot, err := h.service.AddCharacterSlot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: slot})
}

// RemoveCharacter - DELETE /api/characters/{index}
func (h *StudioHandler) RemoveCharacter(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	if err := h.service.RemoveCharacterSlot(index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Characters()})
}

// SetCharacterPrompt - PUT /api/characters/{index}/prompt  body {prompt}
func (h *StudioHandler) SetCharacterPrompt(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if err := h.service.SetCharacterPrompt(index, req.Prompt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// SetCharacterImage - PUT /api/characters/{index}/image  multipart "image"
func (h *StudioHandler) SetCharacterImage(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		writeBadRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeBadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageUpload))
	if err != nil {
		writeBadRequest(w, "Failed to read image")
		return
	}

	mimeType, err := utils.DetectMimeType(data)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	log.Printf("📎 [Studio] Character %d image uploaded: %s (%s, %d bytes)", index+1, header.Filename, mimeType, len(data))
	previewID, err := h.service.SetCharacterImage(index, &model.ImageData{Data: data, MimeType: mimeType})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{
		"previewId":  previewID,
		"previewUrl": "/api/previews/" + previewID,
	}})
}

// ClearCharacterImage - DELETE /api/characters/{index}/image
func (h *StudioHandler) ClearCharacterImage(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r, "index")
	if !ok {
		return
	}
	if _, err := h.service.SetCharacterImage(index, nil); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// ===== Pools =====

type poolItemRequest struct {
	Text string `json:"text"`
}

// GetPools - GET /api/pools
func (h *StudioHandler) GetPools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Pools()})
}

// AddEnvironmentItem - POST /api/pools/environment
func (h *StudioHandler) AddEnvironmentItem(w http.ResponseWriter, r *http.Request) {
	h.addPoolItem(w, r, pool.EnvironmentKey())
}

// RemoveEnvironmentItem - DELETE /api/pools/environment/{itemId}
func (h *StudioHandler) RemoveEnvironmentItem(w http.ResponseWriter, r *http.Request) {
	h.removePoolItem(w, r, pool.EnvironmentKey())
}

// AddCharacterItem - POST /api/pools/characters/{slot}
func (h *StudioHandler) AddCharacterItem(w http.ResponseWriter, r *http.Request) {
	slot, ok := poolSlot(w, r)
	if !ok {
		return
	}
	h.addPoolItem(w, r, pool.CharacterKey(slot))
}

// RemoveCharacterItem - DELETE /api/pools/characters/{slot}/{itemId}
func (h *StudioHandler) RemoveCharacterItem(w http.ResponseWriter, r *http.Request) {
	slot, ok := poolSlot(w, r)
	if !ok {
		return
	}
	h.removePoolItem(w, r, pool.CharacterKey(slot))
}

func (h *StudioHandler) addPoolItem(w http.ResponseWriter, r *http.Request, key pool.Key) {
	var req poolItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	item, added := h.service.AddPoolItem(key, req.Text)
	if !added {
		// 빈 텍스트는 조용히 무시
		writeJSON(w, http.StatusOK, Response{Success: true})
		return
	}
	log.Printf("➕ [Studio] Added to %s pool: %s", key, item.ID)
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: item})
}

func (h *StudioHandler) removePoolItem(w http.ResponseWriter, r *http.Request, key pool.Key) {
	removed := h.service.RemovePoolItem(key, mux.Vars(r)["itemId"])
	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"removed": removed}})
}

// ===== Generation =====

// Generate - POST /api/generate (수동 생성, 완료까지 대기)
func (h *StudioHandler) Generate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GenerateManual(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// MixOnce - POST /api/mix
func (h *StudioHandler) MixOnce(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.MixOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

// ===== Automation =====

// GetAutomation - GET /api/automation
func (h *StudioHandler) GetAutomation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Automation()})
}

// StartAutomation - POST /api/automation/start
func (h *StudioHandler) StartAutomation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.StartLoop(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Automation()})
}

// StopAutomation - POST /api/automation/stop
func (h *StudioHandler) StopAutomation(w http.ResponseWriter, r *http.Request) {
	h.service.StopLoop()
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Automation()})
}

// ===== Results =====

// GetResults - GET /api/results
func (h *StudioHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.History()})
}

// GetResultImage - GET /api/results/{id}/image (원본)
func (h *StudioHandler) GetResultImage(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Image)))
	w.Write(result.Image)
}

// DownloadResult - GET /api/results/{id}/download?format=jpeg|webp&width=N
func (h *StudioHandler) DownloadResult(w http.ResponseWriter, r *http.Request) {
	width := 0
	if raw := r.URL.Query().Get("width"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "width must be a positive integer")
			return
		}
		width = parsed
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	switch format {
	case "", "jpeg", "jpg", "webp":
	default:
		writeBadRequest(w, "format must be jpeg or webp")
		return
	}

	data, mimeType, filename, err := h.service.Download(mux.Vars(r)["id"], format, width)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}

// ===== Project =====

// ExportProject - GET /api/project/export
func (h *StudioHandler) ExportProject(w http.ResponseWriter, r *http.Request) {
	data, filename, err := h.service.ExportProject()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}

// ImportProject - POST /api/project/import (raw JSON 또는 multipart "file")
func (h *StudioHandler) ImportProject(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var err error

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxProjectUpload); err != nil {
			writeBadRequest(w, "Invalid multipart form")
			return
		}
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			writeBadRequest(w, "file is required")
			return
		}
		defer file.Close()
		data, err = io.ReadAll(io.LimitReader(file, maxProjectUpload))
	} else {
		data, err = io.ReadAll(io.LimitReader(r.Body, maxProjectUpload))
	}
	if err != nil {
		writeBadRequest(w, "Failed to read project file")
		return
	}

	if err := h.service.ImportProject(data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.service.Snapshot()})
}

// ===== helpers =====

func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		writeBadRequest(w, name+" must be an integer")
		return 0, false
	}
	return index, true
}

// poolSlot - 캐릭터 풀 슬롯 index (0 ~ MaxCharacterSlots-1)
func poolSlot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, ok := pathIndex(w, r, "slot")
	if !ok {
		return 0, false
	}
	if slot < 0 || slot >= model.MaxCharacterSlots {
		writeError(w, model.ErrSlotIndexOutOfRange)
		return 0, false
	}
	return slot, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: msg, ErrorCode: "BAD_REQUEST"})
}

// writeError - 도메인 에러를 HTTP 상태코드로 매핑
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("❌ [Studio] %s: %v", code, err)
	}
	writeJSON(w, status, Response{Success: false, Error: err.Error(), ErrorCode: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrEmptyEnvironment):
		return http.StatusBadRequest, "EMPTY_ENVIRONMENT"
	case errors.Is(err, model.ErrInvalidProjectFile):
		return http.StatusBadRequest, "INVALID_PROJECT_FILE"
	case errors.Is(err, model.ErrUnknownSceneField):
		return http.StatusBadRequest, "UNKNOWN_SCENE_FIELD"
	case errors.Is(err, model.ErrSlotLimitReached):
		return http.StatusBadRequest, "SLOT_LIMIT_REACHED"
	case errors.Is(err, model.ErrSlotIndexOutOfRange):
		return http.StatusBadRequest, "SLOT_INDEX_OUT_OF_RANGE"
	case errors.Is(err, model.ErrResultNotFound):
		return http.StatusNotFound, "RESULT_NOT_FOUND"
	case errors.Is(err, model.ErrAutomationNotConfigured):
		return http.StatusConflict, "AUTOMATION_NOT_CONFIGURED"
	case errors.Is(err, model.ErrAutomationActive):
		return http.StatusConflict, "AUTOMATION_ACTIVE"
	case errors.Is(err, model.ErrGenerationInFlight):
		return http.StatusConflict, "GENERATION_IN_FLIGHT"
	case errors.Is(err, model.ErrEmptyEnvironmentPool):
		return http.StatusConflict, "EMPTY_ENVIRONMENT_POOL"
	case errors.Is(err, model.ErrGenerationFailed):
		return http.StatusBadGateway, "GENERATION_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
