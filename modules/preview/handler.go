package preview

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// PreviewHandler serves character reference previews by handle.
type PreviewHandler struct {
	registry *Registry
}

// NewPreviewHandler creates a handler instance.
func NewPreviewHandler(registry *Registry) *PreviewHandler {
	return &PreviewHandler{registry: registry}
}

// RegisterRoutes wires preview endpoints.
func (h *PreviewHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/previews/{previewId}", h.handlePreview).Methods("GET", "OPTIONS")
}

// handlePreview streams the raw image; released handles are 404.
func (h *PreviewHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	img, ok := h.registry.Get(mux.Vars(r)["previewId"])
	if !ok {
		http.Error(w, "preview not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img.Data)
}
