package handler

import (
	"net/http"
	"runtime"
	"time"

	"inventory-rest-api/internal/repository"
	"inventory-rest-api/pkg/response"
)

// AdminHandler serves operational statistics.
type AdminHandler struct {
	store      repository.Store
	revocation string // "redis", "memory" or "disabled"
	uploader   string
	startTime  time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store repository.Store, revocation, uploader string) *AdminHandler {
	return &AdminHandler{
		store:      store,
		revocation: revocation,
		uploader:   uploader,
		startTime:  time.Now(),
	}
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().UTC().Format(time.RFC3339)
	stats["memory"] = readMemoryStats()
	stats["token_revocation"] = h.revocation
	stats["image_uploader"] = h.uploader

	storeStats, err := h.store.Stats(r.Context())
	if err == nil {
		storeStats["status"] = "connected"
		stats["database"] = storeStats
	} else {
		stats["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, "", stats)
}
