package handlers

import (
	"net/http"

	"github.com/diewo77/go-deliberations/httpx"
	"github.com/diewo77/go-deliberations/internal/db"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(d *gorm.DB) *HealthHandler {
	return &HealthHandler{db: d}
}

//revive:disable:unused-parameter
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

//revive:enable:unused-parameter

// Ready pings the database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(h.db.WithContext(r.Context())); err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
