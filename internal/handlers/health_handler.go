package handlers

import (
	"context"
	"net/http"
	"time"

	"takeint/internal/scoring"
	"takeint/internal/utils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status string                    `json:"status"` // "ready" | "not_ready"
	Checks map[string]ReadinessCheck `json:"checks"`
}

type HealthHandler struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Scorer scoring.Provider
}

func (h *HealthHandler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "takeint",
		"version": "1.0.0",
	})
}

func (h *HealthHandler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]ReadinessCheck)
	ready := true

	if h.DB == nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: "database not initialized"}
		ready = false
	} else if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: "database unreachable"}
		ready = false
	} else {
		checks["database"] = ReadinessCheck{Status: "ok"}
	}

	if h.Redis == nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: "redis not initialized"}
		ready = false
	} else if err := h.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: "redis unreachable"}
		ready = false
	} else {
		checks["redis"] = ReadinessCheck{Status: "ok"}
	}

	if h.Scorer == nil {
		checks["scorer"] = ReadinessCheck{Status: "failed", Message: "scoring provider not initialized"}
		ready = false
	} else {
		checks["scorer"] = ReadinessCheck{Status: "ok"}
	}

	resp := ReadinessResponse{Checks: checks}
	if ready {
		resp.Status = "ready"
		utils.JSON(w, http.StatusOK, resp)
	} else {
		resp.Status = "not_ready"
		utils.JSON(w, http.StatusServiceUnavailable, resp)
	}
}
