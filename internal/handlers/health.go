package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	applog "formulab/internal/log"
)

const (
	databaseUp            = "up"
	databaseDown          = "down"
	databaseNotConfigured = "not_configured"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health reports liveness together with the state of the formulation
// database. An unreachable database degrades the status but the response
// stays 200.
func Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{
		Status:   "ok",
		Database: databaseState(ctx),
		Time:     time.Now().UTC(),
	}
	if resp.Database == databaseDown {
		resp.Status = "degraded"
	}
	applog.Debug(ctx, "health check", "status", resp.Status, "database", resp.Database)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(ctx, "failed to encode health response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func databaseState(ctx context.Context) string {
	if database == nil {
		return databaseNotConfigured
	}
	sqlDB, err := database.DB()
	if err != nil {
		applog.Warn(ctx, "health check cannot reach database handle", "error", err)
		return databaseDown
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		applog.Warn(ctx, "health check database ping failed", "error", err)
		return databaseDown
	}
	return databaseUp
}
