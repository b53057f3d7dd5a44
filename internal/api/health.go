package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"infinite-experiment/poolroster/internal/db/repositories"
	"infinite-experiment/poolroster/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(reports *repositories.RosterReportRepo, redisClient *redis.Client, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		dbStatus := entities.ServiceStatus{Status: "ok", Details: "Database connected"}
		if err := reports.Ping(ctx); err != nil {
			dbStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
		}
		services["database"] = dbStatus

		if redisClient != nil {
			redisStatus := entities.ServiceStatus{Status: "ok", Details: "Redis connected"}
			if err := redisClient.Ping(ctx).Err(); err != nil {
				redisStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
			}
			services["redis"] = redisStatus
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
