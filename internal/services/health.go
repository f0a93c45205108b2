package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sunriver-travel/nilecms/internal/config"
	"github.com/sunriver-travel/nilecms/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check.
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Uploads      string            `json:"uploads"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck probes the database, the uploads directory, and the
// Authorizer service.
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	sqlDB, err := db.DB()
	if err != nil {
		result.Status = "unhealthy"
		result.Database = "error"
		result.ErrorMessage = fmt.Sprintf("database connection error: %v", err)
	} else if err := sqlDB.Ping(); err != nil {
		result.Status = "unhealthy"
		result.Database = "unreachable"
		result.ErrorMessage = fmt.Sprintf("database ping failed: %v", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBName
	}

	if err := probeUploadsDir(cfg.UploadsDir); err != nil {
		result.Status = "unhealthy"
		result.Uploads = "unwritable"
		appendError(&result, fmt.Sprintf("uploads dir check failed: %v", err))
	} else {
		result.Uploads = "ok"
		result.Details["uploads_dir"] = cfg.UploadsDir
	}

	if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		result.Status = "unhealthy"
		result.Authorizer = "unreachable"
		appendError(&result, fmt.Sprintf("authorizer ping failed: %v", err))
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	return result
}

// probeUploadsDir verifies the uploads directory exists and is writable by
// creating and removing a probe file.
func probeUploadsDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	probe := filepath.Join(dir, ".health-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func appendError(r *HealthCheckResult, msg string) {
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
		return
	}
	r.ErrorMessage += "; " + msg
}
