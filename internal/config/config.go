package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Persistence store
	DBPath string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Compiler
	ChunkLines   int
	ChunkTimeout time.Duration

	// Pagination defaults (overridable per request)
	PageHeight   float64
	LineWidth    int
	BreakOnTitle bool

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		DBPath: envOr("DB_PATH", "bookpress.db"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 33554432), // 32MB

		ChunkLines:   envInt("CHUNK_LINES", 512),
		ChunkTimeout: envDuration("CHUNK_TIMEOUT", 10*time.Second),

		PageHeight:   envFloat("PAGE_HEIGHT", 36),
		LineWidth:    envInt("LINE_WIDTH", 72),
		BreakOnTitle: envBool("BREAK_ON_TITLE", true),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 33554432
	}
	if cfg.ChunkLines <= 0 {
		cfg.ChunkLines = 512
	}
	if cfg.ChunkTimeout <= 0 {
		cfg.ChunkTimeout = 10 * time.Second
	}
	if cfg.PageHeight <= 0 {
		cfg.PageHeight = 36
	}
	if cfg.LineWidth <= 0 {
		cfg.LineWidth = 72
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
