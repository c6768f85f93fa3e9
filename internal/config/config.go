// Package config handles meshcache configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrInvalidWorkers is returned when the extraction pool size is negative.
var ErrInvalidWorkers = errors.New("cache.workers must be >= 0")

// ErrInvalidQueue is returned when the extraction queue size is not positive.
var ErrInvalidQueue = errors.New("cache.queue_size must be > 0")

// Config holds all settings.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig holds batch cache and extraction settings.
type CacheConfig struct {
	Workers           int           `yaml:"workers"`            // 0 = NumCPU-1
	QueueSize         int           `yaml:"queue_size"`         // Extraction job queue capacity
	IdleTimeout       time.Duration `yaml:"idle_timeout"`       // Worker idle timeout
	ParallelThreshold int           `yaml:"parallel_threshold"` // Fewer jobs than this run inline
	Serial            bool          `yaml:"serial"`             // Never fan out
	DebugChecks       bool          `yaml:"debug_checks"`       // Assert buffer layout after extraction
}

// ViewerConfig holds display settings for meshview.
type ViewerConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Mesh       string `yaml:"mesh"` // OBJ path or primitive name (cube, grid, points)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Workers:           0,
			QueueSize:         256,
			IdleTimeout:       time.Second,
			ParallelThreshold: 4,
		},
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			Mesh:   "cube",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if c.Cache.Workers < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Cache.Workers)
	}
	if c.Cache.QueueSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQueue, c.Cache.QueueSize)
	}
	return nil
}

// WorkerCount resolves the configured pool size.
func (c CacheConfig) WorkerCount() int {
	if c.Serial {
		return 1
	}
	if c.Workers > 0 {
		return c.Workers
	}
	return max(runtime.NumCPU()-1, 1)
}
