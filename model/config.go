package model

import (
	"time"

	"github.com/siherrmann/civicgraph/helper"
)

// IngestConfig configures the portal collaborator and range ingestion.
type IngestConfig struct {
	PortalBaseURL     string        `json:"portal_base_url"`
	PortalTimeout     time.Duration `json:"portal_timeout"`
	PortalRatePerSec  float64       `json:"portal_rate_per_sec"`
	PortalCacheTTL    time.Duration `json:"portal_cache_ttl"`
	MaxRangeDays      int           `json:"max_range_days"`
	ChunkDays         int           `json:"chunk_days"`
	DefaultLimit      int           `json:"default_limit"`
	MaxActiveJobs     int           `json:"max_active_jobs"`
	JobCooldown       time.Duration `json:"job_cooldown"`
	DiscoveryCacheTTL time.Duration `json:"discovery_cache_ttl"`
	Workers           int           `json:"workers"`
	DefaultCity       string        `json:"default_city"`
	DefaultState      string        `json:"default_state"`
	RedisAddr         string        `json:"redis_addr,omitempty"`
}

// DefaultIngestConfig returns the default ingestion configuration.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		PortalBaseURL:     "https://urbandaleia.civicweb.net",
		PortalTimeout:     30 * time.Second,
		PortalRatePerSec:  4,
		PortalCacheTTL:    10 * time.Minute,
		MaxRangeDays:      180,
		ChunkDays:         31,
		DefaultLimit:      50,
		MaxActiveJobs:     1,
		JobCooldown:       10 * time.Second,
		DiscoveryCacheTTL: 60 * time.Minute,
		Workers:           4,
		DefaultCity:       "Urbandale",
		DefaultState:      "Iowa",
	}
}

// LoadIngestConfig applies CIVIC_* environment overrides on top of the defaults.
func LoadIngestConfig() IngestConfig {
	c := DefaultIngestConfig()
	c.PortalBaseURL = helper.EnvString("CIVIC_PORTAL_BASE_URL", c.PortalBaseURL)
	c.PortalTimeout = helper.EnvDuration("CIVIC_PORTAL_TIMEOUT", c.PortalTimeout)
	c.PortalRatePerSec = helper.EnvFloat("CIVIC_PORTAL_RATE", c.PortalRatePerSec)
	c.PortalCacheTTL = helper.EnvDuration("CIVIC_PORTAL_CACHE_TTL", c.PortalCacheTTL)
	c.MaxRangeDays = helper.EnvInt("CIVIC_MAX_RANGE_DAYS", c.MaxRangeDays)
	c.ChunkDays = helper.EnvInt("CIVIC_CHUNK_DAYS", c.ChunkDays)
	c.DefaultLimit = helper.EnvInt("CIVIC_DEFAULT_LIMIT", c.DefaultLimit)
	c.MaxActiveJobs = helper.EnvInt("CIVIC_MAX_ACTIVE_JOBS", c.MaxActiveJobs)
	c.JobCooldown = helper.EnvDuration("CIVIC_JOB_COOLDOWN", c.JobCooldown)
	c.DiscoveryCacheTTL = helper.EnvDuration("CIVIC_DISCOVERY_CACHE_TTL", c.DiscoveryCacheTTL)
	c.Workers = helper.EnvInt("CIVIC_WORKERS", c.Workers)
	c.DefaultCity = helper.EnvString("CIVIC_DEFAULT_CITY", c.DefaultCity)
	c.DefaultState = helper.EnvString("CIVIC_DEFAULT_STATE", c.DefaultState)
	c.RedisAddr = helper.EnvString("CIVIC_REDIS_ADDR", c.RedisAddr)
	return c
}

// SuggestConfig configures the suggest scorer.
type SuggestConfig struct {
	PoolSize int     `json:"pool_size"` // most recent entities considered
	MinScore float64 `json:"min_score"`
	Limit    int     `json:"limit"`
}

// DefaultSuggestConfig returns the default suggest configuration.
func DefaultSuggestConfig() SuggestConfig {
	return SuggestConfig{
		PoolSize: 500,
		MinScore: 0.4,
		Limit:    10,
	}
}
