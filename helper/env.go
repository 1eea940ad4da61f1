package helper

import (
	"os"
	"strconv"
	"time"
)

// EnvString returns the value of key or def when it is unset or empty.
func EnvString(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok && len(v) > 0 {
		return v
	}
	return def
}

// EnvInt returns key parsed as int or def when unset or malformed.
func EnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || len(v) == 0 {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// EnvFloat returns key parsed as float64 or def when unset or malformed.
func EnvFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || len(v) == 0 {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// EnvDuration accepts Go durations ("10s") and plain seconds ("10").
func EnvDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || len(v) == 0 {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(s * float64(time.Second))
	}
	return def
}
