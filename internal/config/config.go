package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load applies an optional .env file; real environment variables win.
func Load() {
	_ = godotenv.Load()
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func MustGet(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func GetFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
