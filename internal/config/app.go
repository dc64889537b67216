package config

import (
	"os"
	"strings"
)

func BasePath() string {
	return os.Getenv("APP_BASE_PATH")
}

// Addr returns the address the service listens on, ":8080" by default.
func Addr() string {
	addr, ok := os.LookupEnv("APP_ADDR")
	if !ok || addr == "" {
		return ":8080"
	}
	return addr
}

// AllowedOrigins reads the comma separated ALLOWED_ORIGINS list. An empty
// list allows every origin.
func AllowedOrigins() []string {
	var origins []string
	s, ok := os.LookupEnv("ALLOWED_ORIGINS")
	if !ok {
		return nil
	}
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
