package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/models"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
	ResetTokenTTL  time.Duration
	LoginPerMinute int
	LoginBurst     int
	MigrateOnStart bool
	TrustedProxies []netip.Prefix
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:           fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "servicedesk-backend"),
		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:       strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:      strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "text")),
		JWTTTL:         minutes(os.Getenv("JWT_TTL_MINUTES"), 60),
		ResetTokenTTL:  minutes(os.Getenv("RESET_TOKEN_TTL_MINUTES"), 60),
		LoginPerMinute: positiveInt(os.Getenv("LOGIN_RATE_PER_MINUTE"), 10),
		LoginBurst:     positiveInt(os.Getenv("LOGIN_RATE_BURST"), 5),
		MigrateOnStart: boolean(os.Getenv("MIGRATE_ON_START"), true),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	proxies, err := parsePrefixes(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = proxies
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Access returns the access gate configuration.
func (c Config) Access() access.Config {
	modules := make([]models.Module, len(models.AllModules))
	copy(modules, models.AllModules)
	return access.Config{Modules: modules}
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func minutes(raw string, def int) time.Duration {
	return time.Duration(positiveInt(raw, def)) * time.Minute
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func boolean(raw string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// parsePrefixes reads a CSV of CIDRs or bare addresses.
func parsePrefixes(input string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
