package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/matzehuels/lightbox/pkg/errors"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "LIGHTBOX_"

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ReadEnvFile parses a .env file without touching the environment.
func ReadEnvFile(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return m, nil
}

// ApplyEnv overrides fields from LIGHTBOX_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	var errs []string
	setFloat := func(name string, dst *float64) {
		if v, ok := get(name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q", EnvPrefix, name, v))
				return
			}
			*dst = f
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q", EnvPrefix, name, v))
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q", EnvPrefix, name, v))
				return
			}
			*dst = b
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s=%q", EnvPrefix, name, v))
				return
			}
			*dst = d
		}
	}
	setString := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	setFloat("WIDTH", &c.Gallery.Width)
	setFloat("DIVISOR", &c.Gallery.Divisor)
	setFloat("GAP", &c.Gallery.Gap)
	setInt("INITIAL_BATCH", &c.Gallery.InitialBatch)
	setInt("BATCH_INCREMENT", &c.Gallery.BatchIncrement)
	setString("INVALID_POLICY", &c.Gallery.InvalidPolicy)
	setBool("REQUIRE_TIERS", &c.Gallery.RequireTiers)

	if v, ok := get("VIEWPORT"); ok {
		w, h, err := ParseViewport(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%sVIEWPORT=%q", EnvPrefix, v))
		} else {
			c.Viewer.Width, c.Viewer.Height = w, h
		}
	}
	setString("QUALITY", &c.Viewer.Quality)
	setDuration("SETTLE_DELAY", &c.Viewer.SettleDelay)

	setInt("RETRY_ATTEMPTS", &c.Catalog.RetryAttempts)
	setString("MONGO_DATABASE", &c.Catalog.MongoDatabase)
	setString("MONGO_COLLECTION", &c.Catalog.MongoCollection)

	setString("CACHE", &c.Cache.Backend)
	setString("CACHE_DIR", &c.Cache.Dir)
	setString("REDIS_ADDR", &c.Cache.RedisAddr)
	setString("REDIS_PASSWORD", &c.Cache.RedisPassword)
	setInt("REDIS_DB", &c.Cache.RedisDB)

	setString("ADDR", &c.Server.Addr)
	setDuration("SESSION_TTL", &c.Server.SessionTTL)

	if len(errs) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid environment: %s", strings.Join(errs, ", "))
	}
	return nil
}

// ParseViewport parses "WIDTHxHEIGHT".
func ParseViewport(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "viewport %q: want WIDTHxHEIGHT", s)
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(ws))
	h, err2 := strconv.Atoi(strings.TrimSpace(hs))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "viewport %q: want positive WIDTHxHEIGHT", s)
	}
	return w, h, nil
}
