package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/skedda-booker/internal/booking"
	"github.com/example/skedda-booker/internal/internaltypes"
	"github.com/example/skedda-booker/internal/secrets"
)

const (
	DefaultFile     = "config.json"
	DefaultBaseURL  = "https://your-instance.skedda.com"
	DefaultTimezone = "Australia/Melbourne"
)

type Config struct {
	BaseURL string
	VenueID string
	UserID  string
	Cookies string
	Token   string
	Spaces  []booking.Candidate

	DaysAhead    int
	Location     *time.Location
	StartTime    string
	EndTime      string
	Unparsable   booking.UnparsablePolicy
	GitHubOutput string

	// optional run history
	DatabaseURL string

	// daemon
	RunAt        string
	PollInterval time.Duration

	LogLevel slog.Level
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]json.RawMessage
}

func (s source) raw(k string) (json.RawMessage, bool) {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		b, _ := json.Marshal(v)
		return b, true
	}
	v, ok := s.file[k]
	if !ok || len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null" {
		return nil, false
	}
	return v, true
}

func (s source) get(k string) string {
	v, ok := s.raw(k)
	if !ok {
		return ""
	}
	var str string
	if err := json.Unmarshal(v, &str); err == nil {
		return strings.TrimSpace(str)
	}
	return strings.TrimSpace(string(v))
}

func (s source) getDefault(k, def string) string {
	if v := s.get(k); v != "" {
		return v
	}
	return def
}

func readFile(path string) (map[string]json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load reads .env (if present), the environment and the JSON config file at path.
// Environment values win over the file. Missing credentials wrap ErrConfigMissing.
func Load(path string) (Config, error) {
	src, err := open(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		BaseURL:      strings.TrimRight(src.getDefault("SKEDDA_BASE_URL", DefaultBaseURL), "/"),
		VenueID:      src.get("SKEDDA_VENUE_ID"),
		UserID:       src.get("SKEDDA_USER_ID"),
		StartTime:    booking.NormalizeClock(src.getDefault("BOOKING_START", "08:30:00")),
		EndTime:      booking.NormalizeClock(src.getDefault("BOOKING_END", "17:00:00")),
		GitHubOutput: os.Getenv("GITHUB_OUTPUT"),
		DatabaseURL:  src.get("DATABASE_URL"),
		RunAt:        booking.NormalizeClock(src.getDefault("RUN_AT", "00:00:05")),
	}

	var missing []string
	if cfg.VenueID == "" {
		missing = append(missing, "SKEDDA_VENUE_ID")
	}
	if cfg.UserID == "" {
		missing = append(missing, "SKEDDA_USER_ID")
	}

	box, err := credBox(src)
	if err != nil {
		return Config{}, err
	}
	if cfg.Cookies, err = secrets.Reveal(box, "SKEDDA_COOKIES", src.get("SKEDDA_COOKIES")); err != nil {
		return Config{}, err
	}
	if cfg.Token, err = secrets.Reveal(box, "SKEDDA_TOKEN", src.get("SKEDDA_TOKEN")); err != nil {
		return Config{}, err
	}
	if cfg.Cookies == "" {
		missing = append(missing, "SKEDDA_COOKIES")
	}
	if cfg.Token == "" {
		missing = append(missing, "SKEDDA_TOKEN")
	}

	spaces, ok := spacesJSON(src)
	if !ok {
		missing = append(missing, "SKEDDA_SPACES")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s (run setup first)", internaltypes.ErrConfigMissing, strings.Join(missing, ", "))
	}
	if cfg.Spaces, err = booking.ParseCandidates(spaces); err != nil {
		return Config{}, err
	}

	if cfg.DaysAhead, err = strconv.Atoi(src.getDefault("DAYS_AHEAD", "14")); err != nil || cfg.DaysAhead < 0 {
		return Config{}, fmt.Errorf("invalid DAYS_AHEAD")
	}
	tz := src.getDefault("TIMEZONE", DefaultTimezone)
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if cfg.Unparsable, err = booking.ParsePolicy(src.get("UNPARSABLE_POLICY")); err != nil {
		return Config{}, err
	}
	pollSec, err := strconv.Atoi(src.getDefault("SCHED_POLL_SECONDS", "30"))
	if err != nil || pollSec < 1 {
		return Config{}, fmt.Errorf("invalid SCHED_POLL_SECONDS")
	}
	cfg.PollInterval = time.Duration(pollSec) * time.Second
	if err := cfg.LogLevel.UnmarshalText([]byte(src.getDefault("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// LoadCookies resolves only what is needed to talk to the venue page: the base
// URL and the session cookies. The token command uses it before a token exists.
func LoadCookies(path string) (baseURL, cookies string, err error) {
	src, err := open(path)
	if err != nil {
		return "", "", err
	}
	box, err := credBox(src)
	if err != nil {
		return "", "", err
	}
	if cookies, err = secrets.Reveal(box, "SKEDDA_COOKIES", src.get("SKEDDA_COOKIES")); err != nil {
		return "", "", err
	}
	if cookies == "" {
		return "", "", fmt.Errorf("%w: SKEDDA_COOKIES", internaltypes.ErrConfigMissing)
	}
	return strings.TrimRight(src.getDefault("SKEDDA_BASE_URL", DefaultBaseURL), "/"), cookies, nil
}

func open(path string) (source, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return source{}, fmt.Errorf("load .env: %w", err)
	}
	file, err := readFile(path)
	if err != nil {
		return source{}, err
	}
	return source{file: file}, nil
}

func credBox(src source) (*secrets.Box, error) {
	key := src.get("SKEDDA_CRED_KEY")
	if key == "" {
		return nil, nil
	}
	box, err := secrets.FromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("SKEDDA_CRED_KEY: %w", err)
	}
	return box, nil
}

// spacesJSON accepts the mapping as a JSON object or as a string holding one,
// which is how setup writes it.
func spacesJSON(src source) ([]byte, bool) {
	raw, ok := src.raw("SKEDDA_SPACES")
	if !ok {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return []byte(s), s != ""
	}
	return raw, true
}
