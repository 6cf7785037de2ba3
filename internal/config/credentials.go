package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

const (
	DefaultConfigFile = "config.json"
	DefaultMailHost   = "smtp.gmail.com"
	DefaultMailPort   = 587
)

// ErrSourceNotConfigured means a source has nothing to offer, as opposed to being broken.
var ErrSourceNotConfigured = errors.New("credential source not configured")

// Source is one place credentials may come from.
type Source interface {
	Name() string
	Load() (types.Credentials, error)
}

// Resolver tries its sources in order and keeps the first that carries every mandatory key.
type Resolver struct {
	sources []Source
	log     *logger.Logger
}

func NewResolver(log *logger.Logger, sources ...Source) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{sources: sources, log: log.Component("config")}
}

// DefaultResolver checks the process environment first, then the local config file.
func DefaultResolver(log *logger.Logger, configFile string) *Resolver {
	return NewResolver(log, NewEnvSource(os.LookupEnv), NewFileSource(configFile))
}

// Resolve returns the credentials of the first complete source. Sources are never merged.
func (r *Resolver) Resolve() (types.Credentials, error) {
	var tried []string
	for _, src := range r.sources {
		log := r.log.WithField("source", src.Name())
		creds, err := src.Load()
		if err != nil {
			log.WithError(err).Info("credential source skipped")
			tried = append(tried, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		if missing := creds.Missing(); len(missing) > 0 {
			log.WithField("missing", strings.Join(missing, ",")).Warn("credential source incomplete")
			tried = append(tried, fmt.Sprintf("%s: missing %s", src.Name(), strings.Join(missing, ",")))
			continue
		}
		applyDefaults(&creds)
		log.WithField("spreadsheet", creds.SpreadsheetEnabled()).Info("credentials resolved")
		return creds, nil
	}
	return types.Credentials{}, fmt.Errorf("%w: no source provided speech key, mail address and mail secret (%s)",
		types.ErrConfiguration, strings.Join(tried, "; "))
}

func applyDefaults(c *types.Credentials) {
	if strings.TrimSpace(c.MailHost) == "" {
		c.MailHost = DefaultMailHost
	}
	if c.MailPort <= 0 {
		c.MailPort = DefaultMailPort
	}
}

// EnvSource reads secrets the hosting platform injects into the process environment.
type EnvSource struct {
	lookup func(string) (string, bool)
}

func NewEnvSource(lookup func(string) (string, bool)) *EnvSource {
	return &EnvSource{lookup: lookup}
}

func (s *EnvSource) Name() string { return "environment" }

func (s *EnvSource) Load() (types.Credentials, error) {
	get := func(k string) string {
		v, _ := s.lookup(k)
		return strings.TrimSpace(v)
	}
	creds := types.Credentials{
		SpeechKey:   get("OPENAI_API_KEY"),
		MailAddress: get("EMAIL_ADDRESS"),
		MailSecret:  get("EMAIL_PASSWORD"),
		MailHost:    get("SMTP_SERVER"),
		SheetID:     get("GOOGLE_SHEET_ID"),
	}
	if raw := get("GOOGLE_SHEETS_CREDENTIALS"); raw != "" {
		creds.SpreadsheetCredentials = []byte(raw)
	}
	if p := get("SMTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return types.Credentials{}, fmt.Errorf("SMTP_PORT %q: %w", p, err)
		}
		creds.MailPort = port
	}
	if creds.SpeechKey == "" && creds.MailAddress == "" && creds.MailSecret == "" {
		return types.Credentials{}, ErrSourceNotConfigured
	}
	return creds, nil
}

// fileCredentials is the on-disk shape of config.json.
type fileCredentials struct {
	OpenAIAPIKey      string          `json:"openai_api_key"`
	EmailAddress      string          `json:"email_address"`
	EmailPassword     string          `json:"email_password"`
	SMTPServer        string          `json:"smtp_server"`
	SMTPPort          json.Number     `json:"smtp_port"`
	GCPServiceAccount json.RawMessage `json:"gcp_service_account"`
	SheetID           string          `json:"sheet_id"`
}

// FileSource reads a JSON config file at a fixed path.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	if path == "" {
		path = DefaultConfigFile
	}
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Load() (types.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Credentials{}, ErrSourceNotConfigured
		}
		return types.Credentials{}, err
	}

	var fc fileCredentials
	if err := json.Unmarshal(data, &fc); err != nil {
		return types.Credentials{}, fmt.Errorf("parse %s: %w", s.path, err)
	}

	creds := types.Credentials{
		SpeechKey:   strings.TrimSpace(fc.OpenAIAPIKey),
		MailAddress: strings.TrimSpace(fc.EmailAddress),
		MailSecret:  strings.TrimSpace(fc.EmailPassword),
		MailHost:    strings.TrimSpace(fc.SMTPServer),
		SheetID:     strings.TrimSpace(fc.SheetID),
	}
	if fc.SMTPPort != "" {
		port, err := strconv.Atoi(string(fc.SMTPPort))
		if err != nil {
			return types.Credentials{}, fmt.Errorf("smtp_port %q: %w", fc.SMTPPort, err)
		}
		creds.MailPort = port
	}
	creds.SpreadsheetCredentials = serviceAccountJSON(fc.GCPServiceAccount)
	return creds, nil
}

// serviceAccountJSON accepts the service account either as an embedded object or as a JSON string.
func serviceAccountJSON(raw json.RawMessage) []byte {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return nil
		}
		return []byte(s)
	}
	return []byte(trimmed)
}
