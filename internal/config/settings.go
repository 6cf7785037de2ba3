package config

import (
	"fmt"
	"os"
)

// Settings holds the non-secret knobs of the service.
type Settings struct {
	Port          string
	ResultsDir    string
	TempDir       string
	UsageLogPath  string
	ConfigFile    string
	SpeechModel   string
	SpeechBaseURL string
	AnalysisModel string
	Language      string
	FFmpegPath    string
	SheetRange    string
}

// LoadSettings reads settings from the environment. Call godotenv.Load first.
func LoadSettings() Settings {
	return Settings{
		Port:          envOr("PORT", "8080"),
		ResultsDir:    envOr("RESULTS_DIR", "resultados"),
		TempDir:       envOr("TEMP_DIR", "temp"),
		UsageLogPath:  envOr("USAGE_LOG_PATH", "registro_uso.csv"),
		ConfigFile:    envOr("CONFIG_FILE", DefaultConfigFile),
		SpeechModel:   envOr("SPEECH_MODEL", "whisper-1"),
		SpeechBaseURL: os.Getenv("SPEECH_BASE_URL"),
		AnalysisModel: envOr("ANALYSIS_MODEL", "gpt-4"),
		Language:      envOr("LANGUAGE", "pt"),
		FFmpegPath:    os.Getenv("FFMPEG_PATH"),
		SheetRange:    envOr("SHEET_RANGE", "Sheet1!A:E"),
	}
}

// EnsureDirs creates the results and temp directories.
func (s Settings) EnsureDirs() error {
	for _, dir := range []string{s.ResultsDir, s.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
