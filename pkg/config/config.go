// Package config loads the pipeline's runtime configuration from flags,
// environment variables, and an optional .env file.
package config

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every tunable the pipeline's components need at startup.
type Config struct {
	ModelPath string
	OutputDir string
	Host      string
	Port      int
	AudioURL  string // remote audio ingestion (NetSource), empty = mic
	RescanURL string // parsed from --rescan; the pipeline does not read it
	LogLevel  string

	VADThreshold float64
	VADPadMs     float64
	VADSilenceMs float64

	SecondsPerScan    float64
	PreBufferSeconds  float64
	WorkerCount       int
	WhisperTimeoutSec float64
	WhisperURL        string
	WhisperAPIKey     string

	MatchThreshold float64
	StartPhrases   []string
	EndPhrases     []string

	DatabaseDSN        string
	DisablePersistence bool

	RingRetentionSeconds float64
}

// Load reads .env (if present), then environment variables, then CLI
// flags (highest precedence), mirroring the teacher's
// godotenv.Load()-then-os.Getenv startup sequence.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using process environment")
	}

	cfg := Config{
		ModelPath:         envStr("DICTATION_MODEL_PATH", ""),
		OutputDir:         envStr("DICTATION_OUTPUT_DIR", "."),
		Host:              envStr("DICTATION_HOST", "0.0.0.0"),
		Port:              envInt("DICTATION_PORT", 8080),
		AudioURL:          envStr("DICTATION_AUDIO_URL", ""),
		RescanURL:         envStr("DICTATION_RESCAN_URL", ""),
		LogLevel:          envStr("DICTATION_LOG_LEVEL", "INFO"),
		VADThreshold:      envFloat("DICTATION_VAD_THRESHOLD", 0.02),
		VADPadMs:          envFloat("DICTATION_VAD_PAD_MS", 500),
		VADSilenceMs:      envFloat("DICTATION_VAD_SILENCE_MS", 800),
		SecondsPerScan:    envFloat("DICTATION_SECONDS_PER_SCAN", 6.0),
		PreBufferSeconds:  envFloat("DICTATION_PRE_BUFFER_SECONDS", 0.5),
		WorkerCount:       envInt("DICTATION_WORKER_COUNT", 2),
		WhisperTimeoutSec: envFloat("DICTATION_WHISPER_TIMEOUT_SEC", 15),
		WhisperURL:        envStr("DICTATION_WHISPER_URL", "https://api.groq.com/openai/v1/audio/transcriptions"),
		WhisperAPIKey:     envStr("DICTATION_WHISPER_API_KEY", ""),
		MatchThreshold:    envFloat("DICTATION_MATCH_THRESHOLD", 0.80),
		DatabaseDSN:          envStr("DICTATION_DATABASE_DSN", ""),
		DisablePersistence:   envBool("DICTATION_DISABLE_PERSISTENCE", false),
		RingRetentionSeconds: envFloat("DICTATION_RING_RETENTION_SECONDS", 12.0),
	}
	cfg.StartPhrases = envList("DICTATION_START_PHRASES", []string{"take this down"})
	cfg.EndPhrases = envList("DICTATION_END_PHRASES", []string{"break break"})

	fs := flag.NewFlagSet("dictation", flag.ContinueOnError)
	fs.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "path to the ASR model")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for local artifacts")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP/websocket bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP/websocket bind port")
	fs.StringVar(&cfg.AudioURL, "audio-url", cfg.AudioURL, "remote audio ingestion URL")
	fs.StringVar(&cfg.RescanURL, "rescan", cfg.RescanURL, "rescan source URL (accepted but not used by the pipeline)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "DEBUG, INFO, WARNING, or ERROR")
	fs.BoolVar(&cfg.DisablePersistence, "disable-persistence", cfg.DisablePersistence, "run without a draft store; /drafts and /api/revisions return 503")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envFloat(key string, fallback float64) float64 {
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

// envList splits a comma-separated environment variable into phrases,
// trimming surrounding whitespace from each.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
