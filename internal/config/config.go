package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string       `json:"serverAddress"`
	DatabasePath  string       `json:"databasePath"`
	DatabaseURL   string       `json:"databaseUrl"`
	Timezone      string       `json:"timezone"`
	SessionHours  int          `json:"sessionHours"`
	PhotoStorage  PhotoStorage `json:"photoStorage"`
	Analyzer      Analyzer     `json:"analyzer"`
	Timelapse     Timelapse    `json:"timelapse"`
}

// PhotoStorage configuration
type PhotoStorage struct {
	BasePath          string   `json:"basePath"`
	MaxFileSizeMB     int64    `json:"maxFileSizeMB"`
	AllowedExtensions []string `json:"allowedExtensions"`
}

// Analyzer configures the external emotion analysis API
type Analyzer struct {
	Endpoint        string `json:"endpoint"`
	SummaryEndpoint string `json:"summaryEndpoint"`
	APIKey          string `json:"apiKey"`
	CredentialsPath string `json:"credentialsPath"`
	TimeoutSeconds  int    `json:"timeoutSeconds"`
}

// Timelapse configures monthly timelapse generation
type Timelapse struct {
	FrameRate  float64 `json:"frameRate"`
	FFmpegPath string  `json:"ffmpegPath"`
	OutputDir  string  `json:"outputDir"`
}

// UsePostgres returns true if PostgreSQL should be used for the photo store
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Location resolves the configured timezone, falling back to the host local zone
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":8000",
		DatabasePath:  "emolog.db",
		SessionHours:  24,
		PhotoStorage: PhotoStorage{
			BasePath:      "./media",
			MaxFileSizeMB: 25,
			AllowedExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif",
			},
		},
		Analyzer: Analyzer{
			TimeoutSeconds: 30,
		},
		Timelapse: Timelapse{
			FrameRate:  2,
			FFmpegPath: "ffmpeg",
			OutputDir:  "./timelapse",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	if basePath := os.Getenv("PHOTO_STORAGE_PATH"); basePath != "" {
		cfg.PhotoStorage.BasePath = basePath
	}
	if endpoint := os.Getenv("ANALYZER_ENDPOINT"); endpoint != "" {
		cfg.Analyzer.Endpoint = endpoint
	}
	if endpoint := os.Getenv("ANALYZER_SUMMARY_ENDPOINT"); endpoint != "" {
		cfg.Analyzer.SummaryEndpoint = endpoint
	}
	if key := os.Getenv("ANALYZER_API_KEY"); key != "" {
		cfg.Analyzer.APIKey = key
	}
	if creds := os.Getenv("ANALYZER_CREDENTIALS"); creds != "" {
		cfg.Analyzer.CredentialsPath = creds
	}
	if ffmpeg := os.Getenv("TIMELAPSE_FFMPEG"); ffmpeg != "" {
		cfg.Timelapse.FFmpegPath = ffmpeg
	}
	if dir := os.Getenv("TIMELAPSE_OUTPUT_DIR"); dir != "" {
		cfg.Timelapse.OutputDir = dir
	}
	if fps := os.Getenv("TIMELAPSE_FRAME_RATE"); fps != "" {
		if v, err := strconv.ParseFloat(fps, 64); err == nil && v > 0 {
			cfg.Timelapse.FrameRate = v
		}
	}
	if hours := os.Getenv("SESSION_HOURS"); hours != "" {
		if v, err := strconv.Atoi(hours); err == nil && v > 0 {
			cfg.SessionHours = v
		}
	}

	// Ensure storage directories exist
	if err := os.MkdirAll(cfg.PhotoStorage.BasePath, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Timelapse.OutputDir, 0755); err != nil {
		return nil, err
	}

	// Make paths absolute
	absPath, err := filepath.Abs(cfg.PhotoStorage.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.PhotoStorage.BasePath = absPath

	absOut, err := filepath.Abs(cfg.Timelapse.OutputDir)
	if err != nil {
		return nil, err
	}
	cfg.Timelapse.OutputDir = absOut

	return cfg, nil
}
