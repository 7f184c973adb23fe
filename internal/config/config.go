package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendVision = "vision"
	BackendGemini = "gemini"

	DefaultSettingsFile   = "appsettings.json"
	DefaultVisualFeatures = "Categories,Description,Color"
	DefaultLanguage       = "en"
	DefaultConcurrent     = 4
	DefaultPattern        = "*.jpg"
	DefaultTimeout        = 30 * time.Second
	DefaultRetryMax       = 3
)

var ErrMissingSetting = errors.New("missing required setting")

type Config struct {
	Backend string

	// Computer Vision REST backend.
	Endpoint       string
	APIKey         string
	VisualFeatures string
	Language       string
	Details        string

	// Gemini backend.
	Location string
	Model    string
	Project  string

	Concurrent int
	ImageDir   string
	Pattern    string
	Recursive  bool
	OutputDir  string
	Timeout    time.Duration
	RetryMax   int
}

// settings maps each viper key to the environment variable that overrides it.
var settings = map[string]string{
	"backend":        "BACKEND",
	"apiendpoint":    "VISION_API_ENDPOINT",
	"apikey":         "VISION_API_KEY",
	"visualfeatures": "VISUAL_FEATURES",
	"language":       "LANGUAGE",
	"details":        "DETAILS",
	"location":       "LOCATION",
	"model":          "MODEL",
	"project":        "PROJECT",
	"concurrent":     "CONCURRENT",
	"imagedir":       "IMAGE_DIR",
	"pattern":        "PATTERN",
	"recursive":      "RECURSIVE",
	"outputdir":      "OUTPUT_DIR",
	"timeout":        "TIMEOUT",
	"retrymax":       "RETRY_MAX",
}

// Load reads .env into the environment, then merges settingsFile (JSON) with
// environment overrides. Neither file has to exist.
func Load(settingsFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
		log.Debug("no .env file found")
	}

	v := viper.New()
	v.SetDefault("backend", BackendVision)
	v.SetDefault("visualfeatures", DefaultVisualFeatures)
	v.SetDefault("language", DefaultLanguage)
	v.SetDefault("concurrent", DefaultConcurrent)
	v.SetDefault("pattern", DefaultPattern)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("retrymax", DefaultRetryMax)

	for key, env := range settings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading %s: %w", settingsFile, err)
			}
			log.Debug("settings file not found", "path", settingsFile)
		}
	}

	cfg := &Config{
		Backend:        strings.ToLower(v.GetString("backend")),
		Endpoint:       v.GetString("apiendpoint"),
		APIKey:         v.GetString("apikey"),
		VisualFeatures: v.GetString("visualfeatures"),
		Language:       v.GetString("language"),
		Details:        v.GetString("details"),
		Location:       v.GetString("location"),
		Model:          v.GetString("model"),
		Project:        v.GetString("project"),
		Concurrent:     v.GetInt("concurrent"),
		ImageDir:       v.GetString("imagedir"),
		Pattern:        v.GetString("pattern"),
		Recursive:      v.GetBool("recursive"),
		OutputDir:      v.GetString("outputdir"),
		Timeout:        v.GetDuration("timeout"),
		RetryMax:       v.GetInt("retrymax"),
	}
	if cfg.Concurrent <= 0 {
		cfg.Concurrent = DefaultConcurrent
	}

	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendVision:
		if c.Endpoint == "" {
			return fmt.Errorf("%w: APIEndpoint", ErrMissingSetting)
		}
		if c.APIKey == "" {
			return fmt.Errorf("%w: APIKey", ErrMissingSetting)
		}
	case BackendGemini:
		if c.Project == "" || c.Location == "" || c.Model == "" {
			return fmt.Errorf("%w: PROJECT, LOCATION and MODEL are required for the gemini backend", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Concurrent <= 0 {
		return fmt.Errorf("concurrent must be positive, got %d", c.Concurrent)
	}
	return nil
}
