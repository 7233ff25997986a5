package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// Settings holds all configuration options.
type Settings struct {
	// Network settings
	CDNBaseURL     string  `json:"cdn_base_url"`
	ConnectTimeout float64 `json:"connect_timeout_seconds"`
	FetchTimeout   float64 `json:"fetch_timeout_seconds"`

	// Download settings
	MaxConcurrentDownloads int    `json:"max_concurrent_downloads"`
	OutputDir              string `json:"output_dir"`
	OutputFileNameFormat   string `json:"output_file_name_format"`

	// Defaults applied when a spec omits a part
	DefaultLanguage string `json:"default_language"`

	// Image post-processing
	ResizeImages  bool `json:"resize_images"`
	ResizeMaxSize int  `json:"resize_max_size"`
	ConvertToJPG  bool `json:"convert_to_jpg"`

	// Diagnostics
	Debug bool `json:"debug"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		CDNBaseURL:     "https://shared.fastly.steamstatic.com",
		ConnectTimeout: 30,
		FetchTimeout:   30,

		MaxConcurrentDownloads: 4,
		OutputDir:              ".",
		OutputFileNameFormat:   "{id}_{type}_{variant}_{language}",

		DefaultLanguage: model.DefaultLanguage,

		ResizeImages:  false,
		ResizeMaxSize: 1000,
		ConvertToJPG:  false,

		Debug: false,
	}
}

// Load reads settings from a JSON file. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FetchDeadline converts the configured fetch timeout to a duration.
func (s *Settings) FetchDeadline() time.Duration {
	return time.Duration(s.FetchTimeout * float64(time.Second))
}

// ConnectDeadline converts the configured connect timeout to a duration.
func (s *Settings) ConnectDeadline() time.Duration {
	return time.Duration(s.ConnectTimeout * float64(time.Second))
}
