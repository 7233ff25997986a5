// Package config loads and saves the steam-artwork-downloader settings
// file.
//
// Settings are stored as JSON. Load falls back to DefaultSettings when the
// file does not exist, so the tools work out of the box:
//
//	settings, err := config.Load("/home/user/.config/steamart/config.json")
//
// Command line flags override individual fields after loading.
package config
