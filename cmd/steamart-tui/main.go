package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hakkai/steam-artwork-downloader/internal/appinfo"
	"github.com/hakkai/steam-artwork-downloader/internal/config"
	"github.com/hakkai/steam-artwork-downloader/internal/steamcm"
	"github.com/hakkai/steam-artwork-downloader/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The TUI draws over the terminal, so the pump logger stays silent.
	fetcher := appinfo.NewFetcher(steamcm.NewClient(), appinfo.NopLogger, settings.ConnectDeadline())
	defer fetcher.Close()

	if err := tui.Run(fetcher, settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
