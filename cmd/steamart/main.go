package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	lipglosstable "github.com/charmbracelet/lipgloss/table"

	"github.com/hakkai/steam-artwork-downloader/internal/appinfo"
	"github.com/hakkai/steam-artwork-downloader/internal/artwork"
	"github.com/hakkai/steam-artwork-downloader/internal/config"
	"github.com/hakkai/steam-artwork-downloader/internal/download"
	httpx "github.com/hakkai/steam-artwork-downloader/internal/http"
	ioutils "github.com/hakkai/steam-artwork-downloader/internal/io"
	"github.com/hakkai/steam-artwork-downloader/internal/model"
	"github.com/hakkai/steam-artwork-downloader/internal/steamcm"
)

func main() {
	err := run(os.Args[1:])
	if err != nil && err.Error() != "" {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCodeForError(err))
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return withExitCode(fmt.Errorf(""), codeUsage)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	switch args[0] {
	case "available":
		return classify(runAvailable(ctx, args[1:]))
	case "single":
		return classify(runSingle(ctx, args[1:]))
	case "batch":
		return classify(runBatch(ctx, args[1:]))
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return withExitCode(fmt.Errorf("unknown command %q", args[0]), codeUsage)
	}
}

func printUsage() {
	fmt.Println("Steam Artwork Downloader - Download library artwork from Steam's CDN")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  steamart available [-filter-type TYPE] <appID>")
	fmt.Println("  steamart single [-o PATH] [-max-size N] [-jpg] <appID> <type> <variant> [language]")
	fmt.Println("  steamart batch [-delimiter C] [-output DIR] [-max-size N] [-jpg] [-verbose] <jobs.csv>")
	fmt.Println()
	fmt.Println("All commands accept -config PATH to load a settings file.")
	fmt.Println()
	fmt.Println("For interactive mode, use: steamart-tui")
}

// runAvailable lists every artwork variant of one app as a table.
func runAvailable(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("available", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to config file")
	filterFlag := fs.String("filter-type", "", "Only list variants of this asset type")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, codeUsage)
	}
	if fs.NArg() != 1 {
		return withExitCode(fmt.Errorf("available takes exactly one app ID"), codeUsage)
	}

	id, err := parseAppID(fs.Arg(0))
	if err != nil {
		return withExitCode(err, codeUsage)
	}
	settings, err := config.Load(*configFlag)
	if err != nil {
		return err
	}

	fetcher := newFetcher(settings)
	defer fetcher.Close()

	meta, err := fetchOne(ctx, fetcher, settings, id)
	if err != nil {
		return err
	}

	variants := artwork.FilterType(artwork.ListVariants(settings.CDNBaseURL, id, meta), *filterFlag)
	if len(variants) == 0 {
		if *filterFlag != "" {
			fmt.Printf("App %d has no %s artwork.\n", id, *filterFlag)
		} else {
			fmt.Printf("App %d has no library artwork.\n", id)
		}
		return nil
	}

	t := lipglosstable.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "VARIANT", "LANGUAGE")
	for _, v := range variants {
		t.Row(v.Type, v.Variant, v.Language)
	}
	fmt.Println(t.Render())
	fmt.Printf("%d variant(s)\n", len(variants))
	return nil
}

// runSingle downloads one asset. A missing asset is reported and is not an
// error; the metadata told us everything we asked it to.
func runSingle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("single", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to config file")
	outputFlag := fs.String("o", "", "Output file path")
	maxSizeFlag := fs.Int("max-size", 0, "Resize to fit within this many pixels")
	jpgFlag := fs.Bool("jpg", false, "Re-encode as JPEG")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, codeUsage)
	}
	if fs.NArg() < 3 || fs.NArg() > 4 {
		return withExitCode(fmt.Errorf("single takes <appID> <type> <variant> [language]"), codeUsage)
	}

	id, err := parseAppID(fs.Arg(0))
	if err != nil {
		return withExitCode(err, codeUsage)
	}
	settings, err := config.Load(*configFlag)
	if err != nil {
		return err
	}

	typ, variant := fs.Arg(1), fs.Arg(2)
	language := settings.DefaultLanguage
	if fs.NArg() == 4 {
		language = fs.Arg(3)
	}

	fetcher := newFetcher(settings)
	defer fetcher.Close()

	meta, err := fetchOne(ctx, fetcher, settings, id)
	if err != nil {
		return err
	}

	url, ok := artwork.ResolveURL(settings.CDNBaseURL, id, meta, typ, variant, language)
	if !ok {
		fmt.Printf("App %d has no %s/%s/%s asset.\n", id, typ, variant, language)
		return nil
	}

	process := *maxSizeFlag > 0 || *jpgFlag

	dest := *outputFlag
	if dest == "" {
		name := fmt.Sprintf("%d_%s_%s_%s", id, typ, variant, language)
		ext := ".jpg"
		if !process {
			if e := filepath.Ext(url); e != "" {
				ext = e
			}
		}
		dest = filepath.Join(settings.OutputDir, ioutils.SanitizeFileName(name)+ext)
	}

	client := httpx.NewClient()
	if size, err := client.GetFileSize(ctx, url); err == nil {
		fmt.Printf("Downloading %s/%s/%s (%.1f KB)\n", typ, variant, language, float64(size)/1024)
	}
	if !process {
		if err := client.DownloadFile(ctx, url, dest, nil); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", dest)
		return nil
	}

	data, err := client.DownloadBytes(ctx, url)
	if err != nil {
		return err
	}
	svc := ioutils.NewImageService()
	if *maxSizeFlag > 0 {
		data, err = svc.ResizeImage(data, *maxSizeFlag, *maxSizeFlag)
	} else {
		data, err = svc.ConvertToJPEG(data)
	}
	if err != nil {
		return err
	}
	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	if err := ioutils.WriteFile(dest, data); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", dest)
	return nil
}

// runBatch downloads every job in a CSV file.
func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to config file")
	outputFlag := fs.String("output", "", "Output directory (overrides config)")
	delimiterFlag := fs.String("delimiter", ",", "CSV field delimiter")
	maxSizeFlag := fs.Int("max-size", 0, "Resize artwork to fit within this many pixels")
	jpgFlag := fs.Bool("jpg", false, "Re-encode artwork as JPEG")
	verboseFlag := fs.Bool("verbose", false, "Show verbose output")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, codeUsage)
	}
	if fs.NArg() != 1 {
		return withExitCode(fmt.Errorf("batch takes exactly one CSV file"), codeUsage)
	}
	delims := []rune(*delimiterFlag)
	if len(delims) != 1 {
		return withExitCode(fmt.Errorf("delimiter must be a single character"), codeUsage)
	}

	settings, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *outputFlag != "" {
		settings.OutputDir = *outputFlag
	}
	if *maxSizeFlag > 0 {
		settings.ResizeImages = true
		settings.ResizeMaxSize = *maxSizeFlag
	}
	if *jpgFlag {
		settings.ConvertToJPG = true
	}

	file, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer file.Close()

	jobs, err := download.ParseJobs(file, delims[0])
	if err != nil {
		return withExitCode(err, codeUsage)
	}

	fetcher := newFetcher(settings)
	defer fetcher.Close()

	manager := download.NewManager(settings, fetcher, func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}
		switch event.Level {
		case download.LevelError, download.LevelWarning:
			fmt.Fprintln(os.Stderr, event.Message)
		default:
			fmt.Println(event.Message)
		}
	})

	err = manager.Run(ctx, jobs)
	if ctx.Err() != nil {
		return withExitCode(fmt.Errorf("cancelled"), 130)
	}

	downloaded, skipped, failed := manager.GetProgress()
	fmt.Printf("Done: %d downloaded, %d skipped, %d failed (%.2f MB)\n",
		downloaded, skipped, failed, float64(manager.BytesReceived())/1024/1024)
	return err
}

// newFetcher wires the metadata pipeline: a CM connection behind the
// coalescing fetcher. Nothing connects until the first fetch.
func newFetcher(settings *config.Settings) *appinfo.Fetcher {
	return appinfo.NewFetcher(steamcm.NewClient(), appinfo.NewLogger(settings.Debug), settings.ConnectDeadline())
}

// fetchOne brings a single app's metadata into the cache and returns it.
func fetchOne(ctx context.Context, fetcher *appinfo.Fetcher, settings *config.Settings, id model.AppID) (*model.KeyValue, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, settings.FetchDeadline())
	defer cancel()

	if err := fetcher.Fetch(fetchCtx, []model.AppID{id}); err != nil {
		return nil, err
	}
	meta, ok := fetcher.Get(id)
	if !ok {
		return nil, fmt.Errorf("no metadata for app %d", id)
	}
	return meta, nil
}

func parseAppID(s string) (model.AppID, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid app id %q", s)
	}
	return model.AppID(id), nil
}
