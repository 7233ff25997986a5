package download

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hakkai/steam-artwork-downloader/internal/artwork"
	"github.com/hakkai/steam-artwork-downloader/internal/config"
	httpx "github.com/hakkai/steam-artwork-downloader/internal/http"
	ioutils "github.com/hakkai/steam-artwork-downloader/internal/io"
	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// MetadataSource is the slice of the appinfo fetcher the manager needs:
// bring a set of IDs into the cache, then read them back.
type MetadataSource interface {
	Fetch(ctx context.Context, ids []model.AppID) error
	Get(id model.AppID) (*model.KeyValue, bool)
}

// Manager coordinates batch artwork downloads.
//
// Given a list of jobs it fetches the metadata for every distinct app in
// one coalesced call, then resolves and downloads each job's asset with
// bounded concurrency. A job whose preferred asset is absent falls back to
// its fallback spec; a job with neither is reported and skipped, not
// treated as a failure of the batch.
type Manager struct {
	settings     *config.Settings
	source       MetadataSource
	httpClient   *httpx.Client
	imageService *ioutils.ImageService

	downloaded    int32
	skipped       int32
	failed        int32
	receivedBytes int64

	onProgress func(ProgressEvent)

	mu       sync.Mutex
	firstErr error
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, source MetadataSource, onProgress func(ProgressEvent)) *Manager {
	return &Manager{
		settings:     settings,
		source:       source,
		httpClient:   httpx.NewClient(),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
	}
}

// Run executes all jobs. Metadata for every distinct app ID is fetched
// first (one request wave for the whole batch), then downloads run with at
// most MaxConcurrentDownloads in flight.
//
// Individual download failures are reported through the progress callback
// and counted; Run keeps going and returns the first hard error, if any,
// once every job has been attempted.
func (m *Manager) Run(ctx context.Context, jobs []Job) error {
	ids := distinctIDs(jobs)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching metadata for %d app(s)", len(ids)), Level: LevelInfo})

	fetchCtx, cancel := context.WithTimeout(ctx, m.settings.FetchDeadline())
	defer cancel()
	if err := m.source.Fetch(fetchCtx, ids); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.settings.MaxConcurrentDownloads)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := m.runJob(ctx, job); err != nil {
				atomic.AddInt32(&m.failed, 1)
				m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading app %d: %v", job.ID, err), Level: LevelError})
				m.recordErr(err)
			}
			return nil // Continue with other jobs
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.firstErr
}

// GetProgress returns the downloaded, skipped, and failed job counts.
func (m *Manager) GetProgress() (downloaded, skipped, failed int32) {
	return atomic.LoadInt32(&m.downloaded), atomic.LoadInt32(&m.skipped), atomic.LoadInt32(&m.failed)
}

// BytesReceived returns the total bytes downloaded so far.
func (m *Manager) BytesReceived() int64 {
	return atomic.LoadInt64(&m.receivedBytes)
}

func (m *Manager) runJob(ctx context.Context, job Job) error {
	meta, ok := m.source.Get(job.ID)
	if !ok {
		return fmt.Errorf("no metadata for app %d", job.ID)
	}

	spec := job.Base
	assetURL, found := artwork.ResolveURL(m.settings.CDNBaseURL, job.ID, meta, spec.Type, spec.Variant, spec.Language)
	if !found && !job.Fallback.IsZero() {
		m.progress(ProgressEvent{Message: fmt.Sprintf("App %d: %s not found, trying %s", job.ID, job.Base, job.Fallback), Level: LevelVerbose})
		spec = job.Fallback
		assetURL, found = artwork.ResolveURL(m.settings.CDNBaseURL, job.ID, meta, spec.Type, spec.Variant, spec.Language)
	}
	if !found {
		atomic.AddInt32(&m.skipped, 1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("App %d: no matching asset, skipped", job.ID), Level: LevelWarning})
		return nil
	}

	dest := job.OutputPath
	if dest == "" {
		dest = m.defaultPath(job.ID, spec, assetURL)
	}

	if err := m.download(ctx, assetURL, dest); err != nil {
		return err
	}

	atomic.AddInt32(&m.downloaded, 1)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded %s for app %d -> %s", spec, job.ID, dest), Level: LevelSuccess})
	return nil
}

func (m *Manager) download(ctx context.Context, assetURL, dest string) error {
	if !m.settings.ResizeImages && !m.settings.ConvertToJPG {
		var last int64
		return m.httpClient.DownloadFile(ctx, assetURL, dest, func(written, total int64) {
			atomic.AddInt64(&m.receivedBytes, written-last)
			last = written
		})
	}

	// Post-processing needs the bytes in memory.
	data, err := m.httpClient.DownloadBytes(ctx, assetURL)
	if err != nil {
		return err
	}
	atomic.AddInt64(&m.receivedBytes, int64(len(data)))
	if m.settings.ResizeImages {
		data, err = m.imageService.ResizeImage(data, m.settings.ResizeMaxSize, m.settings.ResizeMaxSize)
		if err != nil {
			return err
		}
	} else if m.settings.ConvertToJPG {
		data, err = m.imageService.ConvertToJPEG(data)
		if err != nil {
			return err
		}
	}

	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	return ioutils.WriteFile(dest, data)
}

// defaultPath builds an output path from the configured filename template.
// The extension comes from the resolved URL; post-processed images are
// always JPEG.
func (m *Manager) defaultPath(id model.AppID, spec model.AssetSpec, assetURL string) string {
	name := m.settings.OutputFileNameFormat
	name = strings.ReplaceAll(name, "{id}", strconv.FormatUint(uint64(id), 10))
	name = strings.ReplaceAll(name, "{type}", spec.Type)
	name = strings.ReplaceAll(name, "{variant}", spec.Variant)
	name = strings.ReplaceAll(name, "{language}", spec.Language)

	ext := ".jpg"
	if !m.settings.ResizeImages && !m.settings.ConvertToJPG {
		if u, err := url.Parse(assetURL); err == nil {
			if e := path.Ext(u.Path); e != "" {
				ext = e
			}
		}
	}

	return filepath.Join(m.settings.OutputDir, ioutils.SanitizeFileName(name)+ext)
}

func (m *Manager) recordErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.firstErr == nil {
		m.firstErr = err
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

func distinctIDs(jobs []Job) []model.AppID {
	seen := make(map[model.AppID]struct{}, len(jobs))
	var ids []model.AppID
	for _, job := range jobs {
		if _, ok := seen[job.ID]; ok {
			continue
		}
		seen[job.ID] = struct{}{}
		ids = append(ids, job.ID)
	}
	return ids
}
