package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hakkai/steam-artwork-downloader/internal/config"
	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

func TestParseJobs(t *testing.T) {
	input := strings.Join([]string{
		"570,library_capsule:image2x:english,library_capsule:image,/tmp/dota.jpg",
		"730,library_hero:image,,",
		"440, library_logo:logo:german ,,",
	}, "\n")

	jobs, err := ParseJobs(strings.NewReader(input), ',')
	if err != nil {
		t.Fatalf("ParseJobs() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("ParseJobs() returned %d jobs, want 3", len(jobs))
	}

	want := []Job{
		{
			ID:         570,
			Base:       model.AssetSpec{Type: "library_capsule", Variant: "image2x", Language: "english"},
			Fallback:   model.AssetSpec{Type: "library_capsule", Variant: "image", Language: "english"},
			OutputPath: "/tmp/dota.jpg",
		},
		{
			ID:   730,
			Base: model.AssetSpec{Type: "library_hero", Variant: "image", Language: "english"},
		},
		{
			ID:   440,
			Base: model.AssetSpec{Type: "library_logo", Variant: "logo", Language: "german"},
		},
	}
	for i, job := range jobs {
		if job != want[i] {
			t.Errorf("job %d = %+v, want %+v", i, job, want[i])
		}
	}
}

func TestParseJobsCustomDelimiter(t *testing.T) {
	jobs, err := ParseJobs(strings.NewReader("570;library_capsule:image;;"), ';')
	if err != nil {
		t.Fatalf("ParseJobs() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != 570 {
		t.Errorf("jobs = %+v, want one job for app 570", jobs)
	}
	if !jobs[0].Fallback.IsZero() {
		t.Errorf("Fallback = %+v, want zero", jobs[0].Fallback)
	}
}

func TestParseJobsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"bad app id", "not-a-number,library_capsule:image,,"},
		{"bad base spec", "570,library_capsule,,"},
		{"bad fallback spec", "570,library_capsule:image,broken,"},
		{"wrong field count", "570,library_capsule:image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJobs(strings.NewReader(tt.input), ','); err == nil {
				t.Errorf("ParseJobs(%q) expected error, got none", tt.input)
			}
		})
	}
}

// fakeSource serves canned metadata and records which IDs were fetched.
type fakeSource struct {
	mu      sync.Mutex
	apps    map[model.AppID]*model.KeyValue
	fetched [][]model.AppID
}

func (s *fakeSource) Fetch(ctx context.Context, ids []model.AppID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, ids)
	return nil
}

func (s *fakeSource) Get(id model.AppID) (*model.KeyValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.apps[id]
	return meta, ok
}

// metaWith builds an app payload whose asset tree holds the given
// type/variant/language leaves.
func metaWith(leaves map[[3]string]string) *model.KeyValue {
	assets := &model.KeyValue{Name: "library_assets_full"}
	for key, value := range leaves {
		typ := assets.Child(key[0])
		if typ == nil {
			typ = &model.KeyValue{Name: key[0]}
			assets.Children = append(assets.Children, typ)
		}
		variant := typ.Child(key[1])
		if variant == nil {
			variant = &model.KeyValue{Name: key[1]}
			typ.Children = append(typ.Children, variant)
		}
		variant.Children = append(variant.Children, &model.KeyValue{Name: key[2], Value: value})
	}
	return &model.KeyValue{
		Name: "appinfo",
		Children: []*model.KeyValue{
			{Name: "common", Children: []*model.KeyValue{assets}},
		},
	}
}

func TestManagerRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.jpg") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	source := &fakeSource{
		apps: map[model.AppID]*model.KeyValue{
			570: metaWith(map[[3]string]string{
				{"library_capsule", "image", "english"}: "caps/en.jpg",
			}),
			730: metaWith(map[[3]string]string{
				{"library_hero", "image", "english"}: "hero/en.jpg",
			}),
		},
	}

	settings := config.DefaultSettings()
	settings.CDNBaseURL = server.URL
	settings.OutputDir = t.TempDir()

	var mu sync.Mutex
	var events []ProgressEvent
	manager := NewManager(settings, source, func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	jobs := []Job{
		// Base spec absent, fallback hits.
		{
			ID:       570,
			Base:     model.AssetSpec{Type: "library_capsule", Variant: "image2x", Language: "english"},
			Fallback: model.AssetSpec{Type: "library_capsule", Variant: "image", Language: "english"},
		},
		// Direct hit with an explicit output path.
		{
			ID:         730,
			Base:       model.AssetSpec{Type: "library_hero", Variant: "image", Language: "english"},
			OutputPath: filepath.Join(settings.OutputDir, "hero.jpg"),
		},
		// No matching asset at all: skipped, not failed.
		{
			ID:   730,
			Base: model.AssetSpec{Type: "library_logo", Variant: "logo", Language: "english"},
		},
	}

	if err := manager.Run(context.Background(), jobs); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	downloaded, skipped, failed := manager.GetProgress()
	if downloaded != 2 || skipped != 1 || failed != 0 {
		t.Errorf("progress = (%d, %d, %d), want (2, 1, 0)", downloaded, skipped, failed)
	}
	if got, want := manager.BytesReceived(), int64(2*len("image-bytes")); got != want {
		t.Errorf("BytesReceived() = %d, want %d", got, want)
	}

	if len(source.fetched) != 1 {
		t.Fatalf("Fetch called %d times, want 1", len(source.fetched))
	}
	if got := source.fetched[0]; len(got) != 2 || got[0] != 570 || got[1] != 730 {
		t.Errorf("fetched IDs = %v, want [570 730]", got)
	}

	// The fallback job derives its name from the spec that actually matched.
	fallbackPath := filepath.Join(settings.OutputDir, "570_library_capsule_image_english.jpg")
	data, err := os.ReadFile(fallbackPath)
	if err != nil {
		t.Fatalf("reading fallback output: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("fallback output = %q, want %q", data, "image-bytes")
	}

	if _, err := os.Stat(filepath.Join(settings.OutputDir, "hero.jpg")); err != nil {
		t.Errorf("explicit output path not written: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var sawFallback, sawSkip bool
	for _, e := range events {
		if e.Level == LevelVerbose && strings.Contains(e.Message, "not found, trying") {
			sawFallback = true
		}
		if e.Level == LevelWarning && strings.Contains(e.Message, "skipped") {
			sawSkip = true
		}
	}
	if !sawFallback {
		t.Error("expected a verbose fallback progress event")
	}
	if !sawSkip {
		t.Error("expected a warning event for the skipped job")
	}
}

func TestManagerRunReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	source := &fakeSource{
		apps: map[model.AppID]*model.KeyValue{
			570: metaWith(map[[3]string]string{
				{"library_capsule", "image", "english"}: "caps/en.jpg",
			}),
		},
	}

	settings := config.DefaultSettings()
	settings.CDNBaseURL = server.URL
	settings.OutputDir = t.TempDir()

	manager := NewManager(settings, source, nil)
	jobs := []Job{{
		ID:   570,
		Base: model.AssetSpec{Type: "library_capsule", Variant: "image", Language: "english"},
	}}

	err := manager.Run(context.Background(), jobs)
	if err == nil {
		t.Fatal("Run() expected error for failing download")
	}

	downloaded, skipped, failed := manager.GetProgress()
	if downloaded != 0 || skipped != 0 || failed != 1 {
		t.Errorf("progress = (%d, %d, %d), want (0, 0, 1)", downloaded, skipped, failed)
	}
}
