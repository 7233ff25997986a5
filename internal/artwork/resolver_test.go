package artwork

import (
	"reflect"
	"testing"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

const testBase = "https://shared.fastly.steamstatic.com"

func testMetadata() *model.KeyValue {
	return &model.KeyValue{
		Name: "570",
		Children: []*model.KeyValue{
			{
				Name: "common",
				Children: []*model.KeyValue{
					{Name: "name", Value: "Dota 2"},
					{
						Name: "library_assets_full",
						Children: []*model.KeyValue{
							{
								Name: "library_capsule",
								Children: []*model.KeyValue{
									{
										Name: "image",
										Children: []*model.KeyValue{
											{Name: "english", Value: "library_capsule.jpg"},
											{Name: "german", Value: "german/library_capsule.jpg"},
										},
									},
									{
										Name: "image2x",
										Children: []*model.KeyValue{
											{Name: "english", Value: "library_capsule_2x.jpg"},
										},
									},
								},
							},
							{
								Name: "library_logo",
								Children: []*model.KeyValue{
									{
										Name: "image",
										Children: []*model.KeyValue{
											{Name: "english", Value: "logo.png"},
										},
									},
									{
										Name: "logo_position",
										Children: []*model.KeyValue{
											{Name: "pinned_position", Value: "BottomLeft"},
											{Name: "width_pct", Value: "52"},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestResolveURL(t *testing.T) {
	meta := testMetadata()

	tests := []struct {
		name     string
		typ      string
		variant  string
		language string
		wantURL  string
		wantOK   bool
	}{
		{
			name:     "exact match",
			typ:      "library_capsule",
			variant:  "image2x",
			language: "english",
			wantURL:  testBase + "/store_item_assets/steam/apps/570/library_capsule_2x.jpg",
			wantOK:   true,
		},
		{
			name:     "case-insensitive on every level",
			typ:      "Library_Capsule",
			variant:  "IMAGE2X",
			language: "English",
			wantURL:  testBase + "/store_item_assets/steam/apps/570/library_capsule_2x.jpg",
			wantOK:   true,
		},
		{
			name:     "relative path with subdirectory",
			typ:      "library_capsule",
			variant:  "image",
			language: "german",
			wantURL:  testBase + "/store_item_assets/steam/apps/570/german/library_capsule.jpg",
			wantOK:   true,
		},
		{
			name:     "unknown type",
			typ:      "header_capsule",
			variant:  "image",
			language: "english",
			wantOK:   false,
		},
		{
			name:     "unknown variant",
			typ:      "library_capsule",
			variant:  "image4x",
			language: "english",
			wantOK:   false,
		},
		{
			name:     "unknown language",
			typ:      "library_capsule",
			variant:  "image",
			language: "klingon",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := ResolveURL(testBase, 570, meta, tt.typ, tt.variant, tt.language)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && url != tt.wantURL {
				t.Errorf("url = %q, want %q", url, tt.wantURL)
			}
		})
	}
}

func TestResolveURL_EmptyMetadata(t *testing.T) {
	// No asset tree at all: not found, never a panic.
	if _, ok := ResolveURL(testBase, 1, &model.KeyValue{Name: "1"}, "library_capsule", "image", "english"); ok {
		t.Error("expected not-found for metadata without an asset tree")
	}
	if _, ok := ResolveURL(testBase, 1, nil, "library_capsule", "image", "english"); ok {
		t.Error("expected not-found for nil metadata")
	}
}

func TestListVariants(t *testing.T) {
	meta := testMetadata()

	variants := ListVariants(testBase, 570, meta)
	if len(variants) != 4 {
		t.Fatalf("got %d variants, want 4: %+v", len(variants), variants)
	}

	for _, v := range variants {
		if v.Variant == "logo_position" {
			t.Errorf("logo_position leaked into variants: %+v", v)
		}
		if v.URL == "" {
			t.Errorf("variant without URL: %+v", v)
		}
	}

	// Restartable: a second walk over unchanged metadata is identical.
	again := ListVariants(testBase, 570, meta)
	if !reflect.DeepEqual(variants, again) {
		t.Error("two walks over the same metadata differ")
	}
}

func TestListVariants_NoAssetTree(t *testing.T) {
	if got := ListVariants(testBase, 1, &model.KeyValue{Name: "1"}); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestFilterType(t *testing.T) {
	variants := ListVariants(testBase, 570, testMetadata())

	capsules := FilterType(variants, "LIBRARY_CAPSULE")
	if len(capsules) != 3 {
		t.Fatalf("got %d capsule variants, want 3", len(capsules))
	}
	for _, v := range capsules {
		if v.Type != "library_capsule" {
			t.Errorf("unexpected type %q", v.Type)
		}
	}

	if got := FilterType(variants, ""); len(got) != len(variants) {
		t.Error("empty filter should return everything")
	}
	if got := FilterType(variants, "nope"); got != nil {
		t.Errorf("expected nil for unmatched filter, got %+v", got)
	}
}
