package artwork

import (
	"fmt"
	"strings"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// assetPathPrefix is the fixed CDN path under which Steam serves store item
// assets; the app ID and the leaf's relative path complete the URL.
const assetPathPrefix = "store_item_assets/steam/apps"

// assetTreePath locates the asset tree inside an app's metadata payload.
var assetTreePath = []string{"common", "library_assets_full"}

// nonImageLeaves lists (asset type, child name) pairs that sit structurally
// where a variant would but hold no image path. library_logo carries its
// logo placement data this way.
var nonImageLeaves = map[[2]string]bool{
	{"library_logo", "logo_position"}: true,
}

// Variant describes one downloadable artwork asset of an app: the asset
// type, the variant of that type, the language, and the fully resolved CDN
// URL. Variants are computed on demand from cached metadata and never
// stored.
type Variant struct {
	Type     string
	Variant  string
	Language string
	URL      string
}

// ResolveURL looks up one asset in an app's metadata tree and returns its
// CDN URL. The lookup walks type, variant, and language case-insensitively;
// a missing level or a valueless leaf yields ok == false. Absence is a
// normal outcome, never an error.
//
// Example:
//
//	url, ok := artwork.ResolveURL(base, 570, meta, "library_capsule", "image2x", "english")
func ResolveURL(baseURL string, id model.AppID, meta *model.KeyValue, typ, variant, language string) (string, bool) {
	root := meta.Get(assetTreePath...)
	leaf := root.Get(typ, variant, language)
	if !leaf.HasValue() {
		return "", false
	}
	return assetURL(baseURL, id, leaf.Value), true
}

// ListVariants walks every type/variant/language leaf with a non-empty
// value under the app's asset tree and returns one Variant per leaf. The
// result is recomputed on each call, so it is safe to call repeatedly and
// returns identical results for unchanged metadata.
//
// Known non-image leaves (such as library_logo's logo_position block) are
// skipped by name.
func ListVariants(baseURL string, id model.AppID, meta *model.KeyValue) []Variant {
	root := meta.Get(assetTreePath...)
	if root == nil {
		return nil
	}

	var variants []Variant
	for _, typ := range root.Children {
		for _, variant := range typ.Children {
			if nonImageLeaves[[2]string{strings.ToLower(typ.Name), strings.ToLower(variant.Name)}] {
				continue
			}
			for _, language := range variant.Children {
				if language.Value == "" {
					continue
				}
				variants = append(variants, Variant{
					Type:     typ.Name,
					Variant:  variant.Name,
					Language: language.Name,
					URL:      assetURL(baseURL, id, language.Value),
				})
			}
		}
	}
	return variants
}

// FilterType returns the variants whose type matches typ,
// case-insensitively. An empty typ returns the input unchanged.
func FilterType(variants []Variant, typ string) []Variant {
	if typ == "" {
		return variants
	}
	var out []Variant
	for _, v := range variants {
		if strings.EqualFold(v.Type, typ) {
			out = append(out, v)
		}
	}
	return out
}

func assetURL(baseURL string, id model.AppID, relative string) string {
	return fmt.Sprintf("%s/%s/%d/%s",
		strings.TrimRight(baseURL, "/"), assetPathPrefix, id, strings.TrimLeft(relative, "/"))
}
