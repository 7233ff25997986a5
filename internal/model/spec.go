package model

import (
	"fmt"
	"strings"
)

// DefaultLanguage is assumed when an asset spec omits its language part.
const DefaultLanguage = "english"

// AssetSpec identifies one artwork asset within an app's metadata tree:
// an asset type (e.g. "library_capsule"), a variant of that type (e.g.
// "image" or "image2x"), and a language.
//
// The textual form is "type:variant" or "type:variant:language"; when the
// language is omitted it defaults to "english". Specs appear on the `single`
// command line and in batch CSV rows.
//
// Example:
//
//	spec, err := model.ParseAssetSpec("library_capsule:image2x")
//	// spec.Type == "library_capsule", spec.Variant == "image2x",
//	// spec.Language == "english"
type AssetSpec struct {
	Type     string
	Variant  string
	Language string
}

// ParseAssetSpec parses the textual "type:variant[:language]" form.
//
// Returns an error if the spec has fewer than two or more than three parts,
// or if any present part is empty.
func ParseAssetSpec(s string) (AssetSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return AssetSpec{}, fmt.Errorf("invalid asset spec %q: want type:variant[:language]", s)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return AssetSpec{}, fmt.Errorf("invalid asset spec %q: empty component", s)
		}
	}

	spec := AssetSpec{
		Type:     strings.TrimSpace(parts[0]),
		Variant:  strings.TrimSpace(parts[1]),
		Language: DefaultLanguage,
	}
	if len(parts) == 3 {
		spec.Language = strings.TrimSpace(parts[2])
	}
	return spec, nil
}

// IsZero reports whether the spec is empty. Batch rows use an empty field to
// mean "no fallback".
func (s AssetSpec) IsZero() bool {
	return s == AssetSpec{}
}

// String returns the canonical "type:variant:language" form.
func (s AssetSpec) String() string {
	return fmt.Sprintf("%s:%s:%s", s.Type, s.Variant, s.Language)
}
