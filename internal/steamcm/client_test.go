package steamcm

import (
	"testing"
)

const capsuleBuffer = `"appinfo"
{
	"appid"		"570"
	"common"
	{
		"name"		"Dota 2"
		"library_assets_full"
		{
			"library_capsule"
			{
				"image2x"
				{
					"english"		"library_capsule/en_2x.jpg"
				}
				"image"
				{
					"english"		"library_capsule/en.jpg"
					"german"		"library_capsule/de.jpg"
				}
			}
		}
	}
}` + "\x00"

func TestParseAppBuffer(t *testing.T) {
	kv, err := parseAppBuffer([]byte(capsuleBuffer))
	if err != nil {
		t.Fatalf("parseAppBuffer() error = %v", err)
	}

	if kv.Name != "appinfo" {
		t.Errorf("root name = %q, want %q", kv.Name, "appinfo")
	}
	if got := kv.Get("common", "name"); got == nil || got.Value != "Dota 2" {
		t.Errorf("common/name = %+v, want value %q", got, "Dota 2")
	}

	leaf := kv.Get("common", "library_assets_full", "library_capsule", "image", "german")
	if leaf == nil || leaf.Value != "library_capsule/de.jpg" {
		t.Errorf("german capsule = %+v, want value %q", leaf, "library_capsule/de.jpg")
	}
}

func TestParseAppBufferDeterministicOrder(t *testing.T) {
	first, err := parseAppBuffer([]byte(capsuleBuffer))
	if err != nil {
		t.Fatalf("parseAppBuffer() error = %v", err)
	}
	second, err := parseAppBuffer([]byte(capsuleBuffer))
	if err != nil {
		t.Fatalf("parseAppBuffer() error = %v", err)
	}

	variants := first.Get("common", "library_assets_full", "library_capsule")
	if variants == nil || len(variants.Children) != 2 {
		t.Fatalf("capsule variants = %+v, want 2 children", variants)
	}
	// Keys come back sorted, so image precedes image2x on every parse.
	if variants.Children[0].Name != "image" || variants.Children[1].Name != "image2x" {
		t.Errorf("variant order = [%s %s], want [image image2x]",
			variants.Children[0].Name, variants.Children[1].Name)
	}

	other := second.Get("common", "library_assets_full", "library_capsule")
	for i := range variants.Children {
		if variants.Children[i].Name != other.Children[i].Name {
			t.Errorf("parse order differs at %d: %s vs %s",
				i, variants.Children[i].Name, other.Children[i].Name)
		}
	}
}

func TestParseAppBufferErrors(t *testing.T) {
	if _, err := parseAppBuffer([]byte("\x00")); err == nil {
		t.Error("expected error for empty buffer")
	}
	if _, err := parseAppBuffer([]byte("\"appinfo\"\n{\n\"broken\x00")); err == nil {
		t.Error("expected error for truncated VDF")
	}
}
