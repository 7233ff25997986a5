// Package model defines the core data structures used throughout
// steam-artwork-downloader.
//
// # KeyValue
//
// KeyValue is the nested metadata tree Steam delivers for one app. Trees are
// cached once per AppID and treated as immutable after insertion:
//
//	meta, ok := fetcher.Get(570)
//	node := meta.Get("common", "library_assets_full", "library_capsule")
//
// Child lookups are case-insensitive and nil-safe, so deep paths can be
// walked without intermediate checks.
//
// # AssetSpec
//
// AssetSpec is the user-facing address of one artwork asset:
//
//	spec, _ := model.ParseAssetSpec("library_hero:image2x:german")
//
// The language component is optional and defaults to "english".
package model
