// Package artwork derives downloadable asset URLs from cached app metadata.
//
// Steam keeps an app's full library artwork under
// common/library_assets_full, organised as three nested levels:
//
//	<type>/<variant>/<language> = <relative path>
//
// e.g. library_capsule/image2x/english = "library_capsule_2x.jpg".
//
// ResolveURL answers a single lookup with a found/not-found outcome, and
// ListVariants enumerates everything an app has to offer:
//
//	for _, v := range artwork.ListVariants(base, 570, meta) {
//	    fmt.Println(v.Type, v.Variant, v.Language, v.URL)
//	}
//
// All lookups are case-insensitive and purely functional: nothing in this
// package holds state or modifies the metadata tree.
package artwork
