package model

import "strings"

// AppID identifies a single Steam application (game, DLC, tool, ...).
//
// IDs are opaque unsigned integers assigned by Steam and stable for the
// lifetime of the process. The metadata cache is keyed by AppID.
type AppID uint32

// KeyValue is one node of an app's metadata tree.
//
// Steam delivers product info as a nested key/value structure: every node
// has a name, an optional scalar value, and ordered children. The tree for
// one app is fetched once, inserted into the cache, and never mutated
// afterwards — callers must treat KeyValue as read-only.
//
// Lookups are case-insensitive because Steam's own tooling treats key names
// that way, and real payloads mix cases freely.
//
// Example:
//
//	assets := meta.Get("common", "library_assets_full")
//	capsule := assets.Child("library_capsule")
//	path := capsule.Get("image2x", "english").Value
type KeyValue struct {
	// Name is the node's key.
	Name string

	// Value is the node's scalar value. Empty for pure container nodes.
	Value string

	// Children holds the node's sub-keys in delivery order.
	Children []*KeyValue
}

// Child returns the direct child with the given name, matched
// case-insensitively, or nil if no such child exists. Calling Child on a
// nil node returns nil, so lookups can be chained without nil checks.
func (kv *KeyValue) Child(name string) *KeyValue {
	if kv == nil {
		return nil
	}
	for _, c := range kv.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Get walks a path of child names and returns the final node, or nil if any
// level of the path is absent.
func (kv *KeyValue) Get(path ...string) *KeyValue {
	node := kv
	for _, name := range path {
		node = node.Child(name)
		if node == nil {
			return nil
		}
	}
	return node
}

// HasValue reports whether the node exists and carries a non-empty scalar
// value.
func (kv *KeyValue) HasValue() bool {
	return kv != nil && kv.Value != ""
}
