// Package steamcm connects to the Steam CM (connection manager) network
// and exposes it through the small client contract the appinfo session
// expects.
//
// The heavy lifting is done by go-steam; this package adds three things on
// top of it: an anonymous logon (go-steam's Auth helper requires an account
// name), a packet handler that captures PICS product info responses, and a
// VDF decoder that turns the raw app buffers into key/value trees.
package steamcm
