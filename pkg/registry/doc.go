// Package registry provides the HTTP client for the upstream package
// metadata API.
//
// # Overview
//
// The client issues one GET to {base}/package/{name} per lookup and
// normalizes the response's collected.metadata object into a
// [docs.Documentation] record. It is the only component that talks to
// the network.
//
// # Usage
//
//	client := registry.NewClient("", logger) // npms.io by default
//	doc, err := client.Fetch(ctx, "express")
//
// # Error Mapping
//
// A 404, and any 200 whose metadata is absent or unusable, surface as
// PACKAGE_NOT_FOUND so callers can distinguish a bad identifier from an
// upstream outage. Every other failure (non-success status, connection
// error, timeout) surfaces as a network-class error carrying the status
// or cause. The client makes exactly one attempt; it never retries.
//
// # Normalization
//
// Version defaults to "unknown" and description to the empty string when
// the upstream omits them. The readme marker and content fields are set
// only when the payload includes readme text. Loosely typed upstream
// fields (author, license) are read defensively, accepting both string
// and object forms.
package registry
