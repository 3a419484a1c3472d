// Package storage emulates a bucketed object store: per-bucket maps from
// path to payload plus metadata.
//
// Buckets are created implicitly on first upload. Upload refuses to
// overwrite an existing path unless UploadOptions.Upsert is set, and a
// refused upload leaves the stored object untouched. Every outcome is
// returned as data with an optional *apierr.Error; nothing here panics or
// returns a Go error for an expected miss.
//
// URLs are structural only. GetPublicURL and CreateSignedURL build
// deterministic strings from the configured base URL; signed URLs carry
// an expiry and a token but nothing checks either.
package storage
