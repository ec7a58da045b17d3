// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "time"

// HTTP configures the listener.
type HTTP struct {
	Port uint `config:"port"`

	ReadHeaderTimeout time.Duration `config:"read_header_timeout"`

	// MaxBodyBytes bounds request bodies. Zero or less removes the bound.
	MaxBodyBytes int64 `config:"max_body_bytes"`

	// ShutdownTimeout bounds how long in-flight requests may finish once
	// the server stops. Zero waits indefinitely.
	ShutdownTimeout time.Duration `config:"shutdown_timeout"`
}

// Server configures how resources are addressed.
type Server struct {
	// URL is the canonical server URL, e.g. "https://api.example.com".
	// When empty it is derived per request from the scheme and Host header.
	URL string `config:"url"`
}

// Pagination bounds the page size clients may request.
type Pagination struct {
	DefaultItemsPerPage int `config:"default_items_per_page"`
	MaxItemsPerPage     int `config:"max_items_per_page"`
}

// Negotiation configures Accept header negotiation.
type Negotiation struct {
	// FallbackMediaType renders models and pages when the client
	// accepts any media type.
	FallbackMediaType string `config:"fallback_media_type"`

	// ErrorFallbackMediaType renders errors when the client accepts any
	// media type.
	ErrorFallbackMediaType string `config:"error_fallback_media_type"`
}

// Locale configures the language of localized string fields.
type Locale struct {
	Default string `config:"default"`

	// Supported languages, as BCP 47 tags. Empty means any language the
	// client asks for.
	Supported []string `config:"supported"`
}

// OpenAPI describes the generated OpenAPI document.
type OpenAPI struct {
	Title   string `config:"title"`
	Version string `config:"version"`
}

// ObjectStore configures the S3 compatible store binary payloads are read
// from.
type ObjectStore struct {
	Endpoint  string `config:"endpoint"`
	AccessKey string `config:"access_key"`
	SecretKey string `config:"secret_key"`
	Bucket    string `config:"bucket"`
	UseSSL    bool   `config:"use_ssl"`
}

// Postgres configures a PostgreSQL connection pool.
type Postgres struct {
	URL string `config:"url"`
}
