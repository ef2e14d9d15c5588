// Package storage is where exported text files are written: a local directory or an S3 bucket prefix.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Sink creates named output objects. Data written to the returned writer is durable only after Close returns nil.
type Sink interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)

	// Location returns a human-readable location for name (a file path or s3:// URL).
	Location(name string) string
}

// Type selects a Sink backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config configures NewSink. Dir is used by local sinks; the S3 fields by S3 sinks.
type Config struct {
	Type Type   `yaml:"type"`
	Dir  string `yaml:"dir"`

	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // S3-compatible endpoint override, e.g. a local MinIO

	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// NewSink builds the Sink selected by cfg.Type. An empty Type means local.
func NewSink(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocal(cfg.Dir)
	case TypeS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("storage: unknown sink type %q", cfg.Type)
	}
}
