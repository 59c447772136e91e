// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlexpr

import (
	"fmt"
	"log/slog"
	"os"

	sq "github.com/Masterminds/squirrel"
)

// Config contains the configuration of a Renderer.
type Config struct {
	// Dialect decides placeholders, quoting and function names.
	// OPTIONAL: Uses Generic if nil.
	Dialect *Dialect

	// Registry resolves the functions and operators of rendered trees.
	// OPTIONAL: If nil, only the built-in catalog is available.
	Registry *Registry

	// Logger receives a debug record for every rendered statement.
	// OPTIONAL: Uses slog.Default() if nil.
	// If LogLevel is also set, a text logger writing to stderr at that level
	// is created instead.
	Logger *slog.Logger

	// LogLevel sets the level of the logger created when Logger is nil.
	LogLevel *slog.Level
}

func validateConfig(cfg Config) error {
	if cfg.Dialect == nil {
		return nil
	}
	if err := cfg.Dialect.Validate(); err != nil {
		return fmt.Errorf("dialect %s: %w", cfg.Dialect.Name, err)
	}
	return nil
}

// Renderer turns expression trees and statements into SQL text and
// parameters. It holds no mutable state and may be shared between
// goroutines.
type Renderer struct {
	dialect  *Dialect
	format   sq.PlaceholderFormat
	registry *Registry
	logger   *slog.Logger
}

// NewRenderer returns a renderer for the given configuration.
func NewRenderer(cfg Config) (*Renderer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	dialect := cfg.Dialect
	if dialect == nil {
		dialect = Generic
	}
	format, err := dialect.Placeholder.format()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := cfg.Logger
	if logger == nil && cfg.LogLevel != nil {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: *cfg.LogLevel,
		})
		logger = slog.New(handler)
	}

	return &Renderer{
		dialect:  dialect,
		format:   format,
		registry: cfg.Registry,
		logger:   logger,
	}, nil
}

// defaultRenderer renders with the Generic dialect and the built-in catalog.
var defaultRenderer = &Renderer{dialect: Generic, format: sq.Question}

// Dialect returns the dialect of the renderer.
func (r *Renderer) Dialect() *Dialect {
	return r.dialect
}

func (r *Renderer) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}
