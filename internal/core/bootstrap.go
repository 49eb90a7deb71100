package core

import (
	"context"
	"fmt"
	"io"

	"mnyama/internal/blob"
)

// Open builds a service from cfg: the configured store with the default
// rules, the configured blob store, and the Prometheus recorder and OTel
// tracer when enabled. opts are applied after those and may replace them.
func Open(ctx context.Context, cfg Config, opts ...ServiceOption) (*Service, error) {
	store, err := OpenPersistentStore(ctx, cfg, NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	blobs, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	defaults := []ServiceOption{WithBlobStore(blobs)}
	if cfg.MetricsEnabled {
		rec, err := NewPrometheusMetricsRecorder(nil, cfg.MetricsNamespace)
		if err != nil {
			closeStore(store)
			return nil, err
		}
		defaults = append(defaults, WithMetricsRecorder(rec))
	}
	if cfg.TracingEnabled {
		defaults = append(defaults, WithTracer(NewOTelTracer(nil)))
	}
	return NewService(store, append(defaults, opts...)...), nil
}

func closeStore(store PersistentStore) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}
