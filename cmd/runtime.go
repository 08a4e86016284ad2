package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/riskatlas/riskmap-cli/internal/pass"
	"github.com/riskatlas/riskmap-cli/internal/store"
	"github.com/riskatlas/riskmap-cli/pkg/kakao"
)

// runtimeEnv bundles the long-lived dependencies a command needs: the pass
// runner and the optional SQLite store behind it.
type runtimeEnv struct {
	Runner *pass.Runner
	Store  *store.SQLiteStore
}

// Close releases the store, if any.
func (e *runtimeEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initRuntime wires the Kakao client, the optional store, and the pass
// runner from the loaded config.
func initRuntime() (*runtimeEnv, error) {
	env := &runtimeEnv{}

	if cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path, store.WithGeocodeTTLDays(cfg.Store.GeocodeTTLDays))
		if err != nil {
			return nil, err
		}
		env.Store = st
		zap.L().Info("pass store opened", zap.String("path", cfg.Store.Path))
	}

	geocoder := newGeocoder()

	var ps pass.PassStore
	if env.Store != nil {
		ps = env.Store
	}
	runner, err := pass.NewRunner(cfg, geocoder, ps)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Runner = runner
	return env, nil
}

// newGeocoder builds the Kakao client from config.
func newGeocoder() *kakao.Client {
	opts := []kakao.Option{}
	if cfg.Kakao.BaseURL != "" {
		opts = append(opts, kakao.WithBaseURL(cfg.Kakao.BaseURL))
	}
	if cfg.Kakao.TimeoutSecs > 0 {
		opts = append(opts, kakao.WithTimeout(time.Duration(cfg.Kakao.TimeoutSecs)*time.Second))
	}
	if cfg.Kakao.RateLimitRPS > 0 {
		opts = append(opts, kakao.WithRateLimit(cfg.Kakao.RateLimitRPS))
	}
	return kakao.NewClient(cfg.Kakao.APIKey, opts...)
}
