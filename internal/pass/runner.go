// Package pass orchestrates one isolated rendering pass: re-read the
// dataset, geocode the address, load parcels, build the overlay, aggregate
// the summary. Passes share no mutable state; the server runs one per
// request.
package pass

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/riskatlas/riskmap-cli/internal/config"
	"github.com/riskatlas/riskmap-cli/internal/crs"
	"github.com/riskatlas/riskmap-cli/internal/dataset"
	"github.com/riskatlas/riskmap-cli/internal/model"
	"github.com/riskatlas/riskmap-cli/internal/overlay"
	"github.com/riskatlas/riskmap-cli/internal/parcel"
	"github.com/riskatlas/riskmap-cli/internal/store"
	"github.com/riskatlas/riskmap-cli/internal/summary"
	"github.com/riskatlas/riskmap-cli/pkg/kakao"
)

// Geocoder resolves a free-text address. Satisfied by *kakao.Client.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*kakao.Result, error)
}

// PassStore persists pass history and the geocode cache. Satisfied by
// *store.SQLiteStore; nil disables persistence.
type PassStore interface {
	RecordPass(ctx context.Context, rec store.PassRecord) (string, error)
	CachedGeocode(ctx context.Context, address string) (store.CachedPoint, bool, error)
	StoreGeocode(ctx context.Context, address string, p store.CachedPoint) error
}

// Result bundles everything one pass produced.
type Result struct {
	PassID  string
	Overlay *overlay.MapOverlay
	Summary *summary.Summary
}

// Runner executes rendering passes against a fixed configuration.
type Runner struct {
	datasetPath string
	encoding    string
	sources     []parcel.Source
	transformer *crs.Transformer
	geocoder    Geocoder
	store       PassStore
}

// NewRunner validates the CRS pair and captures the pass inputs. An
// unsupported CRS pair is a configuration error and fails here, before any
// pass runs.
func NewRunner(cfg *config.Config, geocoder Geocoder, st PassStore) (*Runner, error) {
	tr, err := crs.NewTransformer(cfg.CRS.Source, cfg.CRS.Target)
	if err != nil {
		return nil, err
	}

	sources := make([]parcel.Source, 0, len(cfg.Parcels.Sources))
	for _, s := range cfg.Parcels.Sources {
		sources = append(sources, parcel.Source{Path: s.Path, Color: s.Color})
	}

	return &Runner{
		datasetPath: cfg.Dataset.Path,
		encoding:    cfg.Dataset.Encoding,
		sources:     sources,
		transformer: tr,
		geocoder:    geocoder,
		store:       st,
	}, nil
}

// Run executes one pass. A geocode failure degrades to the centroid center
// with a warning; dataset and parcel errors abort the pass.
func (r *Runner) Run(ctx context.Context, address string) (*Result, error) {
	passID := uuid.New().String()
	log := zap.L().With(zap.String("pass_id", passID))

	records, err := dataset.Load(r.datasetPath, dataset.WithEncoding(r.encoding))
	if err != nil {
		return nil, eris.Wrap(err, "pass: load dataset")
	}

	pin := r.resolveAddress(ctx, log, address)

	groups, err := parcel.LoadSources(ctx, r.transformer, r.sources)
	if err != nil {
		return nil, eris.Wrap(err, "pass: load parcels")
	}

	o := overlay.Build(records, pin, groups)
	sum := summary.Aggregate(records)

	r.recordPass(ctx, log, passID, address, pin, o)

	log.Info("rendering pass complete",
		zap.Int("records", len(records)),
		zap.Int("circles", len(o.Circles)),
		zap.Int("polygons", len(o.Polygons)),
		zap.Bool("address_matched", pin.Point != nil),
	)
	return &Result{PassID: passID, Overlay: o, Summary: sum}, nil
}

// resolveAddress geocodes the address, consulting the cache first. Any
// failure leaves pin.Point nil so the overlay falls back to the centroid.
func (r *Runner) resolveAddress(ctx context.Context, log *zap.Logger, address string) overlay.AddressPin {
	pin := overlay.AddressPin{Text: address}
	if address == "" {
		return pin
	}

	if r.store != nil {
		cached, ok, err := r.store.CachedGeocode(ctx, address)
		if err != nil {
			log.Warn("geocode cache lookup failed", zap.Error(err))
		} else if ok {
			if cached.Matched {
				pin.Point = &model.GeoPoint{Lon: cached.Lon, Lat: cached.Lat}
			}
			return pin
		}
	}

	result, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Warn("geocode failed", zap.String("address", address), zap.Error(err))
		return pin
	}
	if result.Matched {
		pin.Point = &model.GeoPoint{Lon: result.Lon, Lat: result.Lat}
	}

	if r.store != nil {
		entry := store.CachedPoint{Lon: result.Lon, Lat: result.Lat, Matched: result.Matched}
		if err := r.store.StoreGeocode(ctx, address, entry); err != nil {
			log.Warn("geocode cache store failed", zap.Error(err))
		}
	}
	return pin
}

// recordPass writes the pass-history row, best effort.
func (r *Runner) recordPass(ctx context.Context, log *zap.Logger, passID, address string, pin overlay.AddressPin, o *overlay.MapOverlay) {
	if r.store == nil {
		return
	}
	_, err := r.store.RecordPass(ctx, store.PassRecord{
		ID:        passID,
		Address:   address,
		Matched:   pin.Point != nil,
		CenterLon: o.Center.Lon,
		CenterLat: o.Center.Lat,
		Zoom:      o.Zoom,
		Circles:   len(o.Circles),
		Polygons:  len(o.Polygons),
		Warnings:  len(o.Warnings),
	})
	if err != nil {
		log.Warn("pass history write failed", zap.Error(err))
	}
}
