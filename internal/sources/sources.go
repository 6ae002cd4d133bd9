// Package sources fetches raw menu fragments from upstream dining systems.
// Each source turns one venue's upstream response into neutral fragments;
// normalization happens downstream and never sees source-specific shapes.
package sources

import (
	"context"
	"fmt"
	"time"

	"dining-aggregator/internal/catalog"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"

	"dining-aggregator/internal/common/config"
	"dining-aggregator/internal/menu"
)

// Source fetches the raw fragments for one venue. A nil UpstreamError with
// zero fragments is a normal outcome (for example a page without an embedded
// menu): the venue classifies as open_no_menu or closed from its schedule.
// A non-nil UpstreamError means the fetch layer could not get a usable
// response at all.
type Source interface {
	Fetch(ctx context.Context, v *catalog.Venue, now time.Time) ([]menu.RawFragment, *dinerrors.UpstreamError)
}

// Registry resolves the source responsible for a venue by its kind.
type Registry struct {
	byKind map[catalog.Kind]Source
}

// NewRegistry wires the concrete sources from configuration.
func NewRegistry(cfg *config.Config, log logger.Logger) *Registry {
	return &Registry{
		byKind: map[catalog.Kind]Source{
			catalog.KindDynamic:    NewColumbiaSource(cfg.Sources.Columbia, log),
			catalog.KindThirdParty: NewDineOnCampusSource(cfg.Sources.DineOnCampus, log),
			catalog.KindStatic:     NewStaticSource(),
		},
	}
}

// For returns the source for the venue's kind. The catalog validates kinds at
// startup, so a miss here is a programming error.
func (r *Registry) For(v *catalog.Venue) (Source, error) {
	s, ok := r.byKind[v.Kind]
	if !ok {
		return nil, fmt.Errorf("sources: no source registered for kind %q", v.Kind)
	}
	return s, nil
}
