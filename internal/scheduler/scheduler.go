// Package scheduler drives the periodic refresh cycle: fetch every venue,
// build its canonical record, enrich, cache and index the results.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/config"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/common/metrics"
	"dining-aggregator/internal/common/observability"
	"dining-aggregator/internal/menu"
	"dining-aggregator/internal/nutrition"
	"dining-aggregator/internal/sources"
	"dining-aggregator/internal/store"
)

// SourceResolver hands out the source responsible for a venue. Satisfied by
// the sources registry.
type SourceResolver interface {
	For(v *catalog.Venue) (sources.Source, error)
}

// Alerter notifies operators of degraded cycles. Satisfied by the SES client.
type Alerter interface {
	SendPlainEmail(ctx context.Context, from, to, subject, body string) error
}

// Indexer is the slice of the search index the scheduler needs.
type Indexer interface {
	Rebuild(ctx context.Context, records []menu.Record) error
}

// Snapshotter is the slice of the menu cache the scheduler needs.
type Snapshotter interface {
	Store(ctx context.Context, records []menu.Record) error
}

const fetchConcurrency = 4

// Runner executes refresh cycles, one fetch per venue with bounded
// parallelism, and fans the records into the cache and search index.
type Runner struct {
	catalog    *catalog.Catalog
	registry   SourceResolver
	aggregator *menu.Aggregator
	enricher   *nutrition.Enricher
	cache      Snapshotter
	index      Indexer
	alerter    Alerter
	obs        *observability.Observability
	cfg        config.SchedulerConfig
	alerts     config.AlertsConfig
	log        logger.Logger

	mu        sync.RWMutex
	lastCycle time.Time
}

func NewRunner(
	cat *catalog.Catalog,
	registry SourceResolver,
	enricher *nutrition.Enricher,
	cache Snapshotter,
	index Indexer,
	alerter Alerter,
	obs *observability.Observability,
	cfg config.SchedulerConfig,
	alerts config.AlertsConfig,
	log logger.Logger,
) *Runner {
	return &Runner{
		catalog:    cat,
		registry:   registry,
		aggregator: menu.NewAggregator(log),
		enricher:   enricher,
		cache:      cache,
		index:      index,
		alerter:    alerter,
		obs:        obs,
		cfg:        cfg,
		alerts:     alerts,
		log:        log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}
}

// Start blocks until the context is cancelled, running one cycle per
// configured interval. With RunOnStart a cycle fires immediately.
func (r *Runner) Start(ctx context.Context) {
	interval := time.Duration(r.cfg.Interval) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	if r.cfg.RunOnStart {
		r.RunCycle(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("scheduler stopped", nil)
			return
		case <-ticker.C:
			r.RunCycle(ctx)
		}
	}
}

// RunCycle fetches every venue once and publishes the results. It always
// returns the built records, even when caching or indexing failed.
func (r *Runner) RunCycle(ctx context.Context) []menu.Record {
	started := time.Now()
	now := time.Now()

	venues := r.catalog.Venues()
	records := make([]menu.Record, len(venues))

	sem := make(chan struct{}, fetchConcurrency)
	var wg sync.WaitGroup

	for idx, v := range venues {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, v *catalog.Venue) {
			defer wg.Done()
			defer func() { <-sem }()
			records[idx] = r.refreshVenue(ctx, v, now)
		}(idx, v)
	}
	wg.Wait()

	r.enricher.Enrich(ctx, records)
	r.publish(ctx, records)

	elapsed := time.Since(started)
	metrics.CycleDuration.Observe(elapsed.Seconds())

	rate := errorRate(records)
	status := "ok"
	if rate > 0 {
		status = "degraded"
	}
	r.obs.RecordCycle(ctx, status)
	r.obs.RecordCycleDuration(ctx, elapsed, status)

	r.mu.Lock()
	r.lastCycle = now
	r.mu.Unlock()

	r.log.Info("refresh cycle complete", map[string]interface{}{
		"venues":     len(records),
		"error_rate": rate,
		"duration":   elapsed.String(),
	})

	if r.alerts.Enabled && rate > r.alerts.ErrorRateThreshold {
		r.sendDegradedAlert(ctx, records, rate)
	}

	return records
}

func (r *Runner) refreshVenue(ctx context.Context, v *catalog.Venue, now time.Time) menu.Record {
	src, err := r.registry.For(v)
	if err != nil {
		// Unreachable for validated catalogs; surface as a plain error record.
		r.log.Error("no source for venue", map[string]interface{}{"venue": v.Name, "error": err.Error()})
		return menu.Record{Name: v.Name, Meals: []menu.Meal{}, Status: menu.StatusError, Source: v.Source, ScrapedAt: now, Error: err.Error()}
	}

	fragments, uerr := src.Fetch(ctx, v, now)
	if uerr != nil {
		fields := map[string]interface{}{"venue": v.Name, "code": string(uerr.Code), "error": uerr.Message}
		if dinerrors.IsTransport(uerr.Code) {
			r.log.Warn("venue fetch failed", fields)
		} else {
			r.log.Error("venue payload rejected", fields)
		}
	}
	rec := r.aggregator.Build(v, fragments, uerr, now)

	metrics.VenuesScraped.WithLabelValues(rec.Source, string(rec.Status)).Inc()
	return rec
}

// publish pushes the cycle into the cache and the search index. A rejected
// degraded snapshot is expected behavior, not a failure.
func (r *Runner) publish(ctx context.Context, records []menu.Record) {
	if err := r.cache.Store(ctx, records); err != nil {
		if err == store.ErrDegradedCycle {
			r.log.Warn("cycle not cached", map[string]interface{}{"reason": "degraded"})
		} else {
			r.log.Error("snapshot write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if r.index != nil {
		if err := r.index.Rebuild(ctx, records); err != nil {
			r.log.Error("search index rebuild failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (r *Runner) sendDegradedAlert(ctx context.Context, records []menu.Record, rate float64) {
	if r.alerter == nil {
		return
	}

	subject := "dining-aggregator: degraded refresh cycle"
	body := fmt.Sprintf(
		"Refresh cycle at %s finished with %.0f%% of venues in an error state (%d of %d).",
		time.Now().UTC().Format(time.RFC3339), rate*100, countErrors(records), len(records),
	)

	if err := r.alerter.SendPlainEmail(ctx, r.alerts.FromEmail, r.alerts.ToEmail, subject, body); err != nil {
		r.log.Error("alert email failed", map[string]interface{}{"error": err.Error()})
	}
}

// LastCycle reports when the most recent cycle finished.
func (r *Runner) LastCycle() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCycle
}

func errorRate(records []menu.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	return float64(countErrors(records)) / float64(len(records))
}

func countErrors(records []menu.Record) int {
	n := 0
	for _, rec := range records {
		switch rec.Status {
		case menu.StatusNetworkError, menu.StatusServiceUnavailable, menu.StatusError:
			n++
		}
	}
	return n
}
