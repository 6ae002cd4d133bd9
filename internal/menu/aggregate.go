// internal/menu/aggregate.go
package menu

import (
	"strings"
	"time"

	"dining-aggregator/internal/catalog"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/common/logger"
)

// Aggregator produces the canonical record for one venue from its raw
// fragments and the current venue-local time. It holds no state between
// invocations; running it twice on the same inputs yields the same record.
type Aggregator struct {
	log logger.Logger
}

func NewAggregator(log logger.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// Build resolves the schedule, normalizes the fragments and classifies the
// venue. fetchErr, when non-nil, is the transport failure reported by the
// fetch layer for this venue; its fragments are ignored in that case.
func (a *Aggregator) Build(v *catalog.Venue, fragments []RawFragment, fetchErr *dinerrors.UpstreamError, now time.Time) Record {
	isOpen := IsOpenNow(v, now)

	var meals []Meal
	if fetchErr == nil {
		meals = NewNormalizer(v, a.log).Normalize(fragments, now)
	}
	if meals == nil {
		meals = []Meal{}
	}

	rec := Record{
		Name:           v.Name,
		Meals:          meals,
		Status:         Classify(isOpen, meals, fetchErr),
		Source:         v.Source,
		ScrapedAt:      now,
		OperatingHours: operatingHoursLabel(v, now),
		IsOpen:         isOpen,
	}
	if fetchErr != nil {
		rec.Error = fetchErr.Message
	}
	return rec
}

// operatingHoursLabel prefers the hand-maintained display string and falls
// back to a label built from today's schedule windows.
func operatingHoursLabel(v *catalog.Venue, now time.Time) *string {
	if v.OperatingHours != "" {
		label := v.OperatingHours
		return &label
	}

	day := now.In(v.Location()).Weekday()
	for _, sv := range v.Variants {
		if !sv.AppliesOn(day) || len(sv.Windows) == 0 {
			continue
		}
		first := sv.Windows[0]
		last := sv.Windows[len(sv.Windows)-1]
		label := dayListLabel(sv.Days) + ": " + first.Start.Format12h() + " - " + last.End.Format12h()
		return &label
	}
	return nil
}

func dayListLabel(days []time.Weekday) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return strings.Join(names, ", ")
}
