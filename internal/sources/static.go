// internal/sources/static.go
package sources

import (
	"context"
	"time"

	"dining-aggregator/internal/catalog"
	dinerrors "dining-aggregator/internal/common/errors"
	"dining-aggregator/internal/menu"
)

// StaticSource serves venues whose menus never change. Nothing is fetched;
// the normalizer emits the venue's fixed catalog while it is open.
type StaticSource struct{}

func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

func (s *StaticSource) Fetch(_ context.Context, _ *catalog.Venue, _ time.Time) ([]menu.RawFragment, *dinerrors.UpstreamError) {
	return nil, nil
}
