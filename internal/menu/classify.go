// internal/menu/classify.go
package menu

import (
	dinerrors "dining-aggregator/internal/common/errors"
)

// Classify combines resolver and normalizer output into the final venue
// status. A transport failure supplied by the fetch layer is passed through
// verbatim: the classifier never overrides it with a schedule-derived guess.
func Classify(isOpenNow bool, meals []Meal, upstreamErr *dinerrors.UpstreamError) Status {
	if upstreamErr != nil {
		return statusFor(upstreamErr.Code)
	}

	switch {
	case len(meals) > 0:
		return StatusOpen
	case isOpenNow:
		// The venue should be serving but nothing parsable came back;
		// distinct from an outage.
		return StatusOpenNoMenu
	default:
		return StatusClosed
	}
}

func statusFor(code dinerrors.ErrorCode) Status {
	switch code {
	case dinerrors.ErrCodeNetworkError:
		return StatusNetworkError
	case dinerrors.ErrCodeServiceUnavailable:
		return StatusServiceUnavailable
	default:
		return StatusError
	}
}
