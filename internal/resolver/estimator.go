package resolver

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/sgxsync/internal/anchor"
	"github.com/wonny/sgxsync/internal/contracts"
)

// ErrNoAnchors is returned when a series has no reference point
var ErrNoAnchors = errors.New("no anchors for series")

// Estimator maps a trading date to an approximate download ID.
//
// IDs grow roughly linearly with the number of trading days. Between two
// anchors the estimate is interpolated by trading days elapsed; outside
// them it is extrapolated with the average increment of the nearest
// segment (1 per trading day with a single anchor). The result is
// non-decreasing in date because anchors are kept monotonic.
type Estimator struct {
	anchors  *anchor.Set
	calendar contracts.Calendar
}

// NewEstimator creates an estimator over a shared anchor set
func NewEstimator(anchors *anchor.Set, cal contracts.Calendar) *Estimator {
	return &Estimator{anchors: anchors, calendar: cal}
}

// Estimate returns the approximate ID for date in series
func (e *Estimator) Estimate(series contracts.Series, date contracts.TradingDate) (int, error) {
	list := e.anchors.Series(series)
	if len(list) == 0 {
		return 0, fmt.Errorf("%w %s", ErrNoAnchors, series)
	}

	i := sort.Search(len(list), func(i int) bool { return !list[i].Date.Before(date) })

	switch {
	case i < len(list) && list[i].Date == date:
		return list[i].ID, nil

	case len(list) == 1:
		return e.project(list[0], 1.0, date), nil

	case i == 0:
		return e.project(list[0], e.slope(list[0], list[1]), date), nil

	case i == len(list):
		lo, hi := list[len(list)-2], list[len(list)-1]
		return e.project(hi, e.slope(lo, hi), date), nil

	default:
		lo, hi := list[i-1], list[i]
		span := e.calendar.TradingDaysBetween(lo.Date, hi.Date)
		if span == 0 {
			return lo.ID, nil
		}
		k := e.calendar.TradingDaysBetween(lo.Date, date)
		return lo.ID + int(math.Round(float64(hi.ID-lo.ID)*float64(k)/float64(span))), nil
	}
}

// slope is the average ID increment per trading day over a segment
func (e *Estimator) slope(lo, hi anchor.Anchor) float64 {
	span := e.calendar.TradingDaysBetween(lo.Date, hi.Date)
	if span == 0 {
		return 1.0
	}
	return float64(hi.ID-lo.ID) / float64(span)
}

func (e *Estimator) project(from anchor.Anchor, slope float64, date contracts.TradingDate) int {
	k := e.calendar.TradingDaysBetween(from.Date, date)
	return from.ID + int(math.Round(slope*float64(k)))
}

// Window returns candidate IDs in confidence order:
// estimate, +1, -1, +2, -2 … ±radius. Non-positive IDs are dropped.
func Window(estimate, radius int) []int {
	ids := make([]int, 0, 2*radius+1)
	if estimate > 0 {
		ids = append(ids, estimate)
	}
	for offset := 1; offset <= radius; offset++ {
		for _, id := range []int{estimate + offset, estimate - offset} {
			if id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
