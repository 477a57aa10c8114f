// Package anchor keeps the (date, download ID) reference points used to
// estimate where a file lives on the SGX site.
package anchor

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/sgxsync/internal/contracts"
)

var (
	// ErrNonMonotonicAnchor is returned when an anchor would make IDs
	// decrease as dates increase
	ErrNonMonotonicAnchor = errors.New("anchor breaks ID monotonicity")
	// ErrConflictingAnchor is returned for a second, different ID on a known date
	ErrConflictingAnchor = errors.New("anchor conflicts with a known ID for the same date")
)

// Anchor is one known reference point
type Anchor struct {
	Series contracts.Series      `json:"series" yaml:"series"`
	Date   contracts.TradingDate `json:"date" yaml:"date"`
	ID     int                   `json:"id" yaml:"id"`
}

func (a Anchor) String() string {
	return fmt.Sprintf("%s@%s=%d", a.Series, a.Date, a.ID)
}

// Defaults are the reference points observed on the site
func Defaults() []Anchor {
	ref := contracts.NewTradingDate(2026, 1, 30)
	return []Anchor{
		{Series: contracts.SeriesTick, Date: ref, ID: 4182},
		{Series: contracts.SeriesTC, Date: ref, ID: 4433},
	}
}

// Set is an ordered, monotonic collection of anchors per series.
// Safe for concurrent use.
type Set struct {
	mu     sync.RWMutex
	series map[contracts.Series][]Anchor
}

// NewSet builds a set; anchors that violate monotonicity are rejected
func NewSet(anchors ...Anchor) (*Set, error) {
	s := &Set{series: make(map[contracts.Series][]Anchor)}
	for _, a := range anchors {
		if _, err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts an anchor keeping date order. It reports whether the set
// changed; an identical anchor is a no-op.
func (s *Set) Add(a Anchor) (bool, error) {
	if a.ID <= 0 {
		return false, fmt.Errorf("anchor %s: id must be positive", a)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.series[a.Series]
	i := sort.Search(len(list), func(i int) bool { return !list[i].Date.Before(a.Date) })

	if i < len(list) && list[i].Date == a.Date {
		if list[i].ID == a.ID {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s vs %s", ErrConflictingAnchor, a, list[i])
	}
	if i > 0 && list[i-1].ID > a.ID {
		return false, fmt.Errorf("%w: %s after %s", ErrNonMonotonicAnchor, a, list[i-1])
	}
	if i < len(list) && list[i].ID < a.ID {
		return false, fmt.Errorf("%w: %s before %s", ErrNonMonotonicAnchor, a, list[i])
	}

	list = append(list, Anchor{})
	copy(list[i+1:], list[i:])
	list[i] = a
	s.series[a.Series] = list
	return true, nil
}

// Series returns a copy of the anchors for one series, oldest first
func (s *Set) Series(series contracts.Series) []Anchor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Anchor, len(s.series[series]))
	copy(out, s.series[series])
	return out
}

// All returns every anchor grouped by series order
func (s *Set) All() []Anchor {
	var out []Anchor
	for _, series := range contracts.AllSeries {
		out = append(out, s.Series(series)...)
	}
	return out
}
