package contracts

import "time"

// ListingEntry is a download link scraped from the derivatives page
type ListingEntry struct {
	Date TradingDate `json:"date"`
	Kind FileKind    `json:"kind"`
	URL  string      `json:"url"`
	ID   int         `json:"id"`
}

// Listing is the set of links found on one fetch of the page
type Listing struct {
	FetchedAt time.Time      `json:"fetched_at"`
	Entries   []ListingEntry `json:"entries"`
}

// Lookup returns the link for a target, if the page listed it
func (l *Listing) Lookup(date TradingDate, kind FileKind) (ListingEntry, bool) {
	if l == nil {
		return ListingEntry{}, false
	}
	for _, e := range l.Entries {
		if e.Date == date && e.Kind == kind {
			return e, true
		}
	}
	return ListingEntry{}, false
}
