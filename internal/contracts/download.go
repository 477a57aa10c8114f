package contracts

import "fmt"

// URLSource records how a candidate URL was obtained
type URLSource string

const (
	SourceListing  URLSource = "listing"  // scraped from the derivatives page
	SourceDirect   URLSource = "direct"   // deterministic from date + kind
	SourceEstimate URLSource = "estimate" // ID estimation window
)

// ResolvedURL is one candidate location for a target
type ResolvedURL struct {
	URL    string    `json:"url"`
	Source URLSource `json:"source"`
	ID     int       `json:"id,omitempty"` // download ID embedded in the URL, 0 if unknown
}

// Response is the HTTP-shaped result returned by a transport
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Status is the classification of one download outcome
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusEmpty
	StatusTransportError
	StatusExhaustedRetries
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not_found"
	case StatusEmpty:
		return "empty"
	case StatusTransportError:
		return "transport_error"
	case StatusExhaustedRetries:
		return "exhausted_retries"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Retryable reports outcomes worth repeating against the same URL
func (s Status) Retryable() bool {
	return s == StatusTransportError || s == StatusEmpty
}

// Outcome is the terminal result of a download attempt or sequence
type Outcome struct {
	Status   Status
	Body     []byte
	Size     int64
	URL      string
	Reason   string
	Attempts int
	Last     *Outcome // last concrete outcome behind ExhaustedRetries
}

// Success wraps a downloaded payload
func Success(url string, body []byte) Outcome {
	return Outcome{Status: StatusSuccess, Body: body, Size: int64(len(body)), URL: url}
}

// NotFound marks a definitive miss
func NotFound(url, reason string) Outcome {
	return Outcome{Status: StatusNotFound, URL: url, Reason: reason}
}

// Empty marks an accepted request without usable content
func Empty(url, reason string) Outcome {
	return Outcome{Status: StatusEmpty, URL: url, Reason: reason}
}

// TransportError marks a network, timeout or server failure
func TransportError(url, reason string) Outcome {
	return Outcome{Status: StatusTransportError, URL: url, Reason: reason}
}

// Exhausted wraps the last concrete outcome after all candidates failed
func Exhausted(last Outcome, attempts int) Outcome {
	return Outcome{
		Status:   StatusExhaustedRetries,
		URL:      last.URL,
		Reason:   fmt.Sprintf("exhausted after %d attempts: %s", attempts, last.Describe()),
		Attempts: attempts,
		Last:     &last,
	}
}

// Describe returns "status: reason"
func (o Outcome) Describe() string {
	if o.Reason == "" {
		return o.Status.String()
	}
	return o.Status.String() + ": " + o.Reason
}
