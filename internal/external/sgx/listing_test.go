package sgx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sgxsync/internal/contracts"
)

const listingHTML = `<html><body>
<table>
  <tr>
    <td>30 Jan 2026</td>
    <td><a href="https://links.sgx.com/1.0.0/derivatives-historical/4182/WEBPXTICK_DT-20260130.zip">Tick</a></td>
    <td><a href="https://links.sgx.com/1.0.0/derivatives-historical/4182/TickData_structure.dat">Tick structure</a></td>
    <td><a href="https://links.sgx.com/1.0.0/derivatives-historical/4433/TC.txt">TC</a></td>
  </tr>
  <tr>
    <td>2026-01-29</td>
    <td><a href="/1.0.0/derivatives-historical/4432/TC.txt">TC</a></td>
    <td><a href="/1.0.0/derivatives-historical/4432/TC_structure.dat">TC structure</a></td>
  </tr>
  <tr>
    <td>no date here</td>
    <td><a href="/1.0.0/derivatives-historical/4000/TC.txt">orphan</a></td>
    <td><a href="/1.0.0/derivatives-historical/4001/unknown.bin">unknown</a></td>
    <td><a href="/other/path">unrelated</a></td>
  </tr>
</table>
<a href="https://links.sgx.com/1.0.0/derivatives-historical/4182/WEBPXTICK_DT-20260130.zip">duplicate</a>
</body></html>`

func TestParseListing(t *testing.T) {
	listing, err := ParseListing(strings.NewReader(listingHTML), "https://links.sgx.com/page")
	require.NoError(t, err)

	require.Len(t, listing.Entries, 5)

	jan30 := contracts.MustParseTradingDate("2026-01-30")
	jan29 := contracts.MustParseTradingDate("2026-01-29")

	tick, ok := listing.Lookup(jan30, contracts.TickData)
	require.True(t, ok)
	assert.Equal(t, 4182, tick.ID)

	structure, ok := listing.Lookup(jan30, contracts.TickDataStructure)
	require.True(t, ok)
	assert.Equal(t, "https://links.sgx.com/1.0.0/derivatives-historical/4182/TickData_structure.dat", structure.URL)

	tc, ok := listing.Lookup(jan29, contracts.TradeCancellation)
	require.True(t, ok)
	assert.Equal(t, "https://links.sgx.com/1.0.0/derivatives-historical/4432/TC.txt", tc.URL, "relative links are resolved")
	assert.Equal(t, 4432, tc.ID)

	_, ok = listing.Lookup(jan29, contracts.TradeCancellationStructure)
	assert.True(t, ok)
}

func TestParseListing_Empty(t *testing.T) {
	listing, err := ParseListing(strings.NewReader(`<html><body><div id="app"></div></body></html>`), "https://www.sgx.com")
	require.NoError(t, err)
	assert.Empty(t, listing.Entries)
}

func TestFetchListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	listing, err := client.FetchListing(context.Background())
	require.NoError(t, err)
	assert.Len(t, listing.Entries, 5)
	assert.False(t, listing.FetchedAt.IsZero())
}

func TestFetchListing_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchListing(context.Background())
	assert.Error(t, err)
}
