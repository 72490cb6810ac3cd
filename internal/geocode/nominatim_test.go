package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestReverse(t *testing.T) {
	srv, req := newTestServer(t, http.StatusOK,
		`{"display_name":"Rome","address":{"city":"Roma","state":"Lazio","country":"Italia","country_code":"it"}}`)

	n := NewNominatim(Config{BaseURL: srv.URL + "/", UserAgent: "HTGen/test"})
	n.delay = 0

	place, err := n.Reverse(context.Background(), Coordinates{Latitude: 41.9028, Longitude: 12.4964})
	require.NoError(t, err)
	assert.Equal(t, Place{City: "Roma", Country: "Italia"}, place)
	assert.True(t, place.Known())

	assert.Equal(t, "/reverse", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "41.9028", q.Get("lat"))
	assert.Equal(t, "12.4964", q.Get("lon"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "10", q.Get("zoom"))
	assert.Equal(t, "1", q.Get("addressdetails"))
	assert.Equal(t, "HTGen/test", req.Header.Get("User-Agent"))
}

func TestReverseCityFallback(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    Place
	}{
		{"town", `{"town":"Bled","country":"Slovenija"}`, Place{City: "Bled", Country: "Slovenija"}},
		{"village over suburb", `{"suburb":"X","village":"Hallstatt","country":"Österreich"}`, Place{City: "Hallstatt", Country: "Österreich"}},
		{"municipality", `{"municipality":"Longyearbyen"}`, Place{City: "Longyearbyen"}},
		{"country only", `{"country":"Antarctica"}`, Place{Country: "Antarctica"}},
		{"nothing", `{}`, Place{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, `{"address":`+tt.address+`}`)
			n := NewNominatim(Config{BaseURL: srv.URL})
			n.delay = 0

			place, err := n.Reverse(context.Background(), Coordinates{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, place)
		})
	}
}

func TestReverseErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusServiceUnavailable, `busy`)
		n := NewNominatim(Config{BaseURL: srv.URL})
		n.delay = 0

		_, err := n.Reverse(context.Background(), Coordinates{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("invalid json", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `<html>`)
		n := NewNominatim(Config{BaseURL: srv.URL})
		n.delay = 0

		_, err := n.Reverse(context.Background(), Coordinates{})
		assert.ErrorIs(t, err, ErrBadResponse)
	})

	t.Run("nominatim error body", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `{"error":"Unable to geocode"}`)
		n := NewNominatim(Config{BaseURL: srv.URL})
		n.delay = 0

		_, err := n.Reverse(context.Background(), Coordinates{})
		assert.ErrorIs(t, err, ErrBadResponse)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `{}`)
		url := srv.URL
		srv.Close()

		n := NewNominatim(Config{BaseURL: url})
		n.delay = 0

		_, err := n.Reverse(context.Background(), Coordinates{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("cancelled during delay", func(t *testing.T) {
		n := NewNominatim(Config{BaseURL: "http://127.0.0.1:0", Delay: time.Minute})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := n.Reverse(ctx, Coordinates{})
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestNewNominatimDefaults(t *testing.T) {
	n := NewNominatim(Config{})
	assert.Equal(t, DefaultBaseURL, n.baseURL)
	assert.Equal(t, DefaultUserAgent, n.userAgent)
	assert.Equal(t, time.Duration(0), n.delay)
	assert.Equal(t, DefaultTimeout, n.httpClient.Timeout)
}
