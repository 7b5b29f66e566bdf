package coinbase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSDRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/exchange-rates", r.URL.Path)
		require.Equal(t, "ETH", r.URL.Query().Get("currency"))
		w.Write([]byte(`{"data": {"currency": "ETH", "rates": {"USD": "2000.25", "EUR": "1850.10"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	rate, err := c.USDRate(context.Background(), "ETH")
	require.NoError(t, err)
	assert.InDelta(t, 2000.25, rate, 1e-9)
}

func TestUSDRateMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"currency": "XYZ", "rates": {}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.USDRate(context.Background(), "XYZ")
	assert.Error(t, err)
}

func TestUSDRateUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.USDRate(context.Background(), "ETH")
	assert.Error(t, err)
}
