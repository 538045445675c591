package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salesdash/internal/daemon"
)

func TestNewClient(t *testing.T) {
	assert.Nil(t, NewClient("  "))
	assert.Equal(t, "http://127.0.0.1:8787", NewClient("127.0.0.1:8787").BaseURL())
	assert.Equal(t, "https://sales.example", NewClient("https://sales.example/").BaseURL())
}

func TestFetchAll_NotLoaded(t *testing.T) {
	svc := daemon.New(daemon.Config{DataFile: "/does/not/exist.csv"})
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	ov := NewClient(srv.URL).FetchAll(context.Background(), nil)
	require.NotNil(t, ov.Status)
	assert.Equal(t, "/does/not/exist.csv", ov.Status.DataFile)
	assert.Nil(t, ov.Summary)
	assert.ErrorIs(t, ov.Error, ErrNotLoaded)
}

func TestFetchAll_SendsFilters(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data_file":"sales.csv","poll_count":3}`))
	})
	mux.HandleFunc("/v1/summary", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"rows":2,"quantity":10,"sales_value":"170","latest_month":"2024-03"}`))
	})
	mux.HandleFunc("/v1/segments", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"segment":"High Value","businesses":1,"sales_value":"140","share_percent":82.35}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ov := NewClient(srv.URL).FetchAll(context.Background(), map[string]string{"category": "A"})
	require.NoError(t, ov.Error)
	assert.Equal(t, "category=A", gotQuery)
	assert.Equal(t, int64(3), ov.Status.PollCount)
	require.NotNil(t, ov.Summary)
	assert.Equal(t, "170", ov.Summary.SalesValue.String())
	require.Len(t, ov.Segments, 1)
	assert.Equal(t, 1, ov.Segments[0].Businesses)
}

func TestValues_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"Bad Request","error":"unknown column: NOPE"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Values(context.Background(), "NOPE", nil)
	require.ErrorIs(t, err, ErrBadRequest)
	assert.Contains(t, err.Error(), "unknown column: NOPE")
}
