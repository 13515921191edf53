package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Cinéma", r.URL.Query().Get("topic"))
		w.Write([]byte(`{"digest":"Une phrase. Une autre."}`))
	}))
	defer srv.Close()

	news := NewNews(srv.URL, srv.Client())
	digest, err := news.Get(context.Background(), "Cinéma")
	require.NoError(t, err)
	assert.Equal(t, "Une phrase. Une autre.", digest)
}

func TestNewsGetUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	news := NewNews(srv.URL, srv.Client())
	_, err := news.Get(context.Background(), "Sport")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"translation":"hello everyone"}`))
	}))
	defer srv.Close()

	tr := NewTranslator(srv.URL, srv.Client())
	out, err := tr.Translate(context.Background(), "bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, "hello everyone", out)
}

func TestWeatherCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("city"))
		w.Write([]byte(`{"temperature":"21°C","forecast":"Ensoleillé","icon":"http://x/sun.png"}`))
	}))
	defer srv.Close()

	weather := NewWeather(srv.URL, srv.Client())
	report, err := weather.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", report.City, "city falls back to the requested one")
	assert.Equal(t, "21°C", report.Temperature)
	assert.Equal(t, "Ensoleillé", report.Forecast)
	assert.Equal(t, "http://x/sun.png", report.IconURL)
}

func TestWeatherUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	weather := NewWeather(srv.URL, srv.Client())
	_, err := weather.Current(context.Background(), "Lyon")
	require.ErrorIs(t, err, ErrUnavailable)
}
