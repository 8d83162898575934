package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsavvy/internal/config"
	"subsavvy/internal/domain/model"
)

func TestRecentUsage(t *testing.T) {
	since := time.Now().Add(-24 * time.Hour).UTC()
	recent := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	older := recent.Add(-time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/player/recently-played", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[
			{"track":{"duration_ms":180000},"played_at":%q},
			{"track":{"duration_ms":240000},"played_at":%q},
			{"track":{"duration_ms":600000},"played_at":%q}
		]}`, recent.Format(time.RFC3339), older.Format(time.RFC3339), since.Add(-time.Hour).Format(time.RFC3339))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	src := NewUsageSource(config.SpotifyConfig{ClientID: "id"}, &logger).WithAPIBase(srv.URL)
	stat, err := src.RecentUsage(context.Background(), &model.Connection{AccessToken: "tok"}, since)
	require.NoError(t, err)
	assert.Equal(t, 7, stat.Minutes)
	require.NotNil(t, stat.LastUsedAt)
	assert.True(t, stat.LastUsedAt.Equal(recent))
}

func TestRecentUsage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	src := NewUsageSource(config.SpotifyConfig{}, &logger).WithAPIBase(srv.URL)
	_, err := src.RecentUsage(context.Background(), &model.Connection{AccessToken: "tok"}, time.Now())
	assert.ErrorContains(t, err, "http 401")
}

func TestRecentUsage_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	src := NewUsageSource(config.SpotifyConfig{}, &logger).WithAPIBase(srv.URL)
	stat, err := src.RecentUsage(context.Background(), &model.Connection{AccessToken: "tok"}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, stat.Minutes)
	assert.Nil(t, stat.LastUsedAt)
}
