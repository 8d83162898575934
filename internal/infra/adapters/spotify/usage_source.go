// Package spotify estimates listening time from the recently-played feed.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"subsavvy/internal/config"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/logging"
)

var _ adapter.UsageSource = (*UsageSource)(nil)

const (
	defaultAPIBase = "https://api.spotify.com/v1"
	// the endpoint caps a page at 50 items
	pageLimit = 50
	maxPages  = 20
)

var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

type UsageSource struct {
	oauth   *oauth2.Config
	apiBase string
	log     *zerolog.Logger
}

func NewUsageSource(cfg config.SpotifyConfig, logger *zerolog.Logger) *UsageSource {
	return &UsageSource{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     Endpoint,
			Scopes:       []string{"user-read-recently-played"},
		},
		apiBase: defaultAPIBase,
		log:     logging.Component(logger, "spotify_usage"),
	}
}

// WithAPIBase overrides the Web API root.
func (s *UsageSource) WithAPIBase(base string) *UsageSource {
	s.apiBase = base
	return s
}

type recentlyPlayed struct {
	Items []struct {
		Track struct {
			DurationMS int64 `json:"duration_ms"`
		} `json:"track"`
		PlayedAt time.Time `json:"played_at"`
	} `json:"items"`
	Cursors *struct {
		After string `json:"after"`
	} `json:"cursors"`
}

// RecentUsage sums track durations played after since. Spotify only keeps the
// last 50 plays reachable per cursor walk, so long windows undercount.
func (s *UsageSource) RecentUsage(ctx context.Context, conn *model.Connection, since time.Time) (model.UsageStat, error) {
	tok := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       conn.Expiry,
	}
	client := oauth2.NewClient(ctx, s.oauth.TokenSource(ctx, tok))

	var (
		total time.Duration
		last  time.Time
		after = strconv.FormatInt(since.UnixMilli(), 10)
	)
	for page := 0; page < maxPages; page++ {
		rp, err := s.fetch(ctx, client, after)
		if err != nil {
			return model.UsageStat{}, err
		}
		for _, it := range rp.Items {
			if it.PlayedAt.Before(since) {
				continue
			}
			total += time.Duration(it.Track.DurationMS) * time.Millisecond
			if it.PlayedAt.After(last) {
				last = it.PlayedAt
			}
		}
		if len(rp.Items) < pageLimit || rp.Cursors == nil || rp.Cursors.After == "" || rp.Cursors.After == after {
			break
		}
		after = rp.Cursors.After
	}

	stat := model.UsageStat{Minutes: int(total / time.Minute)}
	if !last.IsZero() {
		l := last.UTC()
		stat.LastUsedAt = &l
	}
	logging.With(ctx, s.log).Debug().Int("minutes", stat.Minutes).Msg("recently played summed")
	return stat, nil
}

func (s *UsageSource) fetch(ctx context.Context, client *http.Client, after string) (*recentlyPlayed, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageLimit))
	q.Set("after", after)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/me/player/recently-played?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify recently-played: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify recently-played: http %d", resp.StatusCode)
	}
	var rp recentlyPlayed
	if err := json.NewDecoder(resp.Body).Decode(&rp); err != nil {
		return nil, fmt.Errorf("spotify recently-played decode: %w", err)
	}
	return &rp, nil
}
