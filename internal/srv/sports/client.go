package sports

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/version"
	"net/http"
	"net/url"
	"time"
)

// Client fetches the games of the day for one league.
type Client interface {
	FetchGames(ctx context.Context, league model.League) ([]model.Game, error)
}

type gamesResponse struct {
	Date  string       `json:"date"`
	Games []model.Game `json:"games"`
}

// HttpClient reads a canonical score feed: GET {baseUrl}/{league}/games?date=YYYY-MM-DD
type HttpClient struct {
	baseUrl    string
	httpClient *http.Client
	now        func() time.Time
}

func NewHttpClient(baseUrl string, timeout time.Duration) *HttpClient {
	return &HttpClient{
		baseUrl:    baseUrl,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (c *HttpClient) FetchGames(ctx context.Context, league model.League) ([]model.Game, error) {
	endpoint, err := url.JoinPath(c.baseUrl, string(league), "games")
	if err != nil {
		return nil, fmt.Errorf("build %s endpoint: %w", league, err)
	}
	endpoint += "?date=" + c.now().Format("2006-01-02")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.AppVersion.UserAgent())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch %s games: %w", league, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, &StatusError{League: league, StatusCode: response.StatusCode}
	}

	var payload gamesResponse
	if err = json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("interpret %s games: %w", league, err)
	}
	for i := range payload.Games {
		payload.Games[i].League = league
	}
	return payload.Games, nil
}

type StatusError struct {
	League     model.League
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s games: unexpected status %d", e.League, e.StatusCode)
}

// Temporary reports whether retrying the same request can succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
