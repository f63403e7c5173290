package sports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	lock    sync.Mutex
	games   map[model.League][]model.Game
	errs    []error
	calls   int
	leagues []model.League
}

func (s *stubClient) FetchGames(ctx context.Context, league model.League) ([]model.Game, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls++
	s.leagues = append(s.leagues, league)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.games[league], nil
}

func (s *stubClient) callCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls
}

type memoryCache struct {
	lock  sync.Mutex
	games map[model.League][]model.Game
}

func (c *memoryCache) Save(ctx context.Context, league model.League, games []model.Game) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.games[league] = games
	return nil
}

func (c *memoryCache) Load(ctx context.Context, league model.League) ([]model.Game, time.Time, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	games, ok := c.games[league]
	if !ok {
		return nil, time.Time{}, errors.New("not cached")
	}
	return games, time.Unix(1700000000, 0), nil
}

func waitResult(t *testing.T, p *Poller) Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if result, ok := p.TryReceive(); ok {
			return result
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no poller result")
	return Result{}
}

func TestHttpClientFetchesLeagueGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nhl/games", r.URL.Path)
		assert.Equal(t, "2024-03-02", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"date":"2024-03-02","games":[{"id":"g1","home":{"abbreviation":"MTL","score":2},"away":{"abbreviation":"BOS","score":1},"status":"in_progress","period":"3rd"}]}`))
	}))
	defer server.Close()

	client := NewHttpClient(server.URL, time.Second)
	client.now = func() time.Time { return time.Date(2024, 3, 2, 20, 0, 0, 0, time.UTC) }

	games, err := client.FetchGames(context.Background(), "nhl")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, model.League("nhl"), games[0].League)
	assert.Equal(t, "MTL", games[0].Home.Abbreviation)
	assert.True(t, games[0].IsLive())
}

func TestHttpClientReportsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewHttpClient(server.URL, time.Second).FetchGames(context.Background(), "mlb")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, statusErr.Temporary())
}

func TestRetryingClientRetriesTemporaryErrors(t *testing.T) {
	inner := &stubClient{
		games: map[model.League][]model.Game{"nba": {{Id: "g1"}}},
		errs:  []error{errors.New("timeout"), &StatusError{League: "nba", StatusCode: 502}},
	}

	games, err := NewRetryingClient(inner, 3, time.Millisecond).FetchGames(context.Background(), "nba")
	require.NoError(t, err)
	assert.Len(t, games, 1)
	assert.Equal(t, 3, inner.callCount())
}

func TestRetryingClientStopsOnClientError(t *testing.T) {
	inner := &stubClient{errs: []error{&StatusError{League: "nba", StatusCode: 404}}}

	_, err := NewRetryingClient(inner, 3, time.Millisecond).FetchGames(context.Background(), "nba")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 1, inner.callCount())
}

func TestPollerDeliversAllLeagues(t *testing.T) {
	client := &stubClient{games: map[model.League][]model.Game{
		"nhl": {{League: "nhl", Id: "a"}},
		"mlb": {{League: "mlb", Id: "b"}},
	}}
	cache := &memoryCache{games: map[model.League][]model.Game{}}
	p := NewPoller("smart", client, cache, nil, time.Hour, time.Hour)
	p.SetLeagues([]model.League{"nhl", "mlb"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	result := waitResult(t, p)
	require.NoError(t, result.Err)
	require.Len(t, result.Games, 2)
	assert.Equal(t, "a", result.Games[0].Id)
	assert.Equal(t, "b", result.Games[1].Id)
	assert.Len(t, cache.games, 2)
}

func TestPollerSeedsFromCache(t *testing.T) {
	client := &stubClient{errs: []error{errors.New("offline"), errors.New("offline"), errors.New("offline")}}
	cache := &memoryCache{games: map[model.League][]model.Game{"nfl": {{League: "nfl", Id: "cached"}}}}
	p := NewPoller("nfl", client, cache, nil, time.Hour, time.Hour)
	p.SetLeagues([]model.League{"nfl"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	first := waitResult(t, p)
	if first.Err == nil {
		require.Len(t, first.Games, 1)
		assert.Equal(t, "cached", first.Games[0].Id)
		first = waitResult(t, p)
	}
	assert.Error(t, first.Err)
}

func TestPollerActivationTriggersRefresh(t *testing.T) {
	client := &stubClient{games: map[model.League][]model.Game{"mls": {{Id: "x"}}}}
	p := NewPoller("mls", client, nil, nil, time.Hour, time.Hour)
	p.SetLeagues([]model.League{"mls"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	waitResult(t, p)
	assert.Equal(t, 1, client.callCount())

	p.SetActive(true)
	waitResult(t, p)
	assert.Equal(t, 2, client.callCount())

	// already active: no extra refresh
	p.SetActive(true)
	time.Sleep(30 * time.Millisecond)
	_, ok := p.TryReceive()
	assert.False(t, ok)
}
