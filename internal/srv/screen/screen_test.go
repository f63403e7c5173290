package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/srv/sports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	command command.Command
	delay   time.Duration
	delayed bool
}

type recordingSubmitter struct {
	submissions []submission
}

func (r *recordingSubmitter) Submit(cmd command.Command) {
	r.submissions = append(r.submissions, submission{command: cmd})
}

func (r *recordingSubmitter) SubmitAfter(cmd command.Command, delay time.Duration) {
	r.submissions = append(r.submissions, submission{command: cmd, delay: delay, delayed: true})
}

func (r *recordingSubmitter) delayedCount() int {
	count := 0
	for _, s := range r.submissions {
		if s.delayed {
			count++
		}
	}
	return count
}

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 4, 12, 18, 30, 0, 250_000_000, time.UTC)}
}

type fakePoller struct {
	started int
	active  bool
	leagues []model.League
	results []sports.Result
}

func (p *fakePoller) Start(ctx context.Context) {
	p.started++
}

func (p *fakePoller) SetActive(active bool) {
	p.active = active
}

func (p *fakePoller) SetLeagues(leagues []model.League) {
	p.leagues = leagues
}

func (p *fakePoller) TryReceive() (sports.Result, bool) {
	if len(p.results) == 0 {
		return sports.Result{}, false
	}
	result := p.results[len(p.results)-1]
	p.results = nil
	return result, true
}

func TestClockPriority(t *testing.T) {
	clock := NewClock(&recordingSubmitter{})

	assert.True(t, clock.HasPriority(model.CLOCK_AUTO_POWER))
	assert.False(t, clock.HasPriority(model.OFF_AUTO_POWER))
	assert.False(t, clock.HasPriority(model.SPORTS_AUTO_POWER))
	assert.False(t, NewGame(&recordingSubmitter{}).HasPriority(model.CLOCK_AUTO_POWER))
}

func TestClockRedrawsOnNextSecond(t *testing.T) {
	submitter := &recordingSubmitter{}
	fake := newFakeClock()
	clock := NewClock(submitter)
	clock.now = fake.now

	clock.Activate()
	require.Len(t, submitter.submissions, 1)
	assert.Equal(t, command.Draw{Screen: model.CLOCK_SCREEN}, submitter.submissions[0].command)
	assert.False(t, submitter.submissions[0].delayed)

	clock.Draw(canvas.NewBuffer(128, 64))
	require.Len(t, submitter.submissions, 2)
	assert.True(t, submitter.submissions[1].delayed)
	assert.Equal(t, 750*time.Millisecond, submitter.submissions[1].delay)
}

func TestCadenceDropsDuplicateChains(t *testing.T) {
	submitter := &recordingSubmitter{}
	fake := newFakeClock()
	clock := NewClock(submitter)
	clock.now = fake.now
	buf := canvas.NewBuffer(128, 64)

	// Reactivated before the first redraw fired: two immediate draws
	clock.Activate()
	clock.Activate()
	clock.Draw(buf)
	clock.Draw(buf)
	assert.Equal(t, 1, submitter.delayedCount())

	fake.advance(750 * time.Millisecond)
	clock.Draw(buf)
	assert.Equal(t, 2, submitter.delayedCount())
}

func TestMessageDismissesItself(t *testing.T) {
	submitter := &recordingSubmitter{}
	fake := newFakeClock()
	message := NewMessage(submitter)
	message.now = fake.now
	buf := canvas.NewBuffer(128, 64)

	var receiver MessageReceiver = message
	receiver.SetMessage("Wi-Fi joined", 2*time.Second)
	message.Activate()
	message.Draw(buf)
	assert.Equal(t, 1, submitter.delayedCount())

	fake.advance(2 * time.Second)
	message.Draw(buf)
	message.Draw(buf)

	var dismissals []command.Command
	for _, s := range submitter.submissions {
		if _, ok := s.command.(command.Dismiss); ok {
			dismissals = append(dismissals, s.command)
		}
	}
	assert.Equal(t, []command.Command{command.Dismiss{Screen: model.MESSAGE_SCREEN}}, dismissals)
	assert.Equal(t, 1, submitter.delayedCount())
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"Go Leafs", "go!"}, wrap("Go Leafs go!", 8))
	assert.Equal(t, []string{"abcd", "ef x"}, wrap("abcdef x", 4))
	assert.Nil(t, wrap("   ", 4))
}

func TestSetupStateMachine(t *testing.T) {
	fake := newFakeClock()
	setup := NewSetup(&recordingSubmitter{}, "Vekiscore-1234", "http://192.168.4.1")
	setup.now = fake.now
	buf := canvas.NewBuffer(128, 64)
	settings := model.DefaultSettings()

	assert.Equal(t, WAITING_FOR_CONNECTION, setup.State())

	settings.SetupState = model.SETUP_CONNECTING
	settings.WifiSsid = "home"
	setup.UpdateSettings(settings)
	assert.Equal(t, ATTEMPTING_CONNECTION, setup.State())

	settings.SetupState = model.SETUP_CONNECTION_FAILED
	settings.SetupError = "bad password"
	setup.UpdateSettings(settings)
	assert.Equal(t, CONNECTION_FAILED, setup.State())

	fake.advance(time.Second)
	setup.Draw(buf)
	assert.Equal(t, CONNECTION_FAILED, setup.State())

	fake.advance(failureDisplayTimeout)
	setup.Draw(buf)
	assert.Equal(t, WAITING_FOR_CONNECTION, setup.State())

	// Unrelated settings change keeps waiting
	setup.UpdateSettings(settings)
	assert.Equal(t, WAITING_FOR_CONNECTION, setup.State())

	settings.SetupState = model.SETUP_READY
	setup.UpdateSettings(settings)
	assert.Equal(t, CONNECTED, setup.State())
}

func liveGame(home, away string) model.Game {
	return model.Game{
		League: "nhl",
		Id:     home + away,
		Home:   model.TeamScore{Abbreviation: home, Score: 2},
		Away:   model.TeamScore{Abbreviation: away, Score: 1},
		Status: model.GAME_IN_PROGRESS,
	}
}

func TestSportPriority(t *testing.T) {
	poller := &fakePoller{}
	sport := NewSport(context.Background(), model.NHL_SCREEN, &recordingSubmitter{}, poller)
	settings := model.DefaultSettings()
	settings.FavoriteTeams = map[model.League][]string{"nhl": {"TOR"}}
	sport.UpdateSettings(settings)

	assert.Equal(t, []model.League{"nhl"}, poller.leagues)
	assert.Equal(t, 1, poller.started)
	assert.False(t, poller.active)

	poller.results = []sports.Result{{Games: []model.Game{liveGame("BOS", "MTL")}}}
	assert.False(t, sport.HasPriority(model.SPORTS_AUTO_POWER))

	poller.results = []sports.Result{{Games: []model.Game{liveGame("BOS", "MTL"), liveGame("TOR", "OTT")}}}
	assert.True(t, sport.HasPriority(model.SPORTS_AUTO_POWER))
	assert.False(t, sport.HasPriority(model.CLOCK_AUTO_POWER))

	// Without favorites any live game counts
	settings.FavoriteTeams = nil
	sport.UpdateSettings(settings)
	poller.results = []sports.Result{{Games: []model.Game{liveGame("BOS", "MTL")}}}
	assert.True(t, sport.HasPriority(model.SPORTS_AUTO_POWER))
}

func TestSportKeepsGamesOnError(t *testing.T) {
	poller := &fakePoller{}
	submitter := &recordingSubmitter{}
	sport := NewSport(context.Background(), model.SMART_SCREEN, submitter, poller)
	sport.UpdateSettings(model.DefaultSettings())
	assert.Equal(t, []model.League{"mlb", "nhl", "nba", "nfl", "mls"}, poller.leagues)

	sport.Activate()
	assert.True(t, poller.active)

	poller.results = []sports.Result{{Games: []model.Game{liveGame("TOR", "OTT")}}}
	sport.Draw(canvas.NewBuffer(128, 64))
	poller.results = []sports.Result{{Err: errors.New("timeout")}}
	sport.Draw(canvas.NewBuffer(128, 64))

	assert.Len(t, sport.games, 1)
	assert.Error(t, sport.lastErr)

	sport.Deactivate()
	assert.False(t, poller.active)
}

func TestSportFocusTeamFirst(t *testing.T) {
	poller := &fakePoller{}
	sport := NewSport(context.Background(), model.NHL_SCREEN, &recordingSubmitter{}, poller)
	settings := model.DefaultSettings()
	settings.Screens[model.NHL_SCREEN] = model.ScreenSettings{RotationTime: 5, FocusTeam: "OTT", Enabled: true}
	sport.UpdateSettings(settings)

	final := liveGame("TOR", "OTT")
	final.Status = model.GAME_FINAL
	poller.results = []sports.Result{{Games: []model.Game{liveGame("BOS", "MTL"), final}}}
	sport.receive()

	require.Len(t, sport.games, 2)
	assert.Equal(t, "TOROTT", sport.games[0].Id)
	assert.Equal(t, 5*time.Second, sport.rotationTime)
}

func TestCustomMessage(t *testing.T) {
	submitter := &recordingSubmitter{}
	custom := NewCustomMessage(submitter)
	settings := model.DefaultSettings()

	assert.False(t, custom.HasPriority(model.CUSTOM_MESSAGE_AUTO_POWER))

	settings.CustomMessage = "Go Leafs Go"
	custom.UpdateSettings(settings)
	assert.True(t, custom.HasPriority(model.CUSTOM_MESSAGE_AUTO_POWER))
	assert.False(t, custom.HasPriority(model.CLOCK_AUTO_POWER))
	assert.Empty(t, submitter.submissions)

	custom.Activate()
	settings.CustomMessage = "Happy birthday to the whole family"
	custom.UpdateSettings(settings)
	assert.Len(t, submitter.submissions, 2)

	custom.Draw(canvas.NewBuffer(128, 64))
	assert.Equal(t, 1, submitter.delayedCount())
}

func TestGameStatePersists(t *testing.T) {
	fake := newFakeClock()
	game := NewGame(&recordingSubmitter{})
	game.now = fake.now
	buf := canvas.NewBuffer(128, 64)

	game.Activate()
	game.Draw(buf)
	x := game.ballX

	fake.advance(gameRedrawDelay)
	game.Draw(buf)
	assert.NotEqual(t, x, game.ballX)

	moved := game.ballX
	game.Deactivate()
	game.Activate()
	assert.Equal(t, moved, game.ballX)
}
