package screen

import (
	"context"
	"fmt"
	"github.com/jypelle/vekiscore/internal/images"
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/srv/sports"
	"github.com/sirupsen/logrus"
	"sort"
	"strings"
	"time"
)

const sportRedrawDelay = 500 * time.Millisecond

// Poller is the background refresh activity of a sport screen, see sports.Poller
type Poller interface {
	Start(ctx context.Context)
	SetActive(active bool)
	SetLeagues(leagues []model.League)
	TryReceive() (sports.Result, bool)
}

// Sport shows the games of one league, or of every enabled league for the smart screen.
type Sport struct {
	cadence
	id     model.ScreenId
	ctx    context.Context
	poller Poller

	games     []model.Game
	lastErr   error
	fetchedAt time.Time

	location     *time.Location
	favorites    []string
	focusTeam    string
	rotationTime time.Duration
	index        int
	shownSince   time.Time
}

func NewSport(ctx context.Context, id model.ScreenId, submitter command.Submitter, poller Poller) *Sport {
	return &Sport{
		cadence:      newCadence(id, submitter),
		id:           id,
		ctx:          ctx,
		poller:       poller,
		location:     time.UTC,
		rotationTime: 8 * time.Second,
	}
}

func (s *Sport) ScreenId() model.ScreenId {
	return s.id
}

func (s *Sport) Activate() {
	logrus.Debugf("Activate %s screen", s.id)
	s.poller.Start(s.ctx)
	s.poller.SetActive(true)
	s.shownSince = s.now()
	s.start()
}

func (s *Sport) Deactivate() {
	logrus.Debugf("Deactivate %s screen", s.id)
	s.poller.SetActive(false)
}

func (s *Sport) UpdateSettings(settings *model.ScoreboardSettings) {
	screenSettings := settings.ScreenSettings(s.id)
	s.rotationTime = time.Duration(screenSettings.RotationTime) * time.Second
	s.focusTeam = screenSettings.FocusTeam
	s.location = settings.Location()

	var leagues []model.League
	s.favorites = nil
	if s.id == model.SMART_SCREEN {
		leagues = settings.Leagues()
		for _, league := range leagues {
			s.favorites = append(s.favorites, settings.FavoriteTeams[league]...)
		}
	} else if screenSettings.Enabled {
		leagues = []model.League{s.id.League()}
		s.favorites = append(s.favorites, settings.FavoriteTeams[s.id.League()]...)
	}
	s.poller.SetLeagues(leagues)
	// Hibernating poller, so that sports auto power sees live games of inactive screens
	s.poller.Start(s.ctx)
	s.sortGames()
}

// HasPriority is true in sports mode while a favorite team (any team without favorites) plays
func (s *Sport) HasPriority(mode model.AutoPowerMode) bool {
	if mode != model.SPORTS_AUTO_POWER {
		return false
	}
	s.receive()
	for _, game := range s.games {
		if game.IsLive() && (len(s.favorites) == 0 || game.Involves(s.favorites)) {
			return true
		}
	}
	return false
}

func (s *Sport) Draw(buf *canvas.Buffer) {
	s.receive()
	s.rotate()

	buf.Clear()
	title := strings.ToUpper(string(s.id))
	buf.Text(0, 0, title, canvas.Yellow)

	switch {
	case len(s.games) == 0 && s.lastErr != nil:
		buf.Sprite(buf.Width()-images.ErrorImage.Bounds().Dx(), 1, images.ErrorImage)
		buf.CenteredText(buf.Height()/2, "No data", canvas.Red)
	case len(s.games) == 0:
		buf.CenteredText(buf.Height()/2, "No games today", canvas.White)
	default:
		if s.lastErr != nil {
			buf.Sprite(buf.Width()-images.ErrorImage.Bounds().Dx(), 1, images.ErrorImage)
		}
		s.drawGame(buf, s.games[s.index])
	}

	s.schedule(sportRedrawDelay)
}

func (s *Sport) drawGame(buf *canvas.Buffer, game model.Game) {
	if s.id == model.SMART_SCREEN {
		buf.Text(canvas.TextWidth("SMART")+canvas.GlyphWidth, 0, strings.ToUpper(string(game.League)), canvas.Grey)
	}

	scoreLine := fmt.Sprintf("%s %d-%d %s", game.Away.Abbreviation, game.Away.Score, game.Home.Score, game.Home.Abbreviation)
	if canvas.TextWidth(scoreLine)*2 <= buf.Width() {
		buf.CenteredBigText(buf.Height()/2-canvas.LineHeight, scoreLine, 2, canvas.White)
	} else {
		buf.CenteredText(buf.Height()/2-canvas.LineHeight/2, scoreLine, canvas.White)
	}

	var status string
	switch game.Status {
	case model.GAME_IN_PROGRESS:
		status = strings.TrimSpace(game.Period + " " + game.Clock)
	case model.GAME_FINAL:
		status = "Final"
	case model.GAME_POSTPONED:
		status = "Postponed"
	default:
		status = game.StartTime.In(s.location).Format("15:04")
	}
	buf.CenteredText(buf.Height()-canvas.LineHeight, status, canvas.Green)
}

// receive drains the poller result without blocking
func (s *Sport) receive() {
	result, ok := s.poller.TryReceive()
	if !ok {
		return
	}
	if result.Err != nil {
		// Keep showing the last known games
		s.lastErr = result.Err
		return
	}
	s.lastErr = nil
	s.games = append([]model.Game(nil), result.Games...)
	s.fetchedAt = result.FetchedAt
	s.sortGames()
	if s.index >= len(s.games) {
		s.index = 0
	}
}

func (s *Sport) rotate() {
	if len(s.games) == 0 {
		s.index = 0
		return
	}
	if s.now().Sub(s.shownSince) >= s.rotationTime {
		s.index = (s.index + 1) % len(s.games)
		s.shownSince = s.now()
	}
}

// sortGames puts the focus team first, then live games, keeping feed order otherwise
func (s *Sport) sortGames() {
	rank := func(game model.Game) int {
		switch {
		case s.focusTeam != "" && game.Involves([]string{s.focusTeam}):
			return 0
		case game.IsLive():
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(s.games, func(i, j int) bool {
		return rank(s.games[i]) < rank(s.games[j])
	})
}
