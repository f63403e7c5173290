package screen

import (
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/sirupsen/logrus"
	"time"
)

type Clock struct {
	cadence
	location *time.Location
}

func NewClock(submitter command.Submitter) *Clock {
	return &Clock{
		cadence:  newCadence(model.CLOCK_SCREEN, submitter),
		location: time.UTC,
	}
}

func (s *Clock) ScreenId() model.ScreenId {
	return model.CLOCK_SCREEN
}

func (s *Clock) Activate() {
	logrus.Debugf("Activate clock")
	s.start()
}

func (s *Clock) Deactivate() {
	logrus.Debugf("Deactivate clock")
}

func (s *Clock) UpdateSettings(settings *model.ScoreboardSettings) {
	s.location = settings.Location()
}

func (s *Clock) HasPriority(mode model.AutoPowerMode) bool {
	return mode == model.CLOCK_AUTO_POWER
}

func (s *Clock) Draw(buf *canvas.Buffer) {
	now := s.now().In(s.location)

	buf.Clear()
	buf.CenteredBigText(buf.Height()/2-canvas.LineHeight, now.Format("15:04"), 2, canvas.White)
	buf.CenteredText(buf.Height()-canvas.LineHeight, now.Format("Mon Jan 2"), canvas.Grey)

	// Redraw on the next second boundary
	s.schedule(now.Truncate(time.Second).Add(time.Second).Sub(now))
}
