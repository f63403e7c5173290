package screen

import (
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"time"
)

const (
	scrollRedrawDelay = 100 * time.Millisecond
	scrollGap         = 4 * canvas.GlyphWidth
)

// CustomMessage shows the user text, scrolling it when wider than the display
type CustomMessage struct {
	cadence
	text   string
	offset int
	active bool
}

func NewCustomMessage(submitter command.Submitter) *CustomMessage {
	return &CustomMessage{
		cadence: newCadence(model.CUSTOM_MESSAGE_SCREEN, submitter),
	}
}

func (s *CustomMessage) ScreenId() model.ScreenId {
	return model.CUSTOM_MESSAGE_SCREEN
}

func (s *CustomMessage) HasPriority(mode model.AutoPowerMode) bool {
	return mode == model.CUSTOM_MESSAGE_AUTO_POWER && s.text != ""
}

func (s *CustomMessage) Activate() {
	s.active = true
	s.offset = 0
	s.start()
}

func (s *CustomMessage) Deactivate() {
	s.active = false
}

func (s *CustomMessage) UpdateSettings(settings *model.ScoreboardSettings) {
	if settings.CustomMessage == s.text {
		return
	}
	s.text = settings.CustomMessage
	s.offset = 0
	if s.active {
		s.start()
	}
}

func (s *CustomMessage) Text() string {
	return s.text
}

func (s *CustomMessage) Draw(buf *canvas.Buffer) {
	buf.Clear()
	y := (buf.Height() - 2*canvas.LineHeight) / 2
	width := 2 * canvas.TextWidth(s.text)

	if width <= buf.Width() {
		// Fits: static
		buf.CenteredBigText(y, s.text, 2, canvas.Yellow)
		return
	}

	period := width + scrollGap
	x := buf.Width() - s.offset
	buf.BigText(x, y, s.text, 2, canvas.Yellow)
	if x+period < buf.Width() {
		buf.BigText(x+period, y, s.text, 2, canvas.Yellow)
	}

	if s.due() {
		s.offset++
		if s.offset >= buf.Width()+period {
			s.offset -= period
		}
	}
	s.schedule(scrollRedrawDelay)
}
