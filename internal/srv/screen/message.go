package screen

import (
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"strings"
	"time"
)

const messageRedrawDelay = 250 * time.Millisecond

// Message is the transient overlay. Once expired it asks the runtime to dismiss it.
type Message struct {
	cadence
	NoPriority

	text      string
	expiresAt time.Time
	dismissed bool
}

func NewMessage(submitter command.Submitter) *Message {
	return &Message{
		cadence:   newCadence(model.MESSAGE_SCREEN, submitter),
		dismissed: true,
	}
}

func (s *Message) ScreenId() model.ScreenId {
	return model.MESSAGE_SCREEN
}

func (s *Message) SetMessage(text string, duration time.Duration) {
	s.text = text
	s.expiresAt = s.now().Add(duration)
	s.dismissed = false
}

func (s *Message) Activate() {
	s.start()
}

func (s *Message) Deactivate() {
}

func (s *Message) UpdateSettings(settings *model.ScoreboardSettings) {
}

func (s *Message) Draw(buf *canvas.Buffer) {
	buf.Clear()
	lines := wrap(s.text, buf.Width()/canvas.GlyphWidth)
	y := (buf.Height() - len(lines)*canvas.LineHeight) / 2
	for _, line := range lines {
		buf.CenteredText(y, line, canvas.White)
		y += canvas.LineHeight
	}

	if !s.now().Before(s.expiresAt) {
		if !s.dismissed {
			s.dismissed = true
			s.submitter.Submit(command.Dismiss{Screen: model.MESSAGE_SCREEN})
		}
		return
	}
	s.schedule(messageRedrawDelay)
}

// wrap splits text on words into lines of at most width runes
func wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	var current []rune
	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > width {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		switch {
		case len(current) == 0:
			current = runes
		case len(current)+1+len(runes) <= width:
			current = append(append(current, ' '), runes...)
		default:
			lines = append(lines, string(current))
			current = runes
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}
