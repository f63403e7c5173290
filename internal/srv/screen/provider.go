package screen

import (
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"time"
)

// Provider is implemented by every screen. The display runtime is the only caller, always
// from its own goroutine, and none of these methods may block.
type Provider interface {
	// Activate starts background activity if any and submits the first Draw for ScreenId
	Activate()
	// Deactivate hibernates background activity, keeping state needed by a later Activate
	Deactivate()
	// Draw renders into buf and, unless the screen is static, submits its next delayed Draw
	Draw(buf *canvas.Buffer)
	UpdateSettings(settings *model.ScoreboardSettings)
	ScreenId() model.ScreenId
	// HasPriority reports whether the screen preempts the manual screen in the given auto power mode
	HasPriority(mode model.AutoPowerMode) bool
}

// MessageReceiver is implemented by screens able to show a transient message
type MessageReceiver interface {
	SetMessage(text string, duration time.Duration)
}

type NoPriority struct{}

func (NoPriority) HasPriority(mode model.AutoPowerMode) bool {
	return false
}

// cadence drives the self scheduled redraw loop of a screen.
// A screen reactivated before its previous redraw fired receives extra Draw commands:
// only a draw reaching its scheduled deadline re-arms the loop, so extra chains die out.
type cadence struct {
	screen    model.ScreenId
	submitter command.Submitter
	now       func() time.Time
	next      time.Time
}

func newCadence(screen model.ScreenId, submitter command.Submitter) cadence {
	return cadence{
		screen:    screen,
		submitter: submitter,
		now:       time.Now,
	}
}

func (c *cadence) start() {
	c.next = time.Time{}
	c.submitter.Submit(command.Draw{Screen: c.screen})
}

func (c *cadence) due() bool {
	return !c.now().Before(c.next)
}

// schedule re-arms the loop, if this draw belongs to the live chain
func (c *cadence) schedule(delay time.Duration) {
	if !c.due() {
		return
	}
	c.next = c.now().Add(delay)
	c.submitter.SubmitAfter(command.Draw{Screen: c.screen}, delay)
}
