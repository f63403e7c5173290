package device

import (
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"sync"
	"time"
)

const (
	buttonSamplePeriod = 5 * time.Millisecond
	debounceDelay      = 20 * time.Millisecond
)

type PressKind int

const (
	NO_PRESS PressKind = iota
	SINGLE_PRESS
	DOUBLE_PRESS
	LONG_PRESS
)

// pressClassifier turns pin samples into single, double and long presses.
// A single press is only reported once the double press window is over.
type pressClassifier struct {
	doublePressWindow time.Duration
	longPressDuration time.Duration

	pressed       bool
	lastChange    time.Time
	pressedAt     time.Time
	longReported  bool
	pendingSingle bool
	releasedAt    time.Time
}

func newPressClassifier(doublePressWindow, longPressDuration time.Duration) *pressClassifier {
	return &pressClassifier{
		doublePressWindow: doublePressWindow,
		longPressDuration: longPressDuration,
	}
}

func (c *pressClassifier) sample(pressed bool, now time.Time) PressKind {
	if pressed != c.pressed && now.Sub(c.lastChange) >= debounceDelay {
		c.pressed = pressed
		c.lastChange = now
		if pressed {
			c.pressedAt = now
			c.longReported = false
		} else if !c.longReported {
			if c.pendingSingle {
				c.pendingSingle = false
				return DOUBLE_PRESS
			}
			c.pendingSingle = true
			c.releasedAt = now
		}
		return NO_PRESS
	}

	if c.pressed {
		if !c.longReported && now.Sub(c.pressedAt) >= c.longPressDuration {
			c.longReported = true
			c.pendingSingle = false
			return LONG_PRESS
		}
	} else if c.pendingSingle && now.Sub(c.releasedAt) >= c.doublePressWindow {
		c.pendingSingle = false
		return SINGLE_PRESS
	}
	return NO_PRESS
}

// pressCommand maps a press to its command: power, auto power sync, factory reset
func pressCommand(kind PressKind) command.Command {
	switch kind {
	case SINGLE_PRESS:
		return command.TogglePower{}
	case DOUBLE_PRESS:
		return command.ToggleAutoPower{}
	case LONG_PRESS:
		return command.FactoryReset{Origin: command.NewOrigin(command.BUTTON_SOURCE)}
	}
	return nil
}

type Buttons struct {
	lock       sync.RWMutex
	submitter  command.Submitter
	simulation bool
	param      config.ButtonsParam

	pin        gpio.PinIO
	classifier *pressClassifier

	checkTicker *time.Ticker

	askDone chan bool
	done    chan bool
}

func NewButtons(simulation bool, param config.ButtonsParam, submitter command.Submitter) *Buttons {
	device := Buttons{
		submitter:  submitter,
		simulation: simulation,
		param:      param,
		classifier: newPressClassifier(param.GetDoublePressWindow(), param.GetLongPressDuration()),
		askDone:    make(chan bool),
		done:       make(chan bool),
	}

	return &device
}

func (d *Buttons) Start() {
	logrus.Infof("Start buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.simulation {
		return
	}

	if _, err := host.Init(); err != nil {
		logrus.Fatalf("Unable to initialize host: %v", err)
	}
	d.pin = gpioreg.ByName(d.param.Pin)
	if d.pin == nil {
		logrus.Fatalf("Failed to find %s button", d.param.Pin)
	}
	// Set it as input, with an internal pull up resistor
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		logrus.Fatalf("Failed to setup %s button: %v", d.param.Pin, err)
	}

	// Start periodic check
	d.checkTicker = time.NewTicker(buttonSamplePeriod)
	go func() {
		for loop := true; loop; {
			select {
			case now := <-d.checkTicker.C:
				kind := d.classifier.sample(!bool(d.pin.Read()), now)
				if cmd := pressCommand(kind); cmd != nil {
					logrus.Debugf("Button press %d: %s", kind, cmd.Kind())
					d.submitter.Submit(cmd)
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Buttons) StopSendingEvent() {
	logrus.Infof("Stop buttons device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.checkTicker == nil {
		return
	}
	d.checkTicker.Stop()
	d.askDone <- true
	<-d.done
}
