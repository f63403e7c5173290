package screen

import (
	"github.com/jypelle/vekiscore/internal/images"
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/sirupsen/logrus"
	"strings"
	"time"
)

const (
	setupRedrawDelay      = 500 * time.Millisecond
	failureDisplayTimeout = 5 * time.Second
)

type connectionState int

const (
	WAITING_FOR_CONNECTION connectionState = iota
	ATTEMPTING_CONNECTION
	CONNECTION_FAILED
	CONNECTED
)

// Setup guides the user through the Wi-Fi provisioning done from the web configuration page.
type Setup struct {
	cadence
	NoPriority

	hotspotName string
	address     string

	state       connectionState
	failedSince time.Time
	setupError  string
	ssid        string
	tick        int
}

func NewSetup(submitter command.Submitter, hotspotName, address string) *Setup {
	return &Setup{
		cadence:     newCadence(model.SETUP_SCREEN, submitter),
		hotspotName: hotspotName,
		address:     address,
		state:       WAITING_FOR_CONNECTION,
	}
}

func (s *Setup) ScreenId() model.ScreenId {
	return model.SETUP_SCREEN
}

func (s *Setup) Activate() {
	logrus.Debugf("Activate setup")
	s.start()
}

func (s *Setup) Deactivate() {
	logrus.Debugf("Deactivate setup")
}

func (s *Setup) UpdateSettings(settings *model.ScoreboardSettings) {
	s.ssid = settings.WifiSsid
	s.setupError = settings.SetupError

	switch settings.SetupState {
	case model.SETUP_CONNECTING:
		s.state = ATTEMPTING_CONNECTION
	case model.SETUP_CONNECTION_FAILED:
		if s.state != CONNECTION_FAILED && s.state != WAITING_FOR_CONNECTION {
			s.failedSince = s.now()
			s.state = CONNECTION_FAILED
		}
	case model.SETUP_READY:
		s.state = CONNECTED
	default:
		s.state = WAITING_FOR_CONNECTION
	}
}

func (s *Setup) State() connectionState {
	return s.state
}

func (s *Setup) Draw(buf *canvas.Buffer) {
	s.tick++
	if s.state == CONNECTION_FAILED && s.now().Sub(s.failedSince) >= failureDisplayTimeout {
		s.state = WAITING_FOR_CONNECTION
	}

	buf.Clear()
	switch s.state {
	case WAITING_FOR_CONNECTION:
		buf.Sprite(0, 1, images.HotspotImage)
		buf.Text(images.HotspotImage.Bounds().Dx()+2, 0, "Setup", canvas.Yellow)
		buf.Text(0, canvas.LineHeight+2, "Join "+s.hotspotName, canvas.White)
		buf.Text(0, 2*canvas.LineHeight+2, "then open https://", canvas.White)
		buf.Text(0, 3*canvas.LineHeight+2, s.address, canvas.Green)
	case ATTEMPTING_CONNECTION:
		buf.Sprite(0, 1, images.WifiImage)
		buf.Text(images.WifiImage.Bounds().Dx()+2, 0, "Connecting", canvas.Yellow)
		buf.Text(0, canvas.LineHeight+2, s.ssid, canvas.White)
		buf.Text(0, 2*canvas.LineHeight+2, strings.Repeat(".", s.tick%4), canvas.White)
	case CONNECTION_FAILED:
		buf.Sprite(0, 1, images.ErrorImage)
		buf.Text(images.ErrorImage.Bounds().Dx()+2, 0, "Failed", canvas.Red)
		buf.Text(0, canvas.LineHeight+2, s.ssid, canvas.White)
		buf.Text(0, 2*canvas.LineHeight+2, s.setupError, canvas.Grey)
	case CONNECTED:
		buf.Sprite(0, 1, images.WifiImage)
		buf.Text(images.WifiImage.Bounds().Dx()+2, 0, "Connected", canvas.Green)
		buf.Text(0, canvas.LineHeight+2, s.ssid, canvas.White)
	}

	s.schedule(setupRedrawDelay)
}
