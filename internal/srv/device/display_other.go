//go:build !amd64

package device

import (
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"image"
	"periph.io/x/conn/v3/i2c"
	"sync"
)

type Display struct {
	oledLock    sync.Mutex
	oledDisplay panel
	i2cBus      i2c.BusCloser
	i2cBusName  string

	width  int
	height int
	buffer *canvas.Buffer

	lock           sync.RWMutex
	on             bool
	brightness     uint8
	simulationMode bool
	lastImg        *image.RGBA

	refresh chan struct{}
	askDone chan bool
	done    chan bool
}

func (d *Display) startSimulation() {
}

func (d *Display) invalidateSimulationWindow() {
}

func (d *Display) closeSimulationWindow() {
}
