package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/sirupsen/logrus"
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

	simulationWindow *app.Window

	refresh chan struct{}
	askDone chan bool
	done    chan bool
}

func (d *Display) startSimulation() {
	d.simulationWindow = app.NewWindow(
		app.Title("vekiscore"),
		app.Size(unit.Px(float32(4*d.width)), unit.Px(float32(4*d.height))),
		app.MinSize(unit.Px(float32(d.width)), unit.Px(float32(d.height))),
	)
	go func() {
		if err := d.gioloop(); err != nil {
			logrus.Fatalf("Simulation window: %v", err)
		}
	}()
	go app.Main()
}

func (d *Display) invalidateSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Invalidate()
	}
}

func (d *Display) closeSimulationWindow() {
	if d.simulationWindow != nil {
		d.simulationWindow.Close()
	}
}

func (d *Display) gioloop() error {
	var ops op.Ops
	for {
		e := <-d.simulationWindow.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			img := widget.Image{Src: paint.NewImageOp(d.snapshot()), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
