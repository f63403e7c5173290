package device

import (
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/sirupsen/logrus"
	"image"
	"image/draw"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// panel is the part of the ssd1306 driver used by the display
type panel interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
	SetContrast(level byte) error
}

func NewDisplay(simulationMode bool, width, height int, i2cBusName string) *Display {
	device := Display{
		simulationMode: simulationMode,
		width:          width,
		height:         height,
		i2cBusName:     i2cBusName,
		buffer:         canvas.NewBuffer(width, height),
		lastImg:        image.NewRGBA(image.Rect(0, 0, width, height)),
		brightness:     128,
		refresh:        make(chan struct{}, 1),
		askDone:        make(chan bool),
		done:           make(chan bool),
	}

	return &device
}

func (d *Display) Start() {
	logrus.Infof("Start display device")

	d.on = true

	if d.simulationMode {
		d.startSimulation()
		return
	}

	if _, err := host.Init(); err != nil {
		logrus.Fatalf("Unable to initialize host: %v\n", err)
	}

	var err error
	// Open a handle to the I²C bus, the first available one by default
	d.i2cBus, err = i2creg.Open(d.i2cBusName)
	if err != nil {
		logrus.Fatalf("Unable to open i2c bus: %v\n", err)
	}

	// Open a handle to a ssd1306 connected on the I²C bus
	opts := ssd1306.DefaultOpts
	opts.W = d.width
	opts.H = d.height
	oledDisplay, err := ssd1306.NewI2C(d.i2cBus, &opts)
	if err != nil {
		logrus.Fatalf("Unable to initialize oled display: %v\n", err)
	}

	d.startPanel(oledDisplay)
}

// startPanel starts the goroutine sending published frames to the panel
func (d *Display) startPanel(oledDisplay panel) {
	d.oledDisplay = oledDisplay
	d.oledDisplay.SetContrast(d.brightness)

	go func() {
		frame := image.NewRGBA(d.lastImg.Bounds())
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
			case <-d.refresh:
				d.drawFrame(frame)
			}
		}
		// Last published frame, usually the goodbye screen
		select {
		case <-d.refresh:
			d.drawFrame(frame)
		default:
		}
		if d.i2cBus != nil {
			d.oledLock.Lock()
			d.i2cBus.Close()
			d.oledLock.Unlock()
		}
		d.done <- true
	}()
}

func (d *Display) drawFrame(frame *image.RGBA) {
	d.lock.RLock()
	on := d.on
	copy(frame.Pix, d.lastImg.Pix)
	d.lock.RUnlock()

	if on {
		d.oledLock.Lock()
		if err := d.oledDisplay.Draw(frame.Bounds(), frame, image.Point{}); err != nil {
			logrus.Warnf("Unable to draw on oled display: %v", err)
		}
		d.oledLock.Unlock()
	}
}

func (d *Display) Stop() {
	logrus.Infof("Stop display device")

	if d.simulationMode {
		d.closeSimulationWindow()
	} else {
		d.askDone <- true
		<-d.done
	}
}

// AcquireBuffer returns the frame buffer, only the display runtime goroutine may use it
func (d *Display) AcquireBuffer() *canvas.Buffer {
	return d.buffer
}

// Publish copies the frame for the panel, the panel is refreshed in the background
func (d *Display) Publish(buf *canvas.Buffer) {
	d.lock.Lock()
	draw.Draw(d.lastImg, d.lastImg.Bounds(), buf.RGBA, image.Point{}, draw.Src)
	d.lock.Unlock()
	d.invalidate()
}

func (d *Display) invalidate() {
	if d.simulationMode {
		d.invalidateSimulationWindow()
		return
	}
	select {
	case d.refresh <- struct{}{}:
	default:
	}
}

func (d *Display) SetPower(on bool) {
	d.lock.Lock()
	d.on = on
	d.lock.Unlock()

	if on {
		if !d.simulationMode {
			d.oledLock.Lock()
			d.oledDisplay.SetContrast(d.Brightness()) // Hack to force display on (calling Draw() is not enough)
			d.oledLock.Unlock()
		}
		d.invalidate()
	} else {
		if d.simulationMode {
			d.invalidateSimulationWindow()
		} else {
			d.oledLock.Lock()
			d.oledDisplay.Halt()
			d.oledLock.Unlock()
		}
	}
}

func (d *Display) SetBrightness(level uint8) {
	d.lock.Lock()
	d.brightness = level
	on := d.on
	d.lock.Unlock()

	if !d.simulationMode && on {
		d.oledLock.Lock()
		d.oledDisplay.SetContrast(level)
		d.oledLock.Unlock()
	}
}

func (d *Display) IsOn() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.on
}

func (d *Display) Brightness() uint8 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.brightness
}

// snapshot copies the last published frame, black when the display is off
func (d *Display) snapshot() *image.RGBA {
	d.lock.RLock()
	defer d.lock.RUnlock()
	img := image.NewRGBA(d.lastImg.Bounds())
	if d.on {
		copy(img.Pix, d.lastImg.Pix)
	}
	return img
}
