package srv

import (
	"context"
	"fmt"
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/config"
	"github.com/jypelle/vekiscore/internal/srv/device"
	"github.com/jypelle/vekiscore/internal/srv/metrics"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/srv/runtime"
	"github.com/jypelle/vekiscore/internal/srv/scheduler"
	"github.com/jypelle/vekiscore/internal/srv/scorecache"
	"github.com/jypelle/vekiscore/internal/srv/screen"
	"github.com/jypelle/vekiscore/internal/srv/sports"
	"github.com/jypelle/vekiscore/internal/version"
	"github.com/sirupsen/logrus"
	"os"
	"os/exec"
	"time"
)

// Address of the device on its own hotspot (NetworkManager shared mode)
const hotspotAddress = "10.42.0.1"

type ServerApp struct {
	*config.ServerConfig

	bus       *command.Bus
	scheduler *scheduler.Scheduler
	recorder  *metrics.Recorder
	runtime   *runtime.Runtime
	cache     *scorecache.Store

	displayDevice *device.Display
	buttonsDevice *device.Buttons
	shellDevice   *device.Shell
	apiDevice     *device.Api

	ctx    context.Context
	cancel context.CancelFunc

	schedulerDone chan bool
	runtimeDone   chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of vekiscore server %s ...", version.AppVersion.String())

	ctx, cancel := context.WithCancel(context.Background())
	app := &ServerApp{
		ServerConfig:  config.NewServerConfig(configDir, debugMode, simulationMode),
		bus:           command.NewBus(),
		ctx:           ctx,
		cancel:        cancel,
		schedulerDone: make(chan bool),
		runtimeDone:   make(chan bool),
	}

	app.scheduler = scheduler.NewScheduler(app.bus)
	app.recorder = metrics.NewRecorder(func() float64 { return float64(app.scheduler.Pending()) })

	var err error
	app.cache, err = scorecache.Open(app.GetCompleteScoreCacheFilename())
	if err != nil {
		logrus.Fatalf("Unable to open score cache: %v\n", err)
	}

	displayParam := app.ServerParam.DisplayParam
	app.displayDevice = device.NewDisplay(app.SimulationMode, displayParam.Width, displayParam.Height, displayParam.I2cBus)

	app.runtime = runtime.New(app.displayDevice, app.bus, app.scheduler, app.Settings.Settings())
	app.runtime.SetRecorder(app.recorder)
	app.runtime.SetSettingsSink(app.Settings)

	// Registration order is the auto power arbitration order
	address := fmt.Sprintf("%s:%d", hotspotAddress, app.ServerParam.ApiParam.SslPort)
	app.runtime.Register(screen.NewSetup(app.scheduler, app.ServerParam.HotspotName, address))
	app.runtime.Register(screen.NewClock(app.scheduler))
	app.runtime.Register(screen.NewSport(ctx, model.SMART_SCREEN, app.scheduler, app.newPoller(model.SMART_SCREEN)))
	for _, id := range model.SportScreenIds {
		app.runtime.Register(screen.NewSport(ctx, id, app.scheduler, app.newPoller(id)))
	}
	app.runtime.Register(screen.NewGame(app.scheduler))
	app.runtime.Register(screen.NewCustomMessage(app.scheduler))
	app.runtime.Register(screen.NewMessage(app.scheduler))

	app.shellDevice = device.NewShell(app.ServerParam.ShellParam, app.scheduler)
	app.runtime.SetAdminExecutor(app.shellDevice)

	app.buttonsDevice = device.NewButtons(app.SimulationMode, app.ServerParam.ButtonsParam, app.scheduler)

	if app.ServerParam.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig, app.scheduler, app.runtime, app.recorder.Handler())
		app.runtime.SetResultSink(command.WEB_SOURCE, app.apiDevice)
	}

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) newPoller(id model.ScreenId) *sports.Poller {
	sportsParam := s.ServerParam.SportsParam
	client := sports.NewRetryingClient(
		sports.NewHttpClient(sportsParam.BaseUrl, sportsParam.GetTimeout()),
		int(sportsParam.MaxRetries),
		sportsParam.GetInitialBackoff(),
	)
	return sports.NewPoller(string(id), client, s.cache, s.recorder, sportsParam.GetActiveInterval(), sportsParam.GetHibernateInterval())
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting vekiscore server ...")

	logrus.Printf("Starting devices ...")

	// Start display device
	s.displayDevice.Start()

	// Display startup screen
	s.showBanner("vekiscore " + version.AppVersion.String())
	time.Sleep(2 * time.Second)

	// Start command scheduler
	go func() {
		err := s.scheduler.Run(s.ctx)
		// A closed bus is expected once stopping
		if err != nil && s.ctx.Err() == nil {
			logrus.Fatalf("Command scheduler failure: %v", err)
		}
		s.schedulerDone <- true
	}()

	// Start display runtime
	go func() {
		err := s.runtime.Run(s.ctx)
		if err != nil {
			logrus.Fatalf("Display runtime failure: %v", err)
		}
		s.runtimeDone <- true
	}()

	// Start settings file watcher
	go func() {
		err := s.Settings.Watch(s.ctx, s.scheduler)
		if err != nil {
			logrus.Errorf("Settings file watcher stopped: %v", err)
		}
	}()

	// Start shell device
	s.shellDevice.Start()

	// Start buttons device
	s.buttonsDevice.Start()

	// Start api device
	if s.apiDevice != nil {
		s.apiDevice.Start()
	}
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping vekiscore server ...")

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop buttons device
	s.buttonsDevice.StopSendingEvent()

	// Stop runtime, scheduler, pollers and settings watcher
	logrus.Infof("Stop display runtime")
	s.cancel()
	<-s.runtimeDone
	s.bus.Close()
	<-s.schedulerDone

	// Stop shell device
	s.shellDevice.Stop()

	// Display end screen
	s.displayDevice.SetPower(true)
	s.showBanner("See you!")

	// Stop display device
	s.displayDevice.Stop()

	// Flush settings backup
	s.Settings.FlushSave()

	if err := s.cache.Close(); err != nil {
		logrus.Warnf("Unable to close score cache: %v", err)
	}

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		haltCmd := exec.Command("sudo", "halt")
		err := haltCmd.Run()
		if err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
	os.Exit(0)
}

// showBanner draws a single line frame, only while the runtime does not own the display
func (s *ServerApp) showBanner(label string) {
	buf := s.displayDevice.AcquireBuffer()
	buf.Clear()
	buf.CenteredText(buf.Height()/2+4, label, canvas.White)
	s.displayDevice.Publish(buf)
}
