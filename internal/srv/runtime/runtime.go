package runtime

import (
	"context"
	"errors"
	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/metrics"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/srv/screen"
	"github.com/sirupsen/logrus"
	"sync/atomic"
	"time"
)

var (
	ErrUnregisteredScreen = errors.New("unregistered screen")
	ErrNoAdminExecutor    = errors.New("no administrative executor")
)

const messageDuration = 3 * time.Second

// FrameDevice is the physical (or simulated) panel, owned by the runtime goroutine
type FrameDevice interface {
	AcquireBuffer() *canvas.Buffer
	Publish(buf *canvas.Buffer)
	SetPower(on bool)
	SetBrightness(level uint8)
}

// CommandSource is the consumer side of the command bus
type CommandSource interface {
	Commands() <-chan command.Command
	Done() <-chan struct{}
}

// SettingsSink persists every snapshot applied by the runtime. Save must not block.
type SettingsSink interface {
	Save(settings *model.ScoreboardSettings)
}

// AdminExecutor runs administrative commands in the background and reports
// exactly one command.AdminResult per command. Execute must not block.
type AdminExecutor interface {
	Execute(cmd command.Command)
}

// ResultSink receives the administrative results requested by one producer. Deliver must not block.
type ResultSink interface {
	Deliver(result command.AdminResult)
}

type Runtime struct {
	device    FrameDevice
	source    CommandSource
	submitter command.Submitter

	providers map[model.ScreenId]screen.Provider
	// registration order, the auto power arbitration order
	order []screen.Provider

	active    model.ScreenId
	manual    model.ScreenId
	power     bool
	autoPower model.AutoPowerMode
	settings  atomic.Pointer[model.ScoreboardSettings]

	settingsSink SettingsSink
	executor     AdminExecutor
	resultSinks  map[command.Source]ResultSink
	recorder     *metrics.Recorder
}

func New(device FrameDevice, source CommandSource, submitter command.Submitter, initial *model.ScoreboardSettings) *Runtime {
	r := &Runtime{
		device:      device,
		source:      source,
		submitter:   submitter,
		providers:   make(map[model.ScreenId]screen.Provider),
		resultSinks: make(map[command.Source]ResultSink),
	}
	if initial == nil {
		initial = model.DefaultSettings()
	}
	r.settings.Store(initial.Clone())
	return r
}

// Register adds a provider, must be called before Run
func (r *Runtime) Register(provider screen.Provider) {
	id := provider.ScreenId()
	if _, ok := r.providers[id]; ok {
		logrus.Panicf("Screen %s registered twice", id)
	}
	r.providers[id] = provider
	r.order = append(r.order, provider)
}

func (r *Runtime) SetSettingsSink(sink SettingsSink) {
	r.settingsSink = sink
}

func (r *Runtime) SetAdminExecutor(executor AdminExecutor) {
	r.executor = executor
}

func (r *Runtime) SetResultSink(source command.Source, sink ResultSink) {
	r.resultSinks[source] = sink
}

func (r *Runtime) SetRecorder(recorder *metrics.Recorder) {
	r.recorder = recorder
}

// Settings returns the current snapshot, safe from any goroutine. The snapshot must not be modified.
func (r *Runtime) Settings() *model.ScoreboardSettings {
	return r.settings.Load()
}

// Run consumes the command bus until ctx is done or the bus is closed.
// A returned error is fatal: a contract violation or a lost command channel.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.start(); err != nil {
		return err
	}

	for loop := true; loop; {
		select {
		case cmd := <-r.source.Commands():
			if err := r.dispatch(cmd); err != nil {
				return err
			}
		case <-r.source.Done():
			loop = false
		case <-ctx.Done():
			loop = false
		}
	}

	if provider, ok := r.providers[r.active]; ok {
		provider.Deactivate()
	}
	return nil
}

// start hands the initial snapshot to every provider and activates the first screen
func (r *Runtime) start() error {
	settings := r.Settings()
	for _, provider := range r.order {
		provider.UpdateSettings(settings)
	}
	r.power = settings.Power
	r.autoPower = settings.AutoPower
	r.device.SetBrightness(settings.Brightness)
	r.device.SetPower(r.power)
	r.manual = startScreen(settings)

	if err := r.rotate(); err != nil {
		return err
	}
	r.submitter.SubmitAfter(command.Rotate{}, settings.Rotation())
	return nil
}

// startScreen is the manual screen at start up: setup until a network is joined
func startScreen(settings *model.ScoreboardSettings) model.ScreenId {
	if settings.SetupState != model.SETUP_READY {
		return model.SETUP_SCREEN
	}
	if settings.ActiveScreen == "" || settings.ActiveScreen.IsMeta() || settings.ActiveScreen.IsTransient() {
		return model.CLOCK_SCREEN
	}
	return settings.ActiveScreen
}
