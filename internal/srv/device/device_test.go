package device

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/jypelle/vekiscore/internal/srv/canvas"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	lock      sync.Mutex
	submitted []command.Command
	signal    chan command.Command
}

func newRecordingSubmitter() *recordingSubmitter {
	return &recordingSubmitter{signal: make(chan command.Command, 64)}
}

func (s *recordingSubmitter) Submit(cmd command.Command) {
	s.lock.Lock()
	s.submitted = append(s.submitted, cmd)
	s.lock.Unlock()
	s.signal <- cmd
}

func (s *recordingSubmitter) SubmitAfter(cmd command.Command, delay time.Duration) {
	s.Submit(cmd)
}

func (s *recordingSubmitter) next(t *testing.T) command.Command {
	t.Helper()
	select {
	case cmd := <-s.signal:
		return cmd
	case <-time.After(5 * time.Second):
		t.Fatal("no command submitted")
		return nil
	}
}

func (s *recordingSubmitter) commands() []command.Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]command.Command(nil), s.submitted...)
}

func TestPressClassifier(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(ms int) time.Time {
		return start.Add(time.Duration(ms) * time.Millisecond)
	}

	type sample struct {
		ms      int
		pressed bool
	}
	tests := []struct {
		name    string
		samples []sample
		want    []PressKind
	}{
		{
			name:    "single",
			samples: []sample{{0, true}, {100, false}, {300, false}, {520, false}},
			want:    []PressKind{SINGLE_PRESS},
		},
		{
			name:    "double",
			samples: []sample{{0, true}, {100, false}, {200, true}, {300, false}, {1000, false}},
			want:    []PressKind{DOUBLE_PRESS},
		},
		{
			name:    "long",
			samples: []sample{{0, true}, {2000, true}, {5000, true}, {6000, true}, {6100, false}, {7000, false}},
			want:    []PressKind{LONG_PRESS},
		},
		{
			name:    "bounce",
			samples: []sample{{0, true}, {5, false}, {10, true}, {100, false}, {600, false}},
			want:    []PressKind{SINGLE_PRESS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := newPressClassifier(400*time.Millisecond, 5*time.Second)
			var got []PressKind
			for _, s := range tt.samples {
				if kind := classifier.sample(s.pressed, at(s.ms)); kind != NO_PRESS {
					got = append(got, kind)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPressCommand(t *testing.T) {
	assert.Equal(t, command.TogglePower{}, pressCommand(SINGLE_PRESS))
	assert.Equal(t, command.ToggleAutoPower{}, pressCommand(DOUBLE_PRESS))
	reset, ok := pressCommand(LONG_PRESS).(command.FactoryReset)
	require.True(t, ok)
	assert.Equal(t, command.BUTTON_SOURCE, reset.Origin.Source)
	assert.Nil(t, pressCommand(NO_PRESS))
}

type fakePanel struct {
	lock     sync.Mutex
	frames   int
	halted   int
	contrast byte
	lastPix  []uint8
}

func (p *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.frames++
	p.lastPix = append([]uint8(nil), src.(*image.RGBA).Pix...)
	return nil
}

func (p *fakePanel) Halt() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.halted++
	return nil
}

func (p *fakePanel) SetContrast(level byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.contrast = level
	return nil
}

func (p *fakePanel) frameCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.frames
}

func TestDisplayPublish(t *testing.T) {
	oled := &fakePanel{}
	display := NewDisplay(false, 16, 8, "")
	display.on = true
	display.startPanel(oled)
	defer display.Stop()

	buf := display.AcquireBuffer()
	buf.SetPixel(3, 2, canvas.White)
	display.Publish(buf)

	require.Eventually(t, func() bool {
		return oled.frameCount() == 1
	}, 5*time.Second, 5*time.Millisecond)
	oled.lock.Lock()
	assert.Equal(t, uint8(255), oled.lastPix[(2*16+3)*4])
	oled.lock.Unlock()

	display.SetBrightness(42)
	display.SetPower(false)
	assert.False(t, display.IsOn())
	oled.lock.Lock()
	assert.Equal(t, 1, oled.halted)
	assert.Equal(t, byte(42), oled.contrast)
	oled.lock.Unlock()

	display.SetPower(true)
	require.Eventually(t, func() bool {
		return oled.frameCount() == 2
	}, 5*time.Second, 5*time.Millisecond)
}

type fakeRunner struct {
	lock  sync.Mutex
	lines [][]string
	fail  map[string]int
}

func (r *fakeRunner) run(ctx context.Context, args []string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lines = append(r.lines, args)
	if r.fail[args[0]] != 0 {
		if r.fail[args[0]] > 0 {
			r.fail[args[0]]--
		}
		return errors.New(args[0] + " failed")
	}
	return nil
}

func (r *fakeRunner) programs() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	var programs []string
	for _, line := range r.lines {
		programs = append(programs, line[0])
	}
	return programs
}

func newTestShell(runner *fakeRunner, submitter command.Submitter) *Shell {
	shell := NewShell(config.ShellParam{
		Reboot:     []string{"reboot"},
		JoinWifi:   []string{"join", "{ssid}", "{password}"},
		HotspotOn:  []string{"hotspot-on"},
		HotspotOff: []string{"hotspot-off"},
		MaxRetries: 2,
	}, submitter)
	shell.run = runner.run
	shell.joinBackoff = time.Millisecond
	return shell
}

func TestShellJoinWifi(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"join": 1}}
	submitter := newRecordingSubmitter()
	shell := newTestShell(runner, submitter)
	shell.Start()
	defer shell.Stop()

	origin := command.NewOrigin(command.WEB_SOURCE)
	shell.Execute(command.JoinWifi{Origin: origin, Ssid: "home", Password: "secret"})

	result, ok := submitter.next(t).(command.AdminResult)
	require.True(t, ok)
	assert.NoError(t, result.Err)
	assert.Equal(t, origin, result.Origin)
	assert.Equal(t, command.JOIN_WIFI_ACTION, result.Action)
	assert.Equal(t, "home", result.Ssid)
	assert.Equal(t, []string{"hotspot-off", "join", "join"}, runner.programs())
	assert.Equal(t, []string{"join", "home", "secret"}, runner.lines[1])
}

func TestShellJoinWifiFallsBackToHotspot(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"join": -1}}
	submitter := newRecordingSubmitter()
	shell := newTestShell(runner, submitter)
	shell.Start()
	defer shell.Stop()

	shell.Execute(command.JoinWifi{Origin: command.NewOrigin(command.WEB_SOURCE), Ssid: "home"})

	result, ok := submitter.next(t).(command.AdminResult)
	require.True(t, ok)
	assert.Error(t, result.Err)
	assert.Equal(t, []string{"hotspot-off", "join", "join", "join", "hotspot-on"}, runner.programs())
	assert.Len(t, submitter.commands(), 1)
}

func TestShellNotConfigured(t *testing.T) {
	submitter := newRecordingSubmitter()
	shell := newTestShell(&fakeRunner{}, submitter)
	shell.Start()
	defer shell.Stop()

	shell.Execute(command.FactoryReset{Origin: command.NewOrigin(command.BUTTON_SOURCE)})

	result, ok := submitter.next(t).(command.AdminResult)
	require.True(t, ok)
	assert.Equal(t, command.FACTORY_RESET_ACTION, result.Action)
	assert.True(t, errors.Is(result.Err, ErrShellNotConfigured))
}

func TestShellBusy(t *testing.T) {
	submitter := newRecordingSubmitter()
	// Not started: the queue fills up
	shell := newTestShell(&fakeRunner{}, submitter)
	for i := 0; i < shellQueueSize; i++ {
		shell.Execute(command.Reboot{Origin: command.NewOrigin(command.WEB_SOURCE)})
	}
	assert.Empty(t, submitter.commands())

	origin := command.NewOrigin(command.WEB_SOURCE)
	shell.Execute(command.SetHotspot{Origin: origin, Enabled: true})
	result, ok := submitter.next(t).(command.AdminResult)
	require.True(t, ok)
	assert.Equal(t, origin, result.Origin)
	assert.Equal(t, command.HOTSPOT_ACTION, result.Action)
	assert.True(t, errors.Is(result.Err, ErrShellBusy))
}
