package device

import (
	"context"
	"errors"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/config"
	"github.com/sirupsen/logrus"
	"os/exec"
	"strings"
	"time"
)

var (
	ErrShellBusy          = errors.New("administrative queue full")
	ErrShellNotConfigured = errors.New("no system command configured")
)

const (
	shellQueueSize      = 16
	defaultShellTimeout = 45 * time.Second
	defaultJoinBackoff  = 2 * time.Second
)

// CommandRunner runs one system command line
type CommandRunner func(ctx context.Context, args []string) error

// Shell runs the administrative commands one at a time and reports exactly one AdminResult per command
type Shell struct {
	param     config.ShellParam
	submitter command.Submitter
	run       CommandRunner

	joinBackoff time.Duration
	queue       chan command.Command

	ctx     context.Context
	cancel  context.CancelFunc
	askDone chan bool
	done    chan bool
}

func NewShell(param config.ShellParam, submitter command.Submitter) *Shell {
	ctx, cancel := context.WithCancel(context.Background())
	return &Shell{
		param:       param,
		submitter:   submitter,
		run:         runSystemCommand,
		joinBackoff: defaultJoinBackoff,
		queue:       make(chan command.Command, shellQueueSize),
		ctx:         ctx,
		cancel:      cancel,
		askDone:     make(chan bool),
		done:        make(chan bool),
	}
}

func (d *Shell) Start() {
	logrus.Infof("Start shell device")

	go func() {
		for loop := true; loop; {
			select {
			case cmd := <-d.queue:
				d.submitter.Submit(d.execute(cmd))
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

// Stop interrupts the running system command, queued commands are dropped
func (d *Shell) Stop() {
	logrus.Infof("Stop shell device")
	d.cancel()
	d.askDone <- true
	<-d.done
}

// Execute queues an administrative command without blocking
func (d *Shell) Execute(cmd command.Command) {
	select {
	case d.queue <- cmd:
	default:
		origin, action := describeAdmin(cmd)
		d.submitter.Submit(command.AdminResult{Origin: origin, Action: action, Err: ErrShellBusy})
	}
}

func (d *Shell) execute(cmd command.Command) command.AdminResult {
	origin, action := describeAdmin(cmd)
	result := command.AdminResult{Origin: origin, Action: action}

	switch c := cmd.(type) {
	case command.Reboot:
		result.Err = d.runLine(d.param.Reboot)
	case command.FactoryReset:
		result.Err = d.runLine(d.param.FactoryReset)
	case command.SetHotspot:
		if c.Enabled {
			result.Err = d.runLine(d.param.HotspotOn)
		} else {
			result.Err = d.runLine(d.param.HotspotOff)
		}
	case command.JoinWifi:
		result.Ssid = c.Ssid
		result.Err = d.joinWifi(c.Ssid, c.Password)
	default:
		result.Err = fmt.Errorf("unsupported administrative command %s", cmd.Kind())
	}
	return result
}

// joinWifi leaves hotspot mode and joins the network, back to hotspot mode on failure
func (d *Shell) joinWifi(ssid, password string) error {
	if len(d.param.HotspotOff) > 0 {
		if err := d.runLine(d.param.HotspotOff); err != nil {
			logrus.Warnf("Unable to disable hotspot: %v", err)
		}
	}

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = d.joinBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(exponential, d.param.MaxRetries), d.ctx)

	err := backoff.RetryNotify(
		func() error {
			err := d.runLine(d.param.JoinWifiArgs(ssid, password))
			if errors.Is(err, ErrShellNotConfigured) {
				return backoff.Permanent(err)
			}
			return err
		},
		policy,
		func(err error, wait time.Duration) {
			logrus.Warnf("Retry joining %s in %v: %v", ssid, wait, err)
		})
	if err == nil {
		return nil
	}

	if len(d.param.HotspotOn) > 0 {
		if hotspotErr := d.runLine(d.param.HotspotOn); hotspotErr != nil {
			logrus.Errorf("Unable to enable hotspot again: %v", hotspotErr)
		}
	}
	return fmt.Errorf("unable to join %s: %w", ssid, err)
}

func (d *Shell) runLine(args []string) error {
	if len(args) == 0 {
		return ErrShellNotConfigured
	}
	timeout := d.param.GetTimeout()
	if timeout <= 0 {
		timeout = defaultShellTimeout
	}
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()

	logrus.Debugf("Run %s", args[0])
	return d.run(ctx, args)
}

func runSystemCommand(ctx context.Context, args []string) error {
	output, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

func describeAdmin(cmd command.Command) (command.Origin, command.AdminAction) {
	switch c := cmd.(type) {
	case command.Reboot:
		return c.Origin, command.REBOOT_ACTION
	case command.FactoryReset:
		return c.Origin, command.FACTORY_RESET_ACTION
	case command.JoinWifi:
		return c.Origin, command.JOIN_WIFI_ACTION
	case command.SetHotspot:
		return c.Origin, command.HOTSPOT_ACTION
	}
	return command.Origin{}, command.AdminAction(cmd.Kind())
}
