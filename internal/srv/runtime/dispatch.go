package runtime

import (
	"fmt"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/jypelle/vekiscore/internal/srv/screen"
	"github.com/sirupsen/logrus"
	"time"
)

func (r *Runtime) dispatch(cmd command.Command) error {
	r.recorder.RecordCommand(cmd.Kind())

	switch c := cmd.(type) {
	case command.ActivateScreen:
		return r.requestScreen(c.Screen)
	case command.Draw:
		r.draw(c.Screen)
	case command.SetPower:
		return r.setPower(c.On)
	case command.TogglePower:
		return r.setPower(!r.power)
	case command.SetAutoPower:
		return r.setAutoPower(c.Mode)
	case command.ToggleAutoPower:
		mode := model.OFF_AUTO_POWER
		if r.autoPower == model.OFF_AUTO_POWER {
			mode = r.Settings().PreferredAutoPower
			if mode == "" || mode == model.OFF_AUTO_POWER {
				mode = model.CLOCK_AUTO_POWER
			}
		}
		return r.setAutoPower(mode)
	case command.Rotate:
		r.submitter.SubmitAfter(command.Rotate{}, r.Settings().Rotation())
		return r.rotate()
	case command.UpdateSettings:
		if c.Settings == nil {
			logrus.Warnf("Ignore empty settings update from %s", c.Origin)
			return nil
		}
		logrus.Debugf("Update settings from %s", c.Origin)
		return r.apply(c.Settings)
	case command.Dismiss:
		return r.dismiss(c.Screen)
	case command.ShowMessage:
		return r.showMessage(c.Text, c.Duration)
	case command.SetCustomMessage:
		settings := r.Settings().Clone()
		settings.CustomMessage = c.Text
		return r.apply(settings)
	case command.Reboot:
		r.forwardAdmin(c, c.Origin, command.REBOOT_ACTION)
	case command.FactoryReset:
		r.forwardAdmin(c, c.Origin, command.FACTORY_RESET_ACTION)
	case command.JoinWifi:
		settings := r.Settings().Clone()
		settings.SetupState = model.SETUP_CONNECTING
		settings.SetupError = ""
		settings.WifiSsid = c.Ssid
		if err := r.apply(settings); err != nil {
			return err
		}
		r.forwardAdmin(c, c.Origin, command.JOIN_WIFI_ACTION)
	case command.SetHotspot:
		r.forwardAdmin(c, c.Origin, command.HOTSPOT_ACTION)
	case command.AdminResult:
		return r.adminResult(c)
	default:
		logrus.Warnf("Unknown command %s", cmd.Kind())
	}
	return nil
}

// requestScreen handles an explicit activation coming from a producer
func (r *Runtime) requestScreen(id model.ScreenId) error {
	switch id {
	case model.REFRESH_SCREEN:
		if provider, ok := r.providers[r.active]; ok {
			provider.Activate()
		}
		return nil
	case model.REBOOT_SCREEN:
		origin := command.NewOrigin(command.RUNTIME_SOURCE)
		r.forwardAdmin(command.Reboot{Origin: origin}, origin, command.REBOOT_ACTION)
		return nil
	case model.ERROR_SCREEN:
		return r.showMessage("Error", messageDuration)
	}

	if id.IsTransient() {
		// Transient screens only come up through their own command, e.g. ShowMessage
		logrus.Warnf("Ignore activation of transient screen %s", id)
		return nil
	}
	r.manual = id
	return r.activate(id)
}

// activate switches the active screen, a no-op when id is already active
func (r *Runtime) activate(id model.ScreenId) error {
	if id == r.active {
		return nil
	}
	provider, ok := r.providers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredScreen, id)
	}

	logrus.Debugf("Switch screen from %s to %s", r.active, id)
	if current, ok := r.providers[r.active]; ok {
		current.Deactivate()
	}
	r.active = id
	provider.Activate()
	r.recorder.RecordActivation(id)
	return nil
}

// draw honors a redraw only for the active screen
func (r *Runtime) draw(id model.ScreenId) {
	if id != r.active {
		logrus.Tracef("Discard stale draw of %s", id)
		r.recorder.RecordStaleDraw(id)
		return
	}
	buf := r.device.AcquireBuffer()
	r.providers[id].Draw(buf)
	if r.power {
		r.device.Publish(buf)
		r.recorder.RecordPublish()
	}
}

// rotate activates the arbitrated screen, unless a transient screen is shown
func (r *Runtime) rotate() error {
	if r.active.IsTransient() {
		return nil
	}
	return r.activate(r.arbitrate())
}

// arbitrate returns the first provider claiming priority for the auto power mode, the manual screen otherwise
func (r *Runtime) arbitrate() model.ScreenId {
	if r.autoPower != model.OFF_AUTO_POWER && r.Settings().SetupState == model.SETUP_READY {
		for _, provider := range r.order {
			if provider.HasPriority(r.autoPower) {
				return provider.ScreenId()
			}
		}
	}
	return r.manual
}

// dismiss leaves a transient screen without touching the manual screen
func (r *Runtime) dismiss(id model.ScreenId) error {
	if id != r.active {
		logrus.Debugf("Ignore stale dismiss of %s", id)
		return nil
	}
	return r.activate(r.arbitrate())
}

func (r *Runtime) setPower(on bool) error {
	settings := r.Settings().Clone()
	settings.Power = on
	return r.apply(settings)
}

func (r *Runtime) setAutoPower(mode model.AutoPowerMode) error {
	settings := r.Settings().Clone()
	settings.AutoPower = mode
	if mode != model.OFF_AUTO_POWER {
		settings.PreferredAutoPower = mode
	}
	return r.apply(settings)
}

// apply publishes a new settings snapshot then brings the runtime state in line with it
func (r *Runtime) apply(next *model.ScoreboardSettings) error {
	previous := r.Settings()

	next = next.Clone()
	next.Version = previous.Version + 1
	r.settings.Store(next)
	if r.settingsSink != nil {
		r.settingsSink.Save(next)
	}
	for _, provider := range r.order {
		provider.UpdateSettings(next)
	}

	if next.Brightness != previous.Brightness {
		r.device.SetBrightness(next.Brightness)
	}
	if next.Power != r.power {
		logrus.Infof("Switch power %t", next.Power)
		r.power = next.Power
		r.device.SetPower(next.Power)
	}
	r.autoPower = next.AutoPower

	if next.SetupState != previous.SetupState || next.ActiveScreen != previous.ActiveScreen {
		r.manual = startScreen(next)
	}
	return r.rotate()
}

func (r *Runtime) showMessage(text string, duration time.Duration) error {
	provider, ok := r.providers[model.MESSAGE_SCREEN]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredScreen, model.MESSAGE_SCREEN)
	}
	receiver, ok := provider.(screen.MessageReceiver)
	if !ok {
		return fmt.Errorf("%w: %s does not show messages", ErrUnregisteredScreen, model.MESSAGE_SCREEN)
	}
	if duration <= 0 {
		duration = messageDuration
	}

	receiver.SetMessage(text, duration)
	if r.active == model.MESSAGE_SCREEN {
		provider.Activate()
		return nil
	}
	return r.activate(model.MESSAGE_SCREEN)
}

func (r *Runtime) forwardAdmin(cmd command.Command, origin command.Origin, action command.AdminAction) {
	logrus.Infof("Forward %s from %s", action, origin)
	if r.executor == nil {
		r.submitter.Submit(command.AdminResult{Origin: origin, Action: action, Err: ErrNoAdminExecutor})
		return
	}
	r.executor.Execute(cmd)
}

func (r *Runtime) adminResult(result command.AdminResult) error {
	if result.Err != nil {
		logrus.Warnf("%s from %s failed: %v", result.Action, result.Origin, result.Err)
		r.recorder.RecordAdminFailure(string(result.Action))
	} else {
		logrus.Infof("%s from %s done", result.Action, result.Origin)
	}

	var err error
	switch result.Action {
	case command.JOIN_WIFI_ACTION:
		settings := r.Settings().Clone()
		if result.Err == nil {
			settings.SetupState = model.SETUP_READY
			settings.SetupError = ""
			settings.WifiSsid = result.Ssid
			if settings.ActiveScreen == model.SETUP_SCREEN {
				settings.ActiveScreen = model.CLOCK_SCREEN
			}
		} else {
			settings.SetupState = model.SETUP_CONNECTION_FAILED
			settings.SetupError = result.Err.Error()
		}
		err = r.apply(settings)
	case command.FACTORY_RESET_ACTION:
		if result.Err == nil {
			err = r.apply(model.DefaultSettings())
		} else {
			err = r.showMessage("Reset failed", messageDuration)
		}
	case command.REBOOT_ACTION:
		if result.Err != nil {
			err = r.showMessage("Reboot failed", messageDuration)
		}
	case command.HOTSPOT_ACTION:
		if result.Err != nil {
			err = r.showMessage("Hotspot failed", messageDuration)
		}
	}

	if sink, ok := r.resultSinks[result.Origin.Source]; ok {
		sink.Deliver(result)
	}
	return err
}
