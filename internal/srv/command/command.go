package command

import (
	"github.com/jypelle/vekiscore/internal/srv/model"
	"time"
)

// Command is a closed set of runtime requests: only types of this package implement it.
type Command interface {
	Kind() string
	isCommand()
}

type ActivateScreen struct {
	Screen model.ScreenId
}

// Draw asks the runtime to render Screen now, if it is still the active one
type Draw struct {
	Screen model.ScreenId
}

type SetPower struct {
	On bool
}

type TogglePower struct{}

type SetAutoPower struct {
	Mode model.AutoPowerMode
}

// ToggleAutoPower switches between auto power off and the preferred auto power mode
type ToggleAutoPower struct{}

type Rotate struct{}

type UpdateSettings struct {
	Origin   Origin
	Settings *model.ScoreboardSettings
}

// Dismiss ends a transient screen, the runtime then shows whatever arbitration picks
type Dismiss struct {
	Screen model.ScreenId
}

type ShowMessage struct {
	Text     string
	Duration time.Duration
}

type SetCustomMessage struct {
	Origin Origin
	Text   string
}

// Administrative commands

type AdminAction string

const (
	REBOOT_ACTION        AdminAction = "reboot"
	FACTORY_RESET_ACTION AdminAction = "factory_reset"
	JOIN_WIFI_ACTION     AdminAction = "join_wifi"
	HOTSPOT_ACTION       AdminAction = "hotspot"
)

type Reboot struct {
	Origin Origin
}

type FactoryReset struct {
	Origin Origin
}

type JoinWifi struct {
	Origin   Origin
	Ssid     string
	Password string
}

type SetHotspot struct {
	Origin  Origin
	Enabled bool
}

// AdminResult is the completion of an administrative command, Err is nil on success
type AdminResult struct {
	Origin Origin
	Action AdminAction
	Ssid   string
	Err    error
}

func (ActivateScreen) Kind() string   { return "activate_screen" }
func (Draw) Kind() string             { return "draw" }
func (SetPower) Kind() string         { return "set_power" }
func (TogglePower) Kind() string      { return "toggle_power" }
func (SetAutoPower) Kind() string     { return "set_auto_power" }
func (ToggleAutoPower) Kind() string  { return "toggle_auto_power" }
func (Rotate) Kind() string           { return "rotate" }
func (UpdateSettings) Kind() string   { return "update_settings" }
func (ShowMessage) Kind() string      { return "show_message" }
func (Dismiss) Kind() string          { return "dismiss" }
func (SetCustomMessage) Kind() string { return "set_custom_message" }
func (Reboot) Kind() string           { return "reboot" }
func (FactoryReset) Kind() string     { return "factory_reset" }
func (JoinWifi) Kind() string         { return "join_wifi" }
func (SetHotspot) Kind() string       { return "set_hotspot" }
func (AdminResult) Kind() string      { return "admin_result" }

func (ActivateScreen) isCommand()   {}
func (Draw) isCommand()             {}
func (SetPower) isCommand()         {}
func (TogglePower) isCommand()      {}
func (SetAutoPower) isCommand()     {}
func (ToggleAutoPower) isCommand()  {}
func (Rotate) isCommand()           {}
func (UpdateSettings) isCommand()   {}
func (ShowMessage) isCommand()      {}
func (Dismiss) isCommand()          {}
func (SetCustomMessage) isCommand() {}
func (Reboot) isCommand()           {}
func (FactoryReset) isCommand()     {}
func (JoinWifi) isCommand()         {}
func (SetHotspot) isCommand()       {}
func (AdminResult) isCommand()      {}

// DelayedCommand is a command waiting for an optional delay before reaching the bus
type DelayedCommand struct {
	Command  Command
	Delay    time.Duration
	HasDelay bool
}

func Now(cmd Command) DelayedCommand {
	return DelayedCommand{Command: cmd}
}

func After(cmd Command, delay time.Duration) DelayedCommand {
	return DelayedCommand{Command: cmd, Delay: delay, HasDelay: true}
}

// Submitter accepts commands from any goroutine without blocking.
type Submitter interface {
	Submit(cmd Command)
	SubmitAfter(cmd Command, delay time.Duration)
}
