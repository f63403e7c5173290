package model

import "fmt"

type ScreenId string

const (
	CLOCK_SCREEN          ScreenId = "clock"
	SETUP_SCREEN          ScreenId = "setup"
	SMART_SCREEN          ScreenId = "smart"
	MLB_SCREEN            ScreenId = "mlb"
	NHL_SCREEN            ScreenId = "nhl"
	NBA_SCREEN            ScreenId = "nba"
	NFL_SCREEN            ScreenId = "nfl"
	MLS_SCREEN            ScreenId = "mls"
	GAME_SCREEN           ScreenId = "game"
	CUSTOM_MESSAGE_SCREEN ScreenId = "custom_message"
	MESSAGE_SCREEN        ScreenId = "message"

	// Meta identities: synthetic states, never backed by a provider
	REFRESH_SCREEN ScreenId = "refresh"
	ERROR_SCREEN   ScreenId = "error"
	REBOOT_SCREEN  ScreenId = "reboot"
)

var AllScreenIds = []ScreenId{
	CLOCK_SCREEN,
	SETUP_SCREEN,
	SMART_SCREEN,
	MLB_SCREEN,
	NHL_SCREEN,
	NBA_SCREEN,
	NFL_SCREEN,
	MLS_SCREEN,
	GAME_SCREEN,
	CUSTOM_MESSAGE_SCREEN,
	MESSAGE_SCREEN,
	REFRESH_SCREEN,
	ERROR_SCREEN,
	REBOOT_SCREEN,
}

var SportScreenIds = []ScreenId{
	MLB_SCREEN,
	NHL_SCREEN,
	NBA_SCREEN,
	NFL_SCREEN,
	MLS_SCREEN,
}

func ParseScreenId(s string) (ScreenId, error) {
	for _, id := range AllScreenIds {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown screen %q", s)
}

func (id ScreenId) IsSport() bool {
	for _, sportId := range SportScreenIds {
		if id == sportId {
			return true
		}
	}
	return id == SMART_SCREEN
}

func (id ScreenId) IsMeta() bool {
	return id == REFRESH_SCREEN || id == ERROR_SCREEN || id == REBOOT_SCREEN
}

func (id ScreenId) IsTransient() bool {
	return id == MESSAGE_SCREEN
}

// League returns the league name rendered by a single sport screen, empty for other screens.
func (id ScreenId) League() League {
	if id.IsSport() && id != SMART_SCREEN {
		return League(id)
	}
	return ""
}

func (id ScreenId) String() string {
	return string(id)
}

type AutoPowerMode string

const (
	OFF_AUTO_POWER            AutoPowerMode = "off"
	CLOCK_AUTO_POWER          AutoPowerMode = "clock"
	CUSTOM_MESSAGE_AUTO_POWER AutoPowerMode = "custom_message"
	SPORTS_AUTO_POWER         AutoPowerMode = "sports"
)

func ParseAutoPowerMode(s string) (AutoPowerMode, error) {
	switch mode := AutoPowerMode(s); mode {
	case OFF_AUTO_POWER, CLOCK_AUTO_POWER, CUSTOM_MESSAGE_AUTO_POWER, SPORTS_AUTO_POWER:
		return mode, nil
	}
	return "", fmt.Errorf("unknown auto power mode %q", s)
}

type SetupState string

const (
	SETUP_NOT_STARTED       SetupState = "not_started"
	SETUP_CONNECTING        SetupState = "connecting"
	SETUP_CONNECTION_FAILED SetupState = "connection_failed"
	SETUP_READY             SetupState = "ready"
)

func ParseSetupState(s string) (SetupState, error) {
	switch state := SetupState(s); state {
	case SETUP_NOT_STARTED, SETUP_CONNECTING, SETUP_CONNECTION_FAILED, SETUP_READY:
		return state, nil
	}
	return "", fmt.Errorf("unknown setup state %q", s)
}
