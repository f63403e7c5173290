package model

import (
	"time"
)

// ScoreboardSettings is shared between goroutines as an immutable snapshot.
// Never mutate a published value: Clone it, change the copy and publish the copy.
type ScoreboardSettings struct {
	Version            uint64                      `yaml:"version" json:"version"`
	Timezone           string                      `yaml:"timezone" json:"timezone"`
	ActiveScreen       ScreenId                    `yaml:"active_screen" json:"active_screen"`
	RotationInterval   int64                       `yaml:"rotation_interval" json:"rotation_interval"`
	Screens            map[ScreenId]ScreenSettings `yaml:"screens" json:"screens"`
	Brightness         uint8                       `yaml:"brightness" json:"brightness"`
	Power              bool                        `yaml:"power" json:"power"`
	AutoPower          AutoPowerMode               `yaml:"auto_power" json:"auto_power"`
	PreferredAutoPower AutoPowerMode               `yaml:"preferred_auto_power" json:"preferred_auto_power"`
	FavoriteTeams      map[League][]string         `yaml:"favorite_teams" json:"favorite_teams"`
	CustomMessage      string                      `yaml:"custom_message" json:"custom_message"`
	SetupState         SetupState                  `yaml:"setup_state" json:"setup_state"`
	SetupError         string                      `yaml:"setup_error,omitempty" json:"setup_error,omitempty"`
	WifiSsid           string                      `yaml:"wifi_ssid" json:"wifi_ssid"`
}

type ScreenSettings struct {
	// Seconds each game stays on screen before the next one
	RotationTime int64 `yaml:"rotation_time" json:"rotation_time"`
	// Team abbreviation shown first, if playing
	FocusTeam string `yaml:"focus_team,omitempty" json:"focus_team,omitempty"`
	Enabled   bool   `yaml:"enabled" json:"enabled"`
}

func DefaultSettings() *ScoreboardSettings {
	settings := &ScoreboardSettings{
		Timezone:           "UTC",
		ActiveScreen:       SETUP_SCREEN,
		RotationInterval:   30,
		Screens:            make(map[ScreenId]ScreenSettings),
		Brightness:         128,
		Power:              true,
		AutoPower:          OFF_AUTO_POWER,
		PreferredAutoPower: CLOCK_AUTO_POWER,
		FavoriteTeams:      make(map[League][]string),
		SetupState:         SETUP_NOT_STARTED,
	}
	for _, id := range SportScreenIds {
		settings.Screens[id] = ScreenSettings{RotationTime: 8, Enabled: true}
	}
	settings.Screens[SMART_SCREEN] = ScreenSettings{RotationTime: 8, Enabled: true}
	return settings
}

func (s *ScoreboardSettings) Clone() *ScoreboardSettings {
	clone := *s
	clone.Screens = make(map[ScreenId]ScreenSettings, len(s.Screens))
	for id, screenSettings := range s.Screens {
		clone.Screens[id] = screenSettings
	}
	clone.FavoriteTeams = make(map[League][]string, len(s.FavoriteTeams))
	for league, teams := range s.FavoriteTeams {
		clone.FavoriteTeams[league] = append([]string(nil), teams...)
	}
	return &clone
}

func (s *ScoreboardSettings) Location() *time.Location {
	location, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

func (s *ScoreboardSettings) ScreenSettings(id ScreenId) ScreenSettings {
	screenSettings, ok := s.Screens[id]
	if !ok {
		return ScreenSettings{RotationTime: 8, Enabled: true}
	}
	if screenSettings.RotationTime <= 0 {
		screenSettings.RotationTime = 8
	}
	return screenSettings
}

func (s *ScoreboardSettings) Rotation() time.Duration {
	if s.RotationInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.RotationInterval) * time.Second
}

// Leagues returns the leagues of the enabled sport screens, in display order.
func (s *ScoreboardSettings) Leagues() []League {
	var leagues []League
	for _, id := range SportScreenIds {
		if s.ScreenSettings(id).Enabled {
			leagues = append(leagues, id.League())
		}
	}
	return leagues
}
