package config

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	HotspotName  string       `yaml:"hotspot_name"`
	DisplayParam DisplayParam `yaml:"display"`
	ButtonsParam ButtonsParam `yaml:"buttons"`
	SportsParam  SportsParam  `yaml:"sports"`
	ShellParam   ShellParam   `yaml:"shell"`
	ApiParam     ApiParam     `yaml:"api"`
}

type DisplayParam struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	I2cBus string `yaml:"i2c_bus"`
}

type ButtonsParam struct {
	Pin string `yaml:"pin"`
	// Milliseconds
	DoublePressWindow int64 `yaml:"double_press_window"`
	LongPressDuration int64 `yaml:"long_press_duration"`
}

type SportsParam struct {
	BaseUrl string `yaml:"base_url"`
	// Seconds
	Timeout           int64  `yaml:"timeout"`
	ActiveInterval    int64  `yaml:"active_interval"`
	HibernateInterval int64  `yaml:"hibernate_interval"`
	MaxRetries        uint64 `yaml:"max_retries"`
	// Milliseconds
	InitialBackoff int64 `yaml:"initial_backoff"`
}

// ShellParam lists the system commands run for administrative actions.
// {ssid} and {password} are replaced in the join_wifi arguments.
type ShellParam struct {
	Reboot       []string `yaml:"reboot"`
	FactoryReset []string `yaml:"factory_reset"`
	JoinWifi     []string `yaml:"join_wifi"`
	HotspotOn    []string `yaml:"hotspot_on"`
	HotspotOff   []string `yaml:"hotspot_off"`
	MaxRetries   uint64   `yaml:"max_retries"`
	// Seconds
	Timeout int64 `yaml:"timeout"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

func DefaultServerParam() *ServerParam {
	serverParam := &ServerParam{}
	err := yaml.Unmarshal(ParamDefaultFile, serverParam)
	if err != nil {
		panic(fmt.Sprintf("Invalid embedded default param file: %v", err))
	}
	return serverParam
}

// LoadServerParam reads a param file, missing values keep their default
func LoadServerParam(filename string) (*ServerParam, error) {
	rawConfig, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	serverParam := DefaultServerParam()
	err = yaml.Unmarshal(rawConfig, serverParam)
	if err != nil {
		return nil, fmt.Errorf("unable to interpret %s: %w", filename, err)
	}
	return serverParam, nil
}

func (p SportsParam) GetTimeout() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

func (p SportsParam) GetActiveInterval() time.Duration {
	return time.Duration(p.ActiveInterval) * time.Second
}

func (p SportsParam) GetHibernateInterval() time.Duration {
	return time.Duration(p.HibernateInterval) * time.Second
}

func (p SportsParam) GetInitialBackoff() time.Duration {
	return time.Duration(p.InitialBackoff) * time.Millisecond
}

func (p ShellParam) GetTimeout() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// JoinWifiArgs returns the join_wifi command line for a network
func (p ShellParam) JoinWifiArgs(ssid, password string) []string {
	replacer := strings.NewReplacer("{ssid}", ssid, "{password}", password)
	args := make([]string, len(p.JoinWifi))
	for i, arg := range p.JoinWifi {
		args[i] = replacer.Replace(arg)
	}
	return args
}

func (p ButtonsParam) GetDoublePressWindow() time.Duration {
	return time.Duration(p.DoublePressWindow) * time.Millisecond
}

func (p ButtonsParam) GetLongPressDuration() time.Duration {
	return time.Duration(p.LongPressDuration) * time.Millisecond
}
