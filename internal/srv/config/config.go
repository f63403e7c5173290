package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
)

const paramFilename = "param.yaml"
const settingsFilename = "settings.yaml"
const scoreCacheFilename = "scores.db"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
	Settings *SettingsStore
}

func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Printf("Creation of config folder: %s", configDir)
			err = os.MkdirAll(configDir, 0770)
			if err != nil {
				logrus.Fatalf("Unable to create config folder: %v\n", err)
			}
		} else {
			logrus.Fatalf("Unable to access config folder: %s", configDir)
		}
	}

	// Open param file
	serverConfig.ServerParam, err = LoadServerParam(serverConfig.GetCompleteParamFilename())
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Fatalf("Unable to interpret param file: %v\n", err)
		}
		// Create default param file
		logrus.Infof("Create default param file")
		serverConfig.ServerParam = DefaultServerParam()
		serverConfig.SaveParam()
	}

	// Open settings file
	serverConfig.Settings, err = NewSettingsStore(serverConfig.GetCompleteSettingsFilename())
	if err != nil {
		logrus.Fatalf("Unable to open settings file: %v\n", err)
	}

	return serverConfig
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) GetCompleteSettingsFilename() string {
	return filepath.Join(sc.ConfigDir, settingsFilename)
}

func (sc *ServerConfig) GetCompleteScoreCacheFilename() string {
	return filepath.Join(sc.ConfigDir, scoreCacheFilename)
}

func (sc *ServerConfig) GetCompleteKeyFilename() string {
	return filepath.Join(sc.ConfigDir, "key.pem")
}

func (sc *ServerConfig) GetCompleteCertFilename() string {
	return filepath.Join(sc.ConfigDir, "cert.pem")
}

func (sc *ServerConfig) SaveParam() {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize param file: %v\n", err)
	}
	err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save param file: %v\n", err)
	}
}
