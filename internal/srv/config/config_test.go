package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type recordingSubmitter struct {
	lock      sync.Mutex
	submitted []command.Command
}

func (s *recordingSubmitter) Submit(cmd command.Command) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.submitted = append(s.submitted, cmd)
}

func (s *recordingSubmitter) SubmitAfter(cmd command.Command, delay time.Duration) {
	s.Submit(cmd)
}

func (s *recordingSubmitter) commands() []command.Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]command.Command(nil), s.submitted...)
}

func TestDefaultServerParam(t *testing.T) {
	param := DefaultServerParam()

	assert.Equal(t, 128, param.DisplayParam.Width)
	assert.Equal(t, 64, param.DisplayParam.Height)
	assert.Equal(t, 30*time.Second, param.SportsParam.GetActiveInterval())
	assert.Equal(t, 10*time.Minute, param.SportsParam.GetHibernateInterval())
	assert.Equal(t, int64(8443), param.ApiParam.SslPort)
}

func TestLoadServerParamKeepsDefaults(t *testing.T) {
	filename := filepath.Join(t.TempDir(), paramFilename)
	require.NoError(t, os.WriteFile(filename, []byte("hotspot_name: Den\napi:\n  api_key: secret\n"), 0660))

	param, err := LoadServerParam(filename)
	require.NoError(t, err)
	assert.Equal(t, "Den", param.HotspotName)
	assert.Equal(t, "secret", param.ApiParam.ApiKey)
	assert.Equal(t, int64(8443), param.ApiParam.SslPort)

	_, err = LoadServerParam(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestJoinWifiArgs(t *testing.T) {
	param := ShellParam{JoinWifi: []string{"nmcli", "wifi", "connect", "{ssid}", "password", "{password}"}}

	assert.Equal(t,
		[]string{"nmcli", "wifi", "connect", "Home Net", "password", "p4ss"},
		param.JoinWifiArgs("Home Net", "p4ss"))
}

func TestNewServerConfigCreatesFiles(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "vekiscore")

	serverConfig := NewServerConfig(configDir, false, true)
	assert.FileExists(t, serverConfig.GetCompleteParamFilename())
	assert.Equal(t, model.SETUP_SCREEN, serverConfig.Settings.Settings().ActiveScreen)
}

func TestSettingsStoreDebouncedSave(t *testing.T) {
	filename := filepath.Join(t.TempDir(), settingsFilename)
	store, err := NewSettingsStore(filename)
	require.NoError(t, err)
	store.saveDelay = time.Hour

	first := model.DefaultSettings()
	first.Version = 1
	second := first.Clone()
	second.Version = 2
	second.CustomMessage = "Go Habs Go"
	second.FavoriteTeams["nhl"] = []string{"MTL"}

	store.Save(first)
	store.Save(second)
	assert.NoFileExists(t, filename)

	store.FlushSave()
	require.FileExists(t, filename)

	reloaded, err := NewSettingsStore(filename)
	require.NoError(t, err)
	assert.Equal(t, second, reloaded.Settings())
}

func TestSettingsStoreRejectsInvalidFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), settingsFilename)
	require.NoError(t, os.WriteFile(filename, []byte("timezone: Mars/Olympus\n"), 0660))

	_, err := NewSettingsStore(filename)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filename, []byte("setup_state: done\n"), 0660))
	_, err = NewSettingsStore(filename)
	assert.Error(t, err)
}

func TestSettingsStoreWatch(t *testing.T) {
	filename := filepath.Join(t.TempDir(), settingsFilename)
	store, err := NewSettingsStore(filename)
	require.NoError(t, err)
	store.FlushSave()

	submitter := &recordingSubmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, submitter)
	}()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Our own saves are not reported
	time.Sleep(100 * time.Millisecond)
	own := model.DefaultSettings()
	own.Brightness = 10
	store.Save(own)
	store.FlushSave()

	external := model.DefaultSettings()
	external.Brightness = 200
	external.Timezone = "America/Toronto"
	rawSettings, err := yaml.Marshal(external)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filename, rawSettings, 0660))

	var last command.UpdateSettings
	require.Eventually(t, func() bool {
		commands := submitter.commands()
		if len(commands) == 0 {
			return false
		}
		update, ok := commands[len(commands)-1].(command.UpdateSettings)
		last = update
		return ok && update.Settings.Brightness == 200
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, command.FILE_SOURCE, last.Origin.Source)
	assert.Equal(t, "America/Toronto", last.Settings.Timezone)
	for _, cmd := range submitter.commands() {
		update := cmd.(command.UpdateSettings)
		assert.NotEqual(t, uint8(10), update.Settings.Brightness)
	}
}
