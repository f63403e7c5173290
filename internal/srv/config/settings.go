package config

import (
	"bytes"
	"context"
	"fmt"
	"github.com/fsnotify/fsnotify"
	"github.com/jypelle/vekiscore/internal/srv/command"
	"github.com/jypelle/vekiscore/internal/srv/model"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const defaultSaveDelay = 10 * time.Second

// SettingsStore persists the scoreboard settings in a yaml file
type SettingsStore struct {
	lock                     sync.Mutex
	settings                 *model.ScoreboardSettings
	backupTimer              *time.Timer
	saveDelay                time.Duration
	completeSettingsFilename string
	// content of our last write, to recognize it in the file watcher
	lastWritten []byte
}

func NewSettingsStore(completeSettingsFilename string) (*SettingsStore, error) {
	store := &SettingsStore{
		completeSettingsFilename: completeSettingsFilename,
		saveDelay:                defaultSaveDelay,
	}

	rawSettings, err := os.ReadFile(completeSettingsFilename)
	if err == nil {
		// Interpret settings file
		store.settings, err = parseSettings(rawSettings)
		if err != nil {
			return nil, fmt.Errorf("unable to interpret %s: %w", completeSettingsFilename, err)
		}
		store.lastWritten = rawSettings
	} else if os.IsNotExist(err) {
		// Create default settings file
		logrus.Infof("Create default settings file")
		store.Save(model.DefaultSettings())
	} else {
		return nil, err
	}

	return store, nil
}

// parseSettings reads a settings file, missing values keep their default
func parseSettings(rawSettings []byte) (*model.ScoreboardSettings, error) {
	settings := model.DefaultSettings()
	err := yaml.Unmarshal(rawSettings, settings)
	if err != nil {
		return nil, err
	}
	if _, err = time.LoadLocation(settings.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	if settings.ActiveScreen != "" {
		if _, err = model.ParseScreenId(string(settings.ActiveScreen)); err != nil {
			return nil, err
		}
	}
	if _, err = model.ParseAutoPowerMode(string(settings.AutoPower)); err != nil {
		return nil, err
	}
	if _, err = model.ParseSetupState(string(settings.SetupState)); err != nil {
		return nil, err
	}
	return settings, nil
}

// Settings returns the last saved snapshot, the initial one before any save
func (ss *SettingsStore) Settings() *model.ScoreboardSettings {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	return ss.settings
}

// Save records the snapshot and writes it once saves stop coming for a while
func (ss *SettingsStore) Save(settings *model.ScoreboardSettings) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.settings = settings
	ss.scheduleSave()
}

func (ss *SettingsStore) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(ss.saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(ss.saveDelay)
	}
}

func (ss *SettingsStore) save() {
	logrus.Infof("Save settings file: %s", ss.completeSettingsFilename)
	rawSettings, err := yaml.Marshal(ss.settings)
	if err != nil {
		logrus.Errorf("Unable to serialize settings file: %v", err)
		return
	}

	// Write then rename, so that the watcher never reads a partial file
	tmpFilename := ss.completeSettingsFilename + ".tmp"
	err = os.WriteFile(tmpFilename, rawSettings, 0660)
	if err == nil {
		err = os.Rename(tmpFilename, ss.completeSettingsFilename)
	}
	if err != nil {
		logrus.Errorf("Unable to save settings file: %v", err)
		return
	}
	ss.lastWritten = rawSettings
}

func (ss *SettingsStore) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

// Watch submits an UpdateSettings command for every external edit of the settings file, until ctx is done
func (ss *SettingsStore) Watch(ctx context.Context, submitter command.Submitter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create settings watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the folder: editors and our own save replace the file
	err = watcher.Add(filepath.Dir(ss.completeSettingsFilename))
	if err != nil {
		return fmt.Errorf("unable to watch %s: %w", ss.completeSettingsFilename, err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(ss.completeSettingsFilename) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settings, changed := ss.reload()
			if changed {
				logrus.Infof("Settings file modified")
				submitter.Submit(command.UpdateSettings{Origin: command.NewOrigin(command.FILE_SOURCE), Settings: settings})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("Settings watcher: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}

// reload reads the settings file, reporting whether it holds an external valid edit
func (ss *SettingsStore) reload() (*model.ScoreboardSettings, bool) {
	rawSettings, err := os.ReadFile(ss.completeSettingsFilename)
	if err != nil {
		logrus.Warnf("Unable to read settings file: %v", err)
		return nil, false
	}

	if len(bytes.TrimSpace(rawSettings)) == 0 {
		// Truncated, the write event follows
		return nil, false
	}

	ss.lock.Lock()
	defer ss.lock.Unlock()
	if bytes.Equal(rawSettings, ss.lastWritten) {
		return nil, false
	}
	settings, err := parseSettings(rawSettings)
	if err != nil {
		logrus.Warnf("Ignore invalid settings file: %v", err)
		return nil, false
	}
	ss.lastWritten = rawSettings
	return settings, true
}
