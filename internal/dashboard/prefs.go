package dashboard

import (
	"fmt"
	"strconv"
)

const (
	prefDarkMode     = "pref.dark_mode"
	prefSoundEnabled = "pref.sound_enabled"
)

// StateStore persists small key/value settings across restarts.
type StateStore interface {
	GetAppState(key string) (string, bool, error)
	SetAppState(key, value string) error
}

type Preferences struct {
	DarkMode     bool `json:"dark_mode"`
	SoundEnabled bool `json:"sound_enabled"`
}

func DefaultPreferences() Preferences {
	return Preferences{DarkMode: false, SoundEnabled: true}
}

// LoadPreferences reads stored preferences over the defaults. A nil store
// yields the defaults.
func LoadPreferences(st StateStore) (Preferences, error) {
	prefs := DefaultPreferences()
	if st == nil {
		return prefs, nil
	}
	var err error
	if prefs.DarkMode, err = loadBool(st, prefDarkMode, prefs.DarkMode); err != nil {
		return DefaultPreferences(), err
	}
	if prefs.SoundEnabled, err = loadBool(st, prefSoundEnabled, prefs.SoundEnabled); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

func SavePreferences(st StateStore, prefs Preferences) error {
	if st == nil {
		return nil
	}
	if err := st.SetAppState(prefDarkMode, strconv.FormatBool(prefs.DarkMode)); err != nil {
		return fmt.Errorf("save dark mode preference: %w", err)
	}
	if err := st.SetAppState(prefSoundEnabled, strconv.FormatBool(prefs.SoundEnabled)); err != nil {
		return fmt.Errorf("save sound preference: %w", err)
	}
	return nil
}

func loadBool(st StateStore, key string, fallback bool) (bool, error) {
	raw, ok, err := st.GetAppState(key)
	if err != nil {
		return fallback, fmt.Errorf("load preference %s: %w", key, err)
	}
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, nil
	}
	return v, nil
}
