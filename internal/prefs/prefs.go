// Package prefs stores user display preferences.
package prefs

import (
	"fmt"
	"strconv"

	"github.com/conorfennell/flashlearn/internal/storage"
)

// DarkModeKey holds "true" or "false".
const DarkModeKey = "flashlearn-darkmode"

// DarkMode reports the stored dark-mode flag. Missing or unreadable values
// mean light mode.
func DarkMode(store storage.Store) bool {
	v, ok, err := store.Get(DarkModeKey)
	if err != nil || !ok {
		return false
	}
	return v == "true"
}

// SetDarkMode persists the dark-mode flag.
func SetDarkMode(store storage.Store, on bool) error {
	if err := store.Set(DarkModeKey, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("failed to save dark mode: %w", err)
	}
	return nil
}

// Toggle flips the dark-mode flag and returns the new value.
func Toggle(store storage.Store) (bool, error) {
	next := !DarkMode(store)
	if err := SetDarkMode(store, next); err != nil {
		return !next, err
	}
	return next, nil
}
