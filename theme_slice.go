package main

import (
	"context"
	"log"
)

type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

type ThemeState struct {
	Mode ThemeMode
}

func (s *ThemeState) toggle() {
	if s.Mode == ThemeDark {
		s.Mode = ThemeLight
	} else {
		s.Mode = ThemeDark
	}
}

func loadTheme(ctx context.Context, kv KeyValueStore) ThemeState {
	value, found, err := kv.GetItem(ctx, themeKey)
	if err != nil {
		log.Printf("WARNING: reading theme: %v", err)
	}
	if found && ThemeMode(value) == ThemeDark {
		return ThemeState{Mode: ThemeDark}
	}
	return ThemeState{Mode: ThemeLight}
}

// ToggleTheme flips between light and dark and persists the choice.
func (s *Store) ToggleTheme(ctx context.Context) ThemeMode {
	var mode ThemeMode
	s.update(func(st *State) {
		st.Theme.toggle()
		mode = st.Theme.Mode
	})

	if err := s.kv.SetItem(ctx, themeKey, string(mode)); err != nil {
		log.Printf("WARNING: saving theme: %v", err)
	}
	return mode
}
