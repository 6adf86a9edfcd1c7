// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the console.
type KeyMap struct {
	// View switching. Two and Three mirror the navigation buttons;
	// One returns to the start view.
	ViewOne   key.Binding
	ViewTwo   key.Binding
	ViewThree key.Binding
	NextView  key.Binding

	// Request control (view Two).
	Send   key.Binding
	Cancel key.Binding

	Quit key.Binding
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.ViewTwo, keys.ViewThree, keys.Send, keys.Cancel, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.ViewOne, keys.ViewTwo, keys.ViewThree, keys.NextView},
		{keys.Send, keys.Cancel, keys.Quit},
	}
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	ViewOne: key.NewBinding(
		key.WithKeys("1", "home"),
		key.WithHelp("1", "one"),
	),
	ViewTwo: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "two"),
	),
	ViewThree: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "three"),
	),
	NextView: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next view"),
	),
	Send: key.NewBinding(
		key.WithKeys("enter", "r"),
		key.WithHelp("r", "send request"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
