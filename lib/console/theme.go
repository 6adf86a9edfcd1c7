// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/mould/lib/mould"
)

// Theme defines the color palette of the console. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	ErrorText  lipgloss.Color
	CodeText   lipgloss.Color

	// Navigation buttons.
	ButtonForeground         lipgloss.Color
	ButtonBackground         lipgloss.Color
	ButtonSelectedForeground lipgloss.Color
	ButtonSelectedBackground lipgloss.Color

	// Connection status.
	StatusConnected    lipgloss.Color
	StatusDisconnected lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	WarnText         lipgloss.Color
}

// StatusColor returns the color for a connection status.
func (theme Theme) StatusColor(status mould.Status) lipgloss.Color {
	if status == mould.Connected {
		return theme.StatusConnected
	}
	return theme.StatusDisconnected
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	ErrorText:  lipgloss.Color("196"),
	CodeText:   lipgloss.Color("180"),

	ButtonForeground:         lipgloss.Color("250"),
	ButtonBackground:         lipgloss.Color("237"),
	ButtonSelectedForeground: lipgloss.Color("16"),
	ButtonSelectedBackground: lipgloss.Color("75"),

	StatusConnected:    lipgloss.Color("114"), // green
	StatusDisconnected: lipgloss.Color("208"), // orange

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	WarnText:         lipgloss.Color("220"),
}
