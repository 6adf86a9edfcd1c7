// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/mould/lib/mould"
)

// View identifies which page the console shows.
type View int

const (
	// ViewOne is the start page.
	ViewOne View = iota
	// ViewTwo issues requests and shows their results.
	ViewTwo
	// ViewThree shows the connection settings.
	ViewThree
)

// viewCount is the number of views NextView cycles through.
const viewCount = 3

func (view View) String() string {
	switch view {
	case ViewOne:
		return "One"
	case ViewTwo:
		return "Two"
	case ViewThree:
		return "Three"
	default:
		return fmt.Sprintf("View(%d)", int(view))
	}
}

// StatusMsg reports a connection status transition. Send it from the
// client's status callback with program.Send.
type StatusMsg struct {
	Status mould.Status
}

// replyMsg carries the reply to request sequence.
type replyMsg struct {
	sequence int
	reply    Reply
}

// abandonedMsg ends the wait for a request that was cancelled.
type abandonedMsg struct {
	sequence int
}

// Settings describe the connection and request shown on view Three.
type Settings struct {
	URL            string
	Format         string
	RequestTimeout time.Duration
	Service        string
	Action         string
	Payload        string
}

// pendingRequest is the request the console is waiting on.
type pendingRequest struct {
	sequence  int
	canceler  Canceler
	abandoned chan struct{}
}

// Model is the bubbletea model of the console.
type Model struct {
	renderer *lipgloss.Renderer
	theme    Theme
	keys     KeyMap
	help     help.Model
	caller   Caller
	settings Settings

	view   View
	width  int
	height int

	status      mould.Status
	statusKnown bool

	nextSequence int
	pending      *pendingRequest
	lastReply    *Reply
	lastSequence int
	lastError    string

	logLine     *logRecordMsg
	logSequence int
}

// NewModel creates a console that issues requests through caller.
func NewModel(caller Caller, settings Settings) Model {
	return Model{
		renderer: newRenderer(),
		theme:    DefaultTheme,
		keys:     DefaultKeyMap,
		help:     help.New(),
		caller:   caller,
		settings: settings,
		view:     ViewOne,
		width:    80,
		height:   24,
	}
}

// CurrentView returns the page being shown.
func (model Model) CurrentView() View {
	return model.view
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.help.Width = message.Width

	case tea.KeyMsg:
		return model.handleKey(message)

	case StatusMsg:
		model.status = message.Status
		model.statusKnown = true

	case replyMsg:
		if model.pending != nil && model.pending.sequence == message.sequence {
			model.pending = nil
		}
		reply := message.reply
		model.lastReply = &reply
		model.lastSequence = message.sequence

	case abandonedMsg:
		// The wait for a cancelled request has ended; nothing to show.

	case logRecordMsg:
		model.logSequence++
		model.logLine = &message
		sequence := model.logSequence
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{sequence: sequence}
		})

	case logRecordFadeMsg:
		if message.sequence == model.logSequence {
			model.logLine = nil
		}
	}
	return model, nil
}

func (model Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.ViewOne):
		model.view = ViewOne

	case key.Matches(message, model.keys.ViewTwo):
		model.view = ViewTwo

	case key.Matches(message, model.keys.ViewThree):
		model.view = ViewThree

	case key.Matches(message, model.keys.NextView):
		model.view = (model.view + 1) % viewCount

	case key.Matches(message, model.keys.Send):
		if model.view == ViewTwo {
			return model.send()
		}

	case key.Matches(message, model.keys.Cancel):
		if model.view == ViewTwo && model.pending != nil {
			model.cancel()
		}
	}
	return model, nil
}

// send issues a request. A request made while another is pending still
// goes to the caller so the client's rejection is shown.
func (model Model) send() (tea.Model, tea.Cmd) {
	model.nextSequence++
	sequence := model.nextSequence

	replies := make(chan Reply, 1)
	canceler, err := model.caller.Call(func(reply Reply) { replies <- reply })
	if err != nil {
		model.lastError = err.Error()
		return model, nil
	}
	model.lastError = ""

	abandoned := make(chan struct{})
	if model.pending == nil {
		model.pending = &pendingRequest{
			sequence:  sequence,
			canceler:  canceler,
			abandoned: abandoned,
		}
	}
	return model, func() tea.Msg {
		select {
		case reply := <-replies:
			return replyMsg{sequence: sequence, reply: reply}
		case <-abandoned:
			return abandonedMsg{sequence: sequence}
		}
	}
}

func (model *Model) cancel() {
	pending := model.pending
	model.pending = nil
	close(pending.abandoned)
	if err := pending.canceler.Cancel(); err != nil {
		model.lastError = err.Error()
		return
	}
	model.lastError = fmt.Sprintf("request %d cancelled", pending.sequence)
}

// View implements tea.Model.
func (model Model) View() string {
	header := model.renderHeader()
	statusBar := model.renderStatusBar()

	bodyHeight := model.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := renderMarkdown(model.page(), model.theme, model.width-2)
	lines := strings.Split(body, "\n")
	if len(lines) > bodyHeight {
		lines = lines[:bodyHeight]
	}
	for len(lines) < bodyHeight {
		lines = append(lines, "")
	}
	for index, line := range lines {
		lines[index] = " " + ansi.Truncate(line, model.width-1, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n"), statusBar)
}

// renderHeader draws the title and the navigation buttons. The button
// of the current view is drawn selected.
func (model Model) renderHeader() string {
	title := model.renderer.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground).
		Padding(0, 1).
		Render("mould")

	button := func(label string, view View) string {
		style := model.renderer.NewStyle().
			Padding(0, 1).
			MarginRight(1).
			Foreground(model.theme.ButtonForeground).
			Background(model.theme.ButtonBackground)
		if model.view == view {
			style = style.
				Bold(true).
				Foreground(model.theme.ButtonSelectedForeground).
				Background(model.theme.ButtonSelectedBackground)
		}
		return style.Render(label)
	}
	nav := lipgloss.JoinHorizontal(lipgloss.Top, button("Two", ViewTwo), button("Three", ViewThree))

	row := lipgloss.JoinHorizontal(lipgloss.Top, title, nav)
	return model.renderer.NewStyle().
		Width(model.width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(model.theme.BorderColor).
		Render(row)
}

func (model Model) renderStatusBar() string {
	statusText := "connecting"
	statusColor := model.theme.FaintText
	if model.statusKnown {
		statusText = strings.ToLower(model.status.String())
		statusColor = model.theme.StatusColor(model.status)
	}
	pill := model.renderer.NewStyle().Foreground(statusColor).Render("● " + statusText)

	var detail string
	if model.logLine != nil {
		color := model.theme.NormalText
		switch {
		case model.logLine.Level >= slog.LevelError:
			color = model.theme.ErrorText
		case model.logLine.Level >= slog.LevelWarn:
			color = model.theme.WarnText
		}
		detail = model.renderer.NewStyle().Foreground(color).Render(model.logLine.Summary)
	} else {
		detail = model.help.View(model.keys)
	}

	line := pill + "  " + detail
	return ansi.Truncate(line, model.width, "…")
}

// page returns the markdown for the current view.
func (model Model) page() string {
	switch model.view {
	case ViewTwo:
		return model.requestPage()
	case ViewThree:
		return model.settingsPage()
	default:
		return startPage
	}
}

const startPage = `# One

A console for a single-flight RPC connection: one request at a time,
over one socket.

Choose **Two** to send the configured request and watch its result.
Choose **Three** to see where the console is connected.
`

func (model Model) requestPage() string {
	var page strings.Builder
	page.WriteString("# Two\n\n")
	fmt.Fprintf(&page, "Request `%s.%s` with payload:\n\n", model.settings.Service, model.settings.Action)
	fmt.Fprintf(&page, "```json\n%s\n```\n\n", model.settings.Payload)

	if model.pending != nil {
		fmt.Fprintf(&page, "Request %d in flight. Press **c** to cancel.\n\n", model.pending.sequence)
	} else {
		page.WriteString("Press **r** to send.\n\n")
	}
	if model.lastError != "" {
		fmt.Fprintf(&page, "*%s*\n\n", model.lastError)
	}

	page.WriteString("## Last result\n\n")
	switch reply := model.lastReply; {
	case reply == nil:
		page.WriteString("*No result yet.*\n")
	case reply.Err != nil:
		kind := "error"
		if failureKind, ok := mould.FailureKindOf(reply.Err); ok {
			kind = failureKind.String()
		}
		fmt.Fprintf(&page, "Request %d **failed** (%s) after %s: `%s`\n",
			model.lastSequence, kind, reply.Elapsed.Round(time.Millisecond), reply.Err)
	default:
		fmt.Fprintf(&page, "Request %d succeeded after %s:\n\n", model.lastSequence, reply.Elapsed.Round(time.Millisecond))
		page.WriteString(formatValue(reply.Value))
	}
	return page.String()
}

func (model Model) settingsPage() string {
	timeout := "none"
	if model.settings.RequestTimeout > 0 {
		timeout = model.settings.RequestTimeout.String()
	}
	status := "connecting"
	if model.statusKnown {
		status = strings.ToLower(model.status.String())
	}
	return fmt.Sprintf(`# Three

- Server: %s
- Wire format: %s
- Request timeout: %s
- Status: %s
`, "`"+model.settings.URL+"`", "`"+model.settings.Format+"`", timeout, status)
}

// formatValue renders a decoded result as a fenced JSON block, or as
// plain text when it has no JSON form.
func formatValue(value any) string {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("```\n%v\n```\n", value)
	}
	return fmt.Sprintf("```json\n%s\n```\n", data)
}
