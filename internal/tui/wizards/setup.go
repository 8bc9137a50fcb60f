package wizards

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/budgetbuddy/internal/config"
	"github.com/vvka-141/budgetbuddy/internal/tui"
)

// ConnectionTester checks that the database settings in values reach a server.
type ConnectionTester interface {
	TestConnection(ctx context.Context, values map[string]string) (info string, err error)
}

// SetupResult holds the result of the setup wizard.
type SetupResult struct {
	Cancelled bool
	Values    map[string]string
}

type setupStep int

const (
	stepEnvironment setupStep = iota
	stepDatabase
	stepTestConnection
	stepServer
	stepReview
	stepDone
)

type setupField struct {
	key      string
	label    string
	input    textinput.Model
	validate func(string) error
}

// SetupWizard collects the values written to .env.
type SetupWizard struct {
	step   setupStep
	envIdx int

	database []setupField
	server   []setupField
	focus    int
	fieldErr string

	spinner  spinner.Model
	tester   ConnectionTester
	testing  bool
	testDone bool
	testErr  error
	testInfo string

	result SetupResult
	width  int
	keys   tui.KeyMap
}

// SetupOption configures a SetupWizard.
type SetupOption func(*SetupWizard)

// WithTester injects the ConnectionTester.
func WithTester(t ConnectionTester) SetupOption {
	return func(w *SetupWizard) {
		w.tester = t
	}
}

var environments = []struct {
	value       string
	description string
}{
	{config.EnvDevelopment, "Local database without TLS"},
	{config.EnvProduction, "TLS required (sslmode=require), JWT_SECRET mandatory"},
}

// NewSetupWizard returns a wizard prefilled with defaults.
func NewSetupWizard(defaults map[string]string, opts ...SetupOption) SetupWizard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = tui.SpinnerStyle

	w := SetupWizard{
		step:    stepEnvironment,
		spinner: s,
		width:   80,
		keys:    tui.DefaultKeyMap(),
		database: []setupField{
			newField("DB_HOST", "Host", defaults, required),
			newField("DB_PORT", "Port", defaults, portNumber),
			newField("DB_NAME", "Database", defaults, required),
			newField("DB_USER", "User", defaults, required),
			newField("DB_PASSWORD", "Password", defaults, nil),
		},
		server: []setupField{
			newField("PORT", "HTTP port", defaults, portNumber),
			newField("JWT_SECRET", "JWT secret", defaults, required),
			newField("JWT_EXPIRES_IN", "Token lifetime", defaults, expiry),
			newField("LOG_LEVEL", "Log level", defaults, logLevel),
		},
	}
	w.database[4].input.EchoMode = textinput.EchoPassword
	w.database[4].input.EchoCharacter = '•'
	w.server[1].input.EchoMode = textinput.EchoPassword
	w.server[1].input.EchoCharacter = '•'

	if defaults["APP_ENV"] == config.EnvProduction {
		w.envIdx = 1
	}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}

func newField(key, label string, defaults map[string]string, validate func(string) error) setupField {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	ti.SetValue(defaults[key])
	return setupField{key: key, label: label, input: ti, validate: validate}
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}

func portNumber(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func expiry(s string) error {
	_, err := config.ParseExpiry(s)
	if err != nil {
		return fmt.Errorf("use a lifetime such as 7d, 24h or 3600")
	}
	return nil
}

func logLevel(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("must be one of debug, info, warn, error")
}

// Init implements tea.Model.
func (w SetupWizard) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (w SetupWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			w.result.Cancelled = true
			return w, tea.Quit
		}

		switch w.step {
		case stepEnvironment:
			return w.updateEnvironment(msg)
		case stepDatabase:
			return w.updateFields(msg, w.database)
		case stepTestConnection:
			return w.updateTestConnection(msg)
		case stepServer:
			return w.updateFields(msg, w.server)
		case stepReview:
			return w.updateReview(msg)
		}

	case testResultMsg:
		w.testing = false
		w.testDone = true
		w.testErr = msg.err
		w.testInfo = msg.info
		return w, nil

	case spinner.TickMsg:
		if w.testing {
			var cmd tea.Cmd
			w.spinner, cmd = w.spinner.Update(msg)
			return w, cmd
		}

	default:
		if fields := w.activeFields(); fields != nil {
			var cmd tea.Cmd
			fields[w.focus].input, cmd = fields[w.focus].input.Update(msg)
			return w, cmd
		}
	}

	return w, nil
}

func (w SetupWizard) updateEnvironment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Up):
		if w.envIdx > 0 {
			w.envIdx--
		}
	case key.Matches(msg, w.keys.Down):
		if w.envIdx < len(environments)-1 {
			w.envIdx++
		}
	case key.Matches(msg, w.keys.Select):
		return w.enter(stepDatabase)
	case key.Matches(msg, w.keys.Back), key.Matches(msg, w.keys.Quit):
		w.result.Cancelled = true
		return w, tea.Quit
	}
	return w, nil
}

// updateFields handles a text form; fields aliases the wizard's slice for the step.
func (w SetupWizard) updateFields(msg tea.KeyMsg, fields []setupField) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Tab), msg.Type == tea.KeyDown:
		return w.moveFocus(fields, 1)
	case key.Matches(msg, w.keys.ShiftTab), msg.Type == tea.KeyUp:
		return w.moveFocus(fields, -1)
	case key.Matches(msg, w.keys.Select):
		if w.focus < len(fields)-1 {
			return w.moveFocus(fields, 1)
		}
		for i := range fields {
			if err := validateField(fields[i]); err != nil {
				w.fieldErr = fmt.Sprintf("%s: %v", fields[i].label, err)
				return w, nil
			}
		}
		w.fieldErr = ""
		if w.step == stepDatabase {
			return w.startTest()
		}
		return w.enter(stepReview)
	case key.Matches(msg, w.keys.Back):
		if w.step == stepDatabase {
			return w.enter(stepEnvironment)
		}
		return w.enter(stepDatabase)
	default:
		w.fieldErr = ""
		var cmd tea.Cmd
		fields[w.focus].input, cmd = fields[w.focus].input.Update(msg)
		return w, cmd
	}
}

func validateField(f setupField) error {
	if f.validate == nil {
		return nil
	}
	return f.validate(f.input.Value())
}

func (w SetupWizard) moveFocus(fields []setupField, delta int) (tea.Model, tea.Cmd) {
	next := w.focus + delta
	if next < 0 || next >= len(fields) {
		return w, nil
	}
	if delta > 0 {
		if err := validateField(fields[w.focus]); err != nil {
			w.fieldErr = fmt.Sprintf("%s: %v", fields[w.focus].label, err)
			return w, nil
		}
	}
	w.fieldErr = ""
	fields[w.focus].input.Blur()
	w.focus = next
	return w, fields[w.focus].input.Focus()
}

// enter switches to step and focuses its first field.
func (w SetupWizard) enter(step setupStep) (tea.Model, tea.Cmd) {
	if fields := w.activeFields(); fields != nil {
		fields[w.focus].input.Blur()
	}
	w.step = step
	w.focus = 0
	if fields := w.activeFields(); fields != nil {
		return w, fields[0].input.Focus()
	}
	return w, nil
}

func (w SetupWizard) activeFields() []setupField {
	switch w.step {
	case stepDatabase:
		return w.database
	case stepServer:
		return w.server
	}
	return nil
}

type testResultMsg struct {
	err  error
	info string
}

func (w SetupWizard) startTest() (tea.Model, tea.Cmd) {
	if w.tester == nil {
		return w.enter(stepServer)
	}
	w.database[w.focus].input.Blur()
	w.step = stepTestConnection
	w.testing = true
	w.testDone = false

	tester := w.tester
	values := w.values()
	return w, tea.Batch(w.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		info, err := tester.TestConnection(ctx, values)
		return testResultMsg{err: err, info: info}
	})
}

func (w SetupWizard) updateTestConnection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !w.testDone {
		return w, nil
	}

	switch {
	case key.Matches(msg, w.keys.Select):
		// A failed test does not block setup: the server may not be running yet.
		return w.enter(stepServer)
	case key.Matches(msg, w.keys.Retry):
		return w.startTest()
	case key.Matches(msg, w.keys.Back):
		return w.enter(stepDatabase)
	}
	return w, nil
}

func (w SetupWizard) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, w.keys.Select):
		w.result.Values = w.values()
		w.step = stepDone
		return w, tea.Quit
	case key.Matches(msg, w.keys.Back):
		return w.enter(stepServer)
	case key.Matches(msg, w.keys.Quit):
		w.result.Cancelled = true
		return w, tea.Quit
	}
	return w, nil
}

// values returns every entered setting keyed by its environment variable.
func (w SetupWizard) values() map[string]string {
	out := map[string]string{"APP_ENV": environments[w.envIdx].value}
	for _, f := range w.database {
		out[f.key] = strings.TrimSpace(f.input.Value())
	}
	for _, f := range w.server {
		out[f.key] = strings.TrimSpace(f.input.Value())
	}
	out["LOG_LEVEL"] = strings.ToLower(out["LOG_LEVEL"])
	return out
}

// View implements tea.Model.
func (w SetupWizard) View() string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("budgetbuddy setup"))
	b.WriteString("\n")

	switch w.step {
	case stepEnvironment:
		b.WriteString(tui.SubtitleStyle.Render("Select the environment"))
		b.WriteString("\n")
		for i, env := range environments {
			if i == w.envIdx {
				b.WriteString(tui.SelectedStyle.Render(tui.SymbolSelected + " " + env.value))
			} else {
				b.WriteString(tui.UnselectedStyle.Render(tui.SymbolUnselected + " " + env.value))
			}
			b.WriteString("\n")
			b.WriteString(tui.DescriptionStyle.Render(env.description))
			b.WriteString("\n")
		}
		b.WriteString(tui.HelpStyle.Render(w.keys.HelpText()))

	case stepDatabase, stepServer:
		title := "Database connection"
		if w.step == stepServer {
			title = "Server settings"
		}
		b.WriteString(tui.SubtitleStyle.Render(title))
		b.WriteString("\n")
		for i, f := range w.activeFields() {
			b.WriteString(tui.InputLabelStyle.Render(f.label))
			b.WriteString("\n")
			style := tui.InputStyle
			if i == w.focus {
				style = tui.FocusedInputStyle
			}
			b.WriteString(style.Render(f.input.View()))
			b.WriteString("\n")
		}
		if w.fieldErr != "" {
			b.WriteString(tui.ErrorStyle.Render(tui.SymbolCross + " " + w.fieldErr))
			b.WriteString("\n")
		}
		b.WriteString(tui.HelpStyle.Render(w.keys.InputHelpText()))

	case stepTestConnection:
		switch {
		case w.testing:
			b.WriteString(w.spinner.View() + " Testing connection...")
		case w.testErr != nil:
			b.WriteString(tui.ErrorStyle.Render(tui.SymbolCross + " " + w.testErr.Error()))
			b.WriteString(tui.HelpStyle.Render("\nenter continue anyway • r retry • esc edit"))
		default:
			b.WriteString(tui.SuccessStyle.Render(tui.SymbolCheck + " " + w.testInfo))
			b.WriteString(tui.HelpStyle.Render("\nenter continue • esc edit"))
		}

	case stepReview:
		b.WriteString(tui.SubtitleStyle.Render("Review " + config.EnvFileName))
		b.WriteString("\n")
		b.WriteString(tui.BoxStyle.Render(renderValues(w.values())))
		b.WriteString(tui.HelpStyle.Render("\nenter save • esc back • q quit"))
	}

	return lipgloss.NewStyle().MaxWidth(w.width).Render(b.String())
}

// renderValues lists the settings sorted by key with secrets masked.
func renderValues(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := values[k]
		if (k == "DB_PASSWORD" || k == "JWT_SECRET") && v != "" {
			v = strings.Repeat("•", 8)
		}
		lines = append(lines, tui.InputLabelStyle.Render(k)+" "+v)
	}
	return strings.Join(lines, "\n")
}

// Result returns the wizard result.
func (w SetupWizard) Result() SetupResult {
	return w.result
}

// RunSetupWizard runs the wizard on the terminal and returns its result.
func RunSetupWizard(defaults map[string]string, opts ...SetupOption) (SetupResult, error) {
	p := tea.NewProgram(NewSetupWizard(defaults, opts...), tea.WithAltScreen())

	model, err := p.Run()
	if err != nil {
		return SetupResult{Cancelled: true}, err
	}
	return model.(SetupWizard).Result(), nil
}
