// Package teatest drives bubbletea models synchronously in tests.
//
// The Driver calls Update directly and runs every returned Cmd inline, so a
// test can press keys and inspect the rendered view without a tea.Program.
// Cmds that block longer than cmdTimeout (timers, cursor blinks) are dropped.
package teatest

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

// MaxDrainDepth bounds how many chained Cmds a single event may produce.
const MaxDrainDepth = 100

// cmdTimeout separates store-backed Cmds, which return quickly even against
// SQLite, from timer Cmds that wait on a channel.
const cmdTimeout = 250 * time.Millisecond

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Driver is a synchronous harness for a tea.Model.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a Cmd produced tea.QuitMsg.
	Quitting bool
}

// Option configures the Driver during construction.
type Option func(*Driver)

// New creates a Driver. Call DrainInit to run the model's Init command.
func New(t *testing.T, model tea.Model, opts ...Option) *Driver {
	t.Helper()
	d := &Driver{T: t, Model: model}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithSize delivers a WindowSizeMsg before anything else.
func WithSize(w, h int) Option {
	return func(d *Driver) {
		d.Model, _ = d.Model.Update(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

func (d *Driver) DrainInit() {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
}

// Send dispatches msg through Update and drains the resulting Cmds. Nothing
// is delivered after the model quit.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	var cmd tea.Cmd
	d.Model, cmd = d.Model.Update(msg)
	d.drain(cmd, 0)
}

func (d *Driver) PressKey(r rune) { d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}) }
func (d *Driver) PressEnter()     { d.Send(tea.KeyMsg{Type: tea.KeyEnter}) }
func (d *Driver) PressEsc()       { d.Send(tea.KeyMsg{Type: tea.KeyEsc}) }
func (d *Driver) PressTab()       { d.Send(tea.KeyMsg{Type: tea.KeyTab}) }
func (d *Driver) PressUp()        { d.Send(tea.KeyMsg{Type: tea.KeyUp}) }
func (d *Driver) PressDown()      { d.Send(tea.KeyMsg{Type: tea.KeyDown}) }
func (d *Driver) PressCtrlC()     { d.Send(tea.KeyMsg{Type: tea.KeyCtrlC}) }

// View returns the rendered view with ANSI styling removed.
func (d *Driver) View() string {
	return ansi.ReplaceAllString(d.Model.View(), "")
}

// AssertViewContains checks every substring against the plain view.
func (d *Driver) AssertViewContains(subs ...string) {
	d.T.Helper()
	view := d.View()
	for _, s := range subs {
		assert.Contains(d.T, view, s)
	}
}

func (d *Driver) AssertViewNotContains(subs ...string) {
	d.T.Helper()
	view := d.View()
	for _, s := range subs {
		assert.NotContains(d.T, view, s)
	}
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDrainDepth {
		d.T.Logf("teatest: drain depth limit (%d) reached", MaxDrainDepth)
		return
	}

	msg := runCmd(cmd)
	switch m := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range m {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		d.Model, _ = d.Model.Update(m)
		return
	}
	if isBlink(msg) {
		return
	}

	var next tea.Cmd
	d.Model, next = d.Model.Update(msg)
	d.drain(next, depth+1)
}

// runCmd executes cmd, returning nil if it does not finish within cmdTimeout.
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(cmdTimeout):
		return nil
	}
}

func isBlink(msg tea.Msg) bool {
	return strings.Contains(strings.ToLower(fmt.Sprintf("%T", msg)), "blink")
}
