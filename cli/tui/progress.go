package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/foundry/runtime"
)

// reportMsg updates the stage message and completion percent.
type reportMsg struct {
	message string
	percent int
}

// finishMsg terminates the progress program.
type finishMsg struct{}

// ProgressModel is a Bubble Tea model showing one deploy operation:
// a spinner, the current stage message, and a progress bar.
type ProgressModel struct {
	title    string
	message  string
	percent  int
	spin     spinner.Model
	bar      progress.Model
	quitting bool
}

// NewProgressModel creates a progress model titled for one operation.
func NewProgressModel(title string) ProgressModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	return ProgressModel{
		title: title,
		spin:  s,
		bar:   progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportMsg:
		m.message = msg.message
		m.percent = msg.percent
		return m, nil

	case finishMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		// The deploy keeps running in the background; ctrl+c only
		// detaches the UI.
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	if m.quitting {
		return ""
	}

	view := TitleStyle.Render(m.title) + "\n" +
		m.spin.View() + StageStyle.Render(m.message) + "\n" +
		m.bar.ViewAs(float64(m.percent)/100) + "\n" +
		HelpStyle.Render("Press Ctrl+C to detach")
	return view
}

// handle adapts a running tea.Program to runtime.Progress.
type handle struct {
	prog *tea.Program
	done chan struct{}
}

// Report implements runtime.Progress.
func (h *handle) Report(message string, percent int) {
	h.prog.Send(reportMsg{message: message, percent: percent})
}

// Finish implements runtime.Progress. Blocks until the program exits so
// the terminal is restored before the CLI prints results.
func (h *handle) Finish() {
	h.prog.Send(finishMsg{})
	<-h.done
}

// Factory returns a runtime.ProgressFactory that runs one Bubble Tea
// program per deploy operation, writing to out.
func Factory(out io.Writer) runtime.ProgressFactory {
	return func(title string) runtime.Progress {
		prog := tea.NewProgram(NewProgressModel(title), tea.WithOutput(out))
		h := &handle{prog: prog, done: make(chan struct{})}
		go func() {
			defer close(h.done)
			if _, err := prog.Run(); err != nil {
				fmt.Fprintf(out, "progress UI error: %v\n", err)
			}
		}()
		return h
	}
}

// Enabled reports whether the progress UI should run: stdout must be a
// TTY and quiet mode must be off.
func Enabled(quiet bool) bool {
	if quiet {
		return false
	}
	return isTTY(os.Stdout)
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
