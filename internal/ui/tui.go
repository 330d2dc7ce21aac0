package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer shows a live progress panel using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *resyncModel
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails for non-TTY output.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newResyncModel(cfg.RootDir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// Progress implements Renderer.
func (r *TUIRenderer) Progress(u Update) {
	r.send(updateMsg(u))
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(s Summary) {
	r.send(completeMsg(s))
}

// Fail implements Renderer.
func (r *TUIRenderer) Fail(stage string, err error) {
	r.send(failMsg{stage: stage, err: err})
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		r.program.Send(msg)
	}
}

// Stop implements Renderer. It waits briefly for the final frame.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}

	select {
	case <-r.done:
	case <-time.After(500 * time.Millisecond):
		program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

type updateMsg Update
type completeMsg Summary
type failMsg struct {
	stage string
	err   error
}

// resyncModel is the bubbletea model for a resync.
type resyncModel struct {
	width       int
	stage       string
	fraction    float64
	quitting    bool
	summary     *Summary
	failure     *failMsg
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
	rootDir     string
}

func newResyncModel(rootDir string) *resyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	p := progress.New(
		progress.WithSolidFill(ColorLime),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return &resyncModel{
		width:       80,
		stage:       "scan",
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		rootDir:     rootDir,
	}
}

// Init implements tea.Model.
func (m *resyncModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *resyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-20, 20)

	case updateMsg:
		m.stage = msg.Stage
		m.fraction = msg.Fraction
		return m, nil

	case completeMsg:
		s := Summary(msg)
		m.summary = &s
		m.fraction = 1
		return m, tea.Quit

	case failMsg:
		m.failure = &msg
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *resyncModel) View() string {
	switch {
	case m.quitting:
		return "Cancelled.\n"
	case m.failure != nil:
		return m.styles.Error.Render(fmt.Sprintf("✗ %s failed: %v", m.failure.stage, m.failure.err)) + "\n"
	case m.summary != nil:
		return m.renderComplete()
	}

	title := "notesync resync"
	if m.rootDir != "" {
		title = fmt.Sprintf("notesync resync • %s", m.rootDir)
	}

	lines := []string{
		fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Active.Render(m.stage)),
		fmt.Sprintf("%s  %s",
			m.progressBar.ViewAs(m.fraction),
			m.styles.Active.Render(fmt.Sprintf("%3.0f%%", m.fraction*100))),
		m.styles.Dim.Render("q to quit"),
	}
	panel := m.styles.Panel.Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, m.styles.Header.Render(title), panel) + "\n"
}

func (m *resyncModel) renderComplete() string {
	s := m.summary
	var lines []string
	if s.Refreshed == 0 {
		lines = append(lines, m.styles.Success.Render("✓ Up to date"))
	} else {
		lines = append(lines, m.styles.Success.Render("✓ Resync complete"))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("%s   %s", m.styles.Label.Render("Notes:"), m.styles.Active.Render(fmt.Sprintf("%d", s.Files))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Refresh:"), m.styles.Active.Render(fmt.Sprintf("%d", s.Refreshed))),
		fmt.Sprintf("%s  %s", m.styles.Label.Render("Chunks:"), m.styles.Active.Render(fmt.Sprintf("%d", s.Inserted))),
		fmt.Sprintf("%s    %s", m.styles.Label.Render("Took:"), m.styles.Active.Render(formatDuration(s.Duration))),
	)
	return m.styles.Panel.Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

var _ Renderer = (*TUIRenderer)(nil)
