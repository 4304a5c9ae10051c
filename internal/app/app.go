// Package app contains the root application model.
package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/citehint/internal/citation"
	"github.com/zjrosen/citehint/internal/config"
	"github.com/zjrosen/citehint/internal/decorator"
	"github.com/zjrosen/citehint/internal/document"
	"github.com/zjrosen/citehint/internal/keys"
	"github.com/zjrosen/citehint/internal/linecache"
	"github.com/zjrosen/citehint/internal/log"
	"github.com/zjrosen/citehint/internal/ui/styles"
	"github.com/zjrosen/citehint/internal/watcher"
)

// opacityStep is the change applied by the brighter/dimmer keys.
const opacityStep = 0.1

// AnalyzerFactory builds a document analyzer for a strategy. Analyzers built
// by one factory share its line cache and tracer.
type AnalyzerFactory func(citation.Strategy) *document.Analyzer

// Services are the collaborators the model is built from.
type Services struct {
	Config      config.Config
	NewAnalyzer AnalyzerFactory
	Renderer    *lipgloss.Renderer
	// Cache is the line cache behind NewAnalyzer, if any. The reload key
	// flushes it so every line is analyzed afresh.
	Cache *linecache.Cache
}

// DocumentChangedMsg is sent when the watched document changes on disk.
type DocumentChangedMsg struct{}

// Model is the root application state.
type Model struct {
	keys     keys.KeyMap
	help     help.Model
	viewport viewport.Model

	services  Services
	doc       *document.Document
	decorator *decorator.Decorator
	opacity   float64

	width      int
	height     int
	ready      bool
	showHelp   bool
	hideStatus bool
	err        error

	watcherHandle *watcher.Watcher
	changes       <-chan struct{}
}

// New creates the application model for doc. The watcher is only started
// when watching is enabled and the document came from a file.
func New(doc *document.Document, services Services) (Model, error) {
	cfg := services.Config
	strategy, err := cfg.ParsedStrategy()
	if err != nil {
		return Model{}, err
	}
	if services.Renderer == nil {
		services.Renderer = lipgloss.DefaultRenderer()
	}

	renderer, err := decorator.NewRenderer(services.Renderer, cfg.Opacity, themeOf(cfg))
	if err != nil {
		return Model{}, err
	}

	m := Model{
		keys:      keys.DefaultKeyMap(),
		help:      help.New(),
		services:  services,
		doc:       doc,
		decorator: decorator.New(services.NewAnalyzer(strategy), renderer),
		opacity:   cfg.Opacity,
	}

	if cfg.Watch.Enabled && doc.Path != "" && doc.Path != "-" {
		w, err := watcher.New(watcher.Config{Path: doc.Path, DebounceDur: cfg.Watch.Debounce})
		if err == nil {
			if ch, err := w.Start(); err == nil {
				m.watcherHandle = w
				m.changes = ch
			} else {
				log.Warn(log.CatWatcher, "Failed to start watcher", "path", doc.Path, "error", err)
				_ = w.Stop()
			}
		}
		// The viewer works without auto-reload.
	}

	return m, nil
}

func themeOf(cfg config.Config) decorator.Theme {
	return decorator.Theme{Foreground: cfg.Theme.Foreground, Background: cfg.Theme.Background}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) listen() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return DocumentChangedMsg{}
	}
}

// Decorator exposes the decoration state.
func (m Model) Decorator() *decorator.Decorator { return m.decorator }

// Document returns the document being viewed.
func (m Model) Document() *document.Document { return m.doc }

// Opacity returns the in-session opacity.
func (m Model) Opacity() float64 { return m.opacity }

// Err returns the last error shown in the status bar.
func (m Model) Err() error { return m.err }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case DocumentChangedMsg:
		log.Debug(log.CatUI, "Document changed on disk", "path", m.doc.Path)
		m.reload()
		return m, m.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Apply):
		m.setErr(m.decorator.Apply(ctx, m.doc))

	case key.Matches(msg, m.keys.Clear):
		m.decorator.Clear()
		m.err = nil

	case key.Matches(msg, m.keys.Toggle):
		m.setErr(m.decorator.Toggle(ctx, m.doc))

	case key.Matches(msg, m.keys.SwitchStrategy):
		m.switchStrategy()

	case key.Matches(msg, m.keys.Brighter):
		m.setOpacity(m.opacity + opacityStep)

	case key.Matches(msg, m.keys.Dimmer):
		m.setOpacity(m.opacity - opacityStep)

	case key.Matches(msg, m.keys.Reload):
		if m.services.Cache != nil {
			m.services.Cache.Flush()
		}
		m.reload()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.ToggleStatus):
		m.hideStatus = !m.hideStatus
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.refresh()
	return m, nil
}

// switchStrategy is a view change: the old ranges are dropped and, if
// dimming was on, recomputed with the new strategy.
func (m *Model) switchStrategy() {
	wasApplied := m.decorator.Applied()
	next := m.decorator.Analyzer().Strategy().Next()
	m.decorator.ViewChanged(m.services.NewAnalyzer(next))
	log.Info(log.CatUI, "Switched strategy", "strategy", next, "reapply", wasApplied)
	if wasApplied {
		m.setErr(m.decorator.Apply(context.Background(), m.doc))
	}
}

func (m *Model) setOpacity(opacity float64) {
	opacity = math.Round(math.Max(0, math.Min(1, opacity))*10) / 10
	if opacity == m.opacity {
		return
	}
	r, err := decorator.NewRenderer(m.services.Renderer, opacity, themeOf(m.services.Config))
	if err != nil {
		m.setErr(err)
		return
	}
	m.opacity = opacity
	m.decorator.SetRenderer(r)
	log.Debug(log.CatUI, "Opacity changed", "opacity", opacity, "color", r.DimColor())
}

func (m *Model) reload() {
	if m.doc.Path == "" || m.doc.Path == "-" {
		return
	}
	doc, err := document.Load(m.doc.Path)
	if err != nil {
		m.setErr(err)
		m.refresh()
		return
	}
	m.doc = doc
	_, err = m.decorator.DocumentChanged(context.Background(), doc)
	m.setErr(err)
	m.refresh()
}

func (m *Model) setErr(err error) {
	m.err = err
	if err != nil {
		log.ErrorErr(log.CatUI, "Decoration failed", err, "path", m.doc.Path)
	}
}

func (m *Model) resize() {
	height := m.height - 2 // panel border
	if !m.hideStatus {
		height--
	}
	if m.showHelp {
		height -= lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}
	height = max(height, 1)
	width := max(m.width-2, 1)

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.refresh()
}

// refresh re-renders the document into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	lines := m.decorator.Render(m.doc)
	for i, line := range lines {
		if lipgloss.Width(line) > m.viewport.Width {
			lines[i] = lipgloss.NewStyle().MaxWidth(m.viewport.Width).Render(line)
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(styles.RenderPanel(
		strings.Split(m.viewport.View(), "\n"),
		m.doc.Name(),
		m.width,
		m.viewport.Height+2,
		styles.BorderDefaultColor,
	))
	if !m.hideStatus {
		b.WriteByte('\n')
		b.WriteString(m.statusBar())
	}
	if m.showHelp {
		b.WriteByte('\n')
		b.WriteString(styles.HelpStyle.Render(m.help.FullHelpView(m.keys.FullHelp())))
	}
	return b.String()
}

func (m Model) statusBar() string {
	strategy := string(m.decorator.Analyzer().Strategy())
	state := styles.ClearedBadgeStyle.Render("off")
	if m.decorator.Applied() {
		state = styles.AppliedBadgeStyle.Render("dimmed")
	}

	parts := []string{
		styles.StrategyStyle(strategy).Render(strategy),
		state,
		styles.StatusKeyStyle.Render("opacity ") + styles.FormatOpacity(m.opacity),
		styles.FormatLineCount(m.doc.Len()),
	}
	if m.decorator.Applied() {
		res := m.decorator.Result()
		focus, dim := res.Counts()
		parts = append(parts, fmt.Sprintf("%d eligible · %d focus · %d dim", res.Eligible(), focus, dim))
	}
	if m.err != nil {
		parts = append(parts, styles.ErrorStyle.Render(m.err.Error()))
	} else {
		parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	}

	line := strings.Join(parts, styles.StatusKeyStyle.Render(" │ "))
	return styles.StatusBarStyle.Render(styles.TruncateString(line, max(m.width-2, 1)))
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.watcherHandle != nil {
		if err := m.watcherHandle.Stop(); err != nil {
			return err
		}
		m.watcherHandle = nil
	}
	return nil
}
