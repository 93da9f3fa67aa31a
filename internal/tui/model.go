// Package tui is the terminal front end: it turns key, mouse and paste
// events into session operations and draws the rendered pages as
// half-block cells.
package tui

import (
	"image"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tabreader/internal/registry"
	"github.com/jask/tabreader/internal/render"
	"github.com/jask/tabreader/internal/session"
)

// Tab bar, status bar, footer.
const chromeRows = 3

const sliderStep = 10

type mode int

const (
	modeReader mode = iota
	modePageInput
	modeOpenInput
	modeRecent
	modeAreaZoom
)

func (m mode) scope() string {
	switch m {
	case modePageInput:
		return scopePageInput
	case modeOpenInput:
		return scopeOpenInput
	case modeRecent:
		return scopeRecent
	case modeAreaZoom:
		return scopeAreaZoom
	default:
		return scopeReader
	}
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarn
	statusError
)

type (
	renderedMsg      struct{ res render.Result }
	resizeSettledMsg struct{ gen uint64 }
	openPathsMsg     struct{ paths []string }
)

// Options configures the terminal UI.
type Options struct {
	// Paths are opened as tabs at startup.
	Paths        []string
	CellWidthPx  int
	CellHeightPx int
	ResizeDelay  time.Duration
	Keys         *KeyRegistry
	Logger       *slog.Logger
}

// Model is the bubbletea model. It owns the registry's change and warning
// hooks for its lifetime.
type Model struct {
	reg      *registry.Registry
	tracker  *render.Tracker
	debounce *render.Debouncer
	keys     *KeyRegistry
	help     help.Model
	logger   *slog.Logger
	cellW    int
	cellH    int
	initial  []string

	width  int
	height int

	active    session.ID
	hasActive bool
	scroll    map[session.ID]image.Point
	pending   []render.Request

	mode         mode
	input        textinput.Model
	recentItems  []string
	recentCursor int
	selecting    bool
	selection    Selection

	status     string
	statusKind statusKind
	quitting   bool
}

// New builds the UI over reg.
func New(reg *registry.Registry, opts Options) *Model {
	if opts.CellWidthPx <= 0 {
		opts.CellWidthPx = 8
	}
	if opts.CellHeightPx <= 0 {
		opts.CellHeightPx = 16
	}
	if opts.Keys == nil {
		opts.Keys = NewKeyRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &Model{
		reg:      reg,
		tracker:  render.NewTracker(),
		debounce: render.NewDebouncer(opts.ResizeDelay),
		keys:     opts.Keys,
		help:     help.New(),
		logger:   opts.Logger,
		cellW:    opts.CellWidthPx,
		cellH:    opts.CellHeightPx,
		initial:  append([]string(nil), opts.Paths...),
		scroll:   make(map[session.ID]image.Point),
		input:    textinput.New(),
	}
	reg.SetChangeHook(m.queueRender)
	reg.SetWarningHook(func(err error) { m.setStatus(statusWarn, "state not saved: "+err.Error()) })
	return m
}

func (m *Model) Init() tea.Cmd {
	if len(m.initial) == 0 {
		return nil
	}
	paths := m.initial
	m.initial = nil
	return func() tea.Msg { return openPathsMsg{paths: paths} }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		gen := m.debounce.Bump()
		return m, tea.Tick(m.debounce.Delay(), func(time.Time) tea.Msg { return resizeSettledMsg{gen: gen} })
	case resizeSettledMsg:
		if !m.debounce.Settled(msg.gen) {
			return m, nil
		}
		m.applyViewport()
		if s := m.current(); s != nil {
			m.requestCurrent(s)
		}
		return m, m.flush()
	case openPathsMsg:
		for _, p := range msg.paths {
			m.openPath(p)
		}
		return m, m.flush()
	case renderedMsg:
		m.applyRender(msg.res)
		return m, nil
	case tea.MouseMsg:
		switch m.mode {
		case modeAreaZoom:
			return m, m.handleMouse(msg)
		case modeReader:
			return m, m.handleWheel(msg)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	if m.mode == modePageInput || m.mode == modeOpenInput || m.mode == modeRecent {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Active reports the selected tab.
func (m *Model) Active() (session.ID, bool) { return m.active, m.hasActive }

func (m *Model) current() *session.Session {
	if !m.hasActive {
		return nil
	}
	s, ok := m.reg.Get(m.active)
	if !ok {
		return nil
	}
	return s
}

func (m *Model) surface() Surface {
	return Surface{
		Cols:       m.width,
		Rows:       max(m.height-chromeRows, 0),
		CellW:      m.cellW,
		CellH:      m.cellH,
		Background: rgba(colorCrust),
	}
}

func (m *Model) applyViewport() {
	w, h := m.surface().ViewportPx()
	for _, s := range m.reg.Sessions() {
		s.SetViewport(w, h)
	}
	m.logger.Debug("viewport settled", "width", w, "height", h)
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// queueRender is the registry change hook. Only the newest request per
// session is kept until the next flush.
func (m *Model) queueRender(c session.Change) {
	req := render.NewRequest(c)
	for i, p := range m.pending {
		if p.SessionID == req.SessionID {
			m.pending[i] = req
			return
		}
	}
	m.pending = append(m.pending, req)
}

func (m *Model) requestCurrent(s *session.Session) {
	m.queueRender(session.Change{ID: s.ID(), Path: s.Path(), Page: s.Page(), Zoom: s.Zoom()})
}

// flush starts a rasterization for every queued request.
func (m *Model) flush() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.pending))
	for _, req := range m.pending {
		s, ok := m.reg.Get(req.SessionID)
		if !ok {
			continue
		}
		m.tracker.Begin(req)
		cmds = append(cmds, rasterize(s, req))
	}
	m.pending = nil
	return tea.Batch(cmds...)
}

func rasterize(s *session.Session, req render.Request) tea.Cmd {
	h := s.Handle()
	return func() tea.Msg {
		return renderedMsg{res: render.Rasterize(h, req)}
	}
}
