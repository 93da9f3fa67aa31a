package tui

import (
	"errors"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tabreader/internal/render"
	"github.com/jask/tabreader/internal/session"
	"github.com/jask/tabreader/internal/zoom"
)

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		if m.mode == modeReader {
			m.openPasted(string(msg.Runes))
			return m, m.flush()
		}
		return m.updateInput(msg)
	}

	b := m.keys.Lookup(msg.String(), m.mode.scope())
	if b != nil && b.Action == actionQuit && (m.mode == modeReader || b.Scope == scopeGlobal) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeReader:
		if b == nil {
			return m, nil
		}
		m.status = ""
		cmd := m.readerAction(b.Action)
		return m, tea.Batch(cmd, m.flush())
	case modePageInput:
		if b == nil {
			return m.updateInput(msg)
		}
		switch b.Action {
		case actionConfirm:
			m.commitPageInput()
		case actionCancel:
			m.endInput()
		}
		return m, m.flush()
	case modeOpenInput:
		if b == nil {
			return m.updateInput(msg)
		}
		switch b.Action {
		case actionConfirm:
			m.commitOpenInput()
		case actionCancel:
			m.endInput()
		}
		return m, m.flush()
	case modeRecent:
		if b == nil {
			model, cmd := m.updateInput(msg)
			m.filterRecent()
			return model, cmd
		}
		switch b.Action {
		case actionMoveUp:
			if m.recentCursor > 0 {
				m.recentCursor--
			}
		case actionMoveDown:
			if m.recentCursor < len(m.recentItems)-1 {
				m.recentCursor++
			}
		case actionConfirm:
			if len(m.recentItems) > 0 && m.openPath(m.recentItems[m.recentCursor]) {
				m.endInput()
			}
		case actionCancel:
			m.endInput()
		}
		return m, m.flush()
	case modeAreaZoom:
		if b != nil && b.Action == actionCancel {
			m.mode = modeReader
			m.selecting = false
			m.setStatus(statusInfo, "area zoom cancelled")
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) readerAction(a Action) tea.Cmd {
	switch a {
	case actionOpen:
		return m.beginInput(modeOpenInput, "open: ", "")
	case actionRecent:
		if len(m.reg.Recent()) == 0 {
			m.setStatus(statusInfo, "no recent files")
			return nil
		}
		cmd := m.beginInput(modeRecent, "filter: ", "")
		m.filterRecent()
		return cmd
	}

	s := m.current()
	if s == nil {
		return nil
	}
	var err error
	switch a {
	case actionNextPage:
		err = s.NextPage()
	case actionPrevPage:
		err = s.PrevPage()
	case actionFirstPage:
		err = s.GoToPage(0)
	case actionLastPage:
		err = s.GoToPage(s.PageCount() - 1)
	case actionGoToPage:
		return m.beginInput(modePageInput, "page: ", strconv.Itoa(s.Page()+1))
	case actionZoomIn:
		err = s.ZoomIn()
	case actionZoomOut:
		err = s.ZoomOut()
	case actionResetZoom:
		err = s.ResetZoom()
	case actionFitWidth:
		err = s.FitWidth()
	case actionFitHeight:
		err = s.FitHeight()
	case actionSliderUp:
		err = s.SetSlider(min(s.SliderValue()+sliderStep, zoom.SliderMax))
	case actionSliderDown:
		err = s.SetSlider(max(s.SliderValue()-sliderStep, zoom.SliderMin))
	case actionAreaZoom:
		m.mode = modeAreaZoom
		m.selecting = false
		m.selection = Selection{}
		m.setStatus(statusInfo, "drag to select an area, esc to cancel")
	case actionScrollUp:
		m.scrollBy(s.ID(), 0, -1)
	case actionScrollDown:
		m.scrollBy(s.ID(), 0, 1)
	case actionScrollLeft:
		m.scrollBy(s.ID(), -1, 0)
	case actionScrollRight:
		m.scrollBy(s.ID(), 1, 0)
	case actionCloseTab:
		return m.closeActive()
	case actionNextTab, actionPrevTab:
		m.switchTab(a == actionNextTab)
	}
	if err != nil {
		m.setStatus(statusError, err.Error())
	}
	return nil
}

func (m *Model) beginInput(md mode, prompt, value string) tea.Cmd {
	m.mode = md
	m.input = textinput.New()
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = modeReader
	m.input.Blur()
	m.recentItems = nil
	m.recentCursor = 0
}

func (m *Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commitPageInput applies the 1-based page typed by the user. A bad entry
// stays in the field's mode with the field reset to the current page.
func (m *Model) commitPageInput() {
	s := m.current()
	if s == nil {
		m.endInput()
		return
	}
	raw := strings.TrimSpace(m.input.Value())
	n, err := strconv.Atoi(raw)
	if err != nil {
		m.setStatus(statusError, fmt.Sprintf("%q is not a page number", raw))
		m.input.SetValue(strconv.Itoa(s.Page() + 1))
		return
	}
	if err := s.GoToPage(n - 1); err != nil {
		var re *session.RangeError
		if errors.As(err, &re) {
			m.setStatus(statusError, fmt.Sprintf("page %d is out of range (1-%d)", n, re.PageCount))
		} else {
			m.setStatus(statusError, err.Error())
		}
		m.input.SetValue(strconv.Itoa(s.Page() + 1))
		m.input.CursorEnd()
		return
	}
	m.endInput()
}

func (m *Model) commitOpenInput() {
	path := cleanDroppedPath(m.input.Value())
	if path == "" {
		m.endInput()
		return
	}
	if m.openPath(path) {
		m.endInput()
	}
}

func (m *Model) filterRecent() {
	m.recentItems = m.reg.MatchRecent(m.input.Value())
	if m.recentCursor >= len(m.recentItems) {
		m.recentCursor = max(len(m.recentItems)-1, 0)
	}
}

// openPath opens path in a new tab and selects it.
func (m *Model) openPath(path string) bool {
	id, err := m.reg.Open(path)
	if err != nil {
		m.setStatus(statusError, err.Error())
		return false
	}
	s, _ := m.reg.Get(id)
	s.SetViewport(m.surface().ViewportPx())
	m.active, m.hasActive = id, true
	m.setStatus(statusInfo, "opened "+s.Name())
	return true
}

// openPasted opens every PDF path in text, one per line. Terminals deliver
// dropped files as a bracketed paste.
func (m *Model) openPasted(text string) {
	m.status = ""
	opened := 0
	for _, line := range strings.Split(text, "\n") {
		p := cleanDroppedPath(line)
		if !strings.EqualFold(filepath.Ext(p), ".pdf") {
			continue
		}
		if m.openPath(p) {
			opened++
		}
	}
	if opened == 0 && m.status == "" {
		m.setStatus(statusInfo, "pasted text has no PDF path")
	}
}

func cleanDroppedPath(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if rest, ok := strings.CutPrefix(s, "file://"); ok {
		if u, err := url.PathUnescape(rest); err == nil {
			rest = u
		}
		s = rest
	}
	s = strings.ReplaceAll(s, `\ `, " ")
	if rest, ok := strings.CutPrefix(s, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, rest)
		}
	}
	return s
}

func (m *Model) switchTab(forward bool) {
	var (
		next session.ID
		err  error
	)
	if forward {
		next, err = m.reg.CycleNext(m.active)
	} else {
		next, err = m.reg.CyclePrev(m.active)
	}
	if err != nil {
		m.setStatus(statusError, err.Error())
		return
	}
	m.active = next
	if _, ok := m.tracker.Frame(next); !ok {
		if s, ok := m.reg.Get(next); ok {
			m.requestCurrent(s)
		}
	}
}

// closeActive closes the selected tab; closing the last one quits.
func (m *Model) closeActive() tea.Cmd {
	id := m.active
	next, _ := m.reg.CycleNext(id)
	empty, err := m.reg.Close(id)
	m.tracker.Forget(id)
	delete(m.scroll, id)
	if err != nil {
		m.setStatus(statusError, err.Error())
	}
	if empty {
		m.hasActive = false
		m.quitting = true
		return tea.Quit
	}
	m.active = next
	if _, ok := m.tracker.Frame(next); !ok {
		if s, ok := m.reg.Get(next); ok {
			m.requestCurrent(s)
		}
	}
	return nil
}

func (m *Model) scrollBy(id session.ID, dx, dy int) {
	vpW, vpH := m.surface().ViewportPx()
	p := m.scroll[id].Add(image.Pt(dx*vpW/4, dy*vpH/4))
	m.scroll[id] = m.clampScroll(id, p)
}

func (m *Model) clampScroll(id session.ID, p image.Point) image.Point {
	f, ok := m.tracker.Frame(id)
	if !ok || f.Image == nil {
		return p
	}
	vpW, vpH := m.surface().ViewportPx()
	b := f.Image.Bounds()
	_, _, _, x := place(b.Dx(), vpW, p.X)
	_, _, _, y := place(b.Dy(), vpH, p.Y)
	return image.Pt(x, y)
}

// handleMouse drives the area-zoom drag. Surface rows start below the tab
// bar.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	surf := m.surface()
	p := image.Pt(
		min(max(msg.X, 0), max(surf.Cols-1, 0)),
		min(max(msg.Y-1, 0), max(surf.Rows-1, 0)),
	)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		m.selecting = true
		m.selection = Selection{From: p, To: p}
	case tea.MouseActionMotion:
		if m.selecting {
			m.selection.To = p
		}
	case tea.MouseActionRelease:
		if !m.selecting {
			return nil
		}
		m.selection.To = p
		m.selecting = false
		m.mode = modeReader
		m.applyAreaZoom()
		return m.flush()
	}
	return nil
}

// handleWheel zooms on ctrl+wheel and scrolls on a plain wheel.
func (m *Model) handleWheel(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || !tea.MouseEvent(msg).IsWheel() {
		return nil
	}
	s := m.current()
	if s == nil {
		return nil
	}
	var err error
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Ctrl {
			err = s.ZoomIn()
		} else {
			m.scrollBy(s.ID(), 0, -1)
		}
	case tea.MouseButtonWheelDown:
		if msg.Ctrl {
			err = s.ZoomOut()
		} else {
			m.scrollBy(s.ID(), 0, 1)
		}
	case tea.MouseButtonWheelLeft:
		m.scrollBy(s.ID(), -1, 0)
	case tea.MouseButtonWheelRight:
		m.scrollBy(s.ID(), 1, 0)
	}
	if err != nil {
		m.setStatus(statusError, err.Error())
	}
	return m.flush()
}

func (m *Model) applyAreaZoom() {
	s := m.current()
	if s == nil {
		return
	}
	surf := m.surface()
	w, h := surf.CellsToPx(m.selection.Size())
	before := s.Zoom()
	applied, err := s.AreaZoom(w, h)
	switch {
	case err != nil:
		m.setStatus(statusError, err.Error())
		return
	case !applied:
		m.setStatus(statusInfo, "selection too small")
		return
	}

	// Keep the selected corner at the top left of the zoomed view.
	f, ok := m.tracker.Frame(s.ID())
	if !ok || f.Image == nil {
		return
	}
	vpW, vpH := surf.ViewportPx()
	b := f.Image.Bounds()
	scroll := m.scroll[s.ID()]
	dx, sx, _, _ := place(b.Dx(), vpW, scroll.X)
	dy, sy, _, _ := place(b.Dy(), vpH, scroll.Y)
	corner := m.selection.Rect().Min
	cx, cy := surf.CellsToPx(corner.X, corner.Y)
	factor := s.Zoom() / before
	m.scroll[s.ID()] = image.Pt(
		int(float64(max(cx-dx, 0)+sx)*factor),
		int(float64(max(cy-dy, 0)+sy)*factor),
	)
}

func (m *Model) applyRender(res render.Result) {
	id := res.Request.SessionID
	prev, hadPrev := m.tracker.Frame(id)
	err := m.tracker.Complete(res)
	switch {
	case errors.Is(err, render.ErrStale):
		m.logger.Debug("dropping superseded render", "session", id, "page", res.Request.Page)
	case err != nil:
		m.logger.Warn("render failed", "session", id, "page", res.Request.Page, "err", err)
		m.setStatus(statusError, err.Error())
	case hadPrev && prev.Request.Page != res.Request.Page:
		delete(m.scroll, id)
	}
}
