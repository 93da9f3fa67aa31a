package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/tabreader/internal/session"
	"github.com/jask/tabreader/internal/zoom"
)

const sliderWidth = 12

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.renderBody(),
		m.renderStatus(),
		m.renderFooter(),
	)
}

func (m *Model) renderTabs() string {
	sessions := m.reg.Sessions()
	if len(sessions) == 0 {
		return tabBarStyle.Width(m.width).Render(" tabreader")
	}
	// two cells of padding per tab
	maxTitle := max(m.width/len(sessions)-2, 8)
	tabs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		title := ansi.Truncate(s.Title(), maxTitle, "…")
		if m.hasActive && s.ID() == m.active {
			tabs = append(tabs, tabActiveStyle.Render(title))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(title))
		}
	}
	row := ansi.Truncate(lipgloss.JoinHorizontal(lipgloss.Top, tabs...), m.width, "")
	return tabBarStyle.Width(m.width).Render(row)
}

func (m *Model) renderBody() string {
	surf := m.surface()
	if surf.Rows == 0 {
		return ""
	}
	if m.mode == modeRecent {
		return lipgloss.Place(surf.Cols, surf.Rows, lipgloss.Center, lipgloss.Center, m.renderRecent())
	}
	s := m.current()
	if s == nil {
		msg := emptyStyle.Render("no document open\n\no open   r recent   q quit")
		return lipgloss.Place(surf.Cols, surf.Rows, lipgloss.Center, lipgloss.Center, msg)
	}
	f, ok := m.tracker.Frame(s.ID())
	if !ok || f.Image == nil {
		return lipgloss.Place(surf.Cols, surf.Rows, lipgloss.Center, lipgloss.Center, emptyStyle.Render("rendering..."))
	}
	raster, _ := surf.Compose(f.Image, m.scroll[s.ID()])
	if m.mode == modeAreaZoom && (m.selecting || m.selection != (Selection{})) {
		Outline(raster, m.selection, rgba(colorFocus))
	}
	return Cells(raster)
}

func (m *Model) renderRecent() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Recent files"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	width := max(min(m.width-8, 72), 10)
	if len(m.recentItems) == 0 {
		b.WriteString(emptyStyle.Render("no match"))
	}
	for i, p := range m.recentItems {
		line := ansi.Truncate(p, width, "…")
		if i == m.recentCursor {
			b.WriteString(pickerCursorStyle.Render(line))
		} else {
			b.WriteString(pickerItemStyle.Render(line))
		}
		if i < len(m.recentItems)-1 {
			b.WriteString("\n")
		}
	}
	return pickerBoxStyle.Render(b.String())
}

func (m *Model) renderStatus() string {
	var parts []string
	if s := m.current(); s != nil {
		parts = append(parts,
			statusPageStyle.Render(pageLabel(s)),
			statusZoomStyle.Render(fmt.Sprintf("%d%%", zoom.Percent(s.Zoom()))),
			renderSlider(s.SliderValue()),
		)
	}
	if m.status != "" {
		switch m.statusKind {
		case statusError:
			parts = append(parts, errStyle.Render(m.status))
		case statusWarn:
			parts = append(parts, warnStyle.Render(m.status))
		default:
			parts = append(parts, infoStyle.Render(m.status))
		}
	}
	row := ansi.Truncate(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width, "…")
	return statusStyle.Width(m.width).Render(row)
}

func pageLabel(s *session.Session) string {
	return fmt.Sprintf("Page %d/%d", s.Page()+1, s.PageCount())
}

func renderSlider(value int) string {
	filled := (value - zoom.SliderMin) * sliderWidth / (zoom.SliderMax - zoom.SliderMin)
	filled = min(max(filled, 0), sliderWidth)
	return " " + sliderFillStyle.Render(strings.Repeat("━", filled)) +
		sliderTrackStyle.Render(strings.Repeat("─", sliderWidth-filled)) + " "
}

func (m *Model) renderFooter() string {
	hints := m.help.ShortHelpView(m.keys.HelpBindings(m.mode.scope()))
	switch m.mode {
	case modePageInput, modeOpenInput:
		return ansi.Truncate(m.input.View()+"  "+hints, m.width, "…")
	}
	return ansi.Truncate(hints, m.width, "…")
}
