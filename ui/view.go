package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/penwyp/ClawDeck/models"
)

// View renders the model
func (m Model) View() string {
	sections := []string{m.renderHeader()}
	if banners := m.renderBanners(); banners != "" {
		sections = append(sections, banners)
	}

	switch m.view {
	case ViewSessions:
		sections = append(sections, m.renderSessions())
	case ViewCron:
		sections = append(sections, m.renderCron())
	case ViewAnalytics:
		sections = append(sections, m.renderAnalytics())
	case ViewHelp:
		sections = append(sections, m.renderHelp())
	default:
		sections = append(sections, m.renderOverview())
	}

	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, ViewHelp)
	for v := ViewOverview; v < ViewHelp; v++ {
		style := m.styles.Tab
		if v == m.view {
			style = m.styles.TabActive
		}
		tabs = append(tabs, style.Render(v.String()))
	}

	right := ""
	if m.src.Connection != nil {
		right = m.styles.Muted.Render(m.src.Connection())
	}
	if m.config.ShowSpinner && m.Loading() {
		right = m.spinner.View() + " " + right
	}

	return m.styles.Header.Render(
		m.styles.Title.Render("ClawDeck") + "  " + strings.Join(tabs, "") + "  " + right,
	)
}

// renderBanners shows one line per failed group plus the incomplete cost warning
func (m Model) renderBanners() string {
	var lines []string
	for _, g := range models.AllGroups {
		if meta := m.data.meta[g]; meta.HasError() {
			lines = append(lines, m.styles.Error.Render(fmt.Sprintf("⚠ %s: %s", g, meta.Error)))
		}
	}
	if n := m.IncompleteCosts(); n > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("some costs may be incomplete (%d)", n)))
	}
	if len(lines) == 0 {
		return ""
	}
	return m.styles.Banner.Render(strings.Join(lines, "\n"))
}

func (m Model) renderOverview() string {
	running := 0
	for _, s := range m.data.sessions {
		if s.Running {
			running++
		}
	}
	activeJobs := 0
	for _, j := range m.data.cron {
		if j.State == models.CronRunning {
			activeJobs++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d (%d running)\n", m.styles.Bold.Render("Sessions:"), len(m.data.sessions), running)
	fmt.Fprintf(&b, "%s %d\n", m.styles.Bold.Render("Agents:  "), len(m.data.agents))
	fmt.Fprintf(&b, "%s %d (%d running)\n", m.styles.Bold.Render("Cron:    "), len(m.data.cron), activeJobs)

	if cost := m.data.costs.Summary; cost != nil {
		fmt.Fprintf(&b, "%s %s over %d days, %s tokens",
			m.styles.Bold.Render("Cost:    "),
			formatCost(cost.Totals.TotalCost), cost.Days, formatTokens(cost.Totals.Tokens()))
		if cost.Totals.Estimated {
			b.WriteString(m.styles.Muted.Render(" (estimated)"))
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "%s %s\n", m.styles.Bold.Render("Cost:    "), m.groupPlaceholder(models.GroupCost))
	}

	if usage := m.data.costs.Usage; usage != nil {
		fmt.Fprintf(&b, "%s %s across %d sessions",
			m.styles.Bold.Render("Usage:   "), formatCost(usage.Totals.TotalCost), len(usage.Sessions))
	} else {
		fmt.Fprintf(&b, "%s %s", m.styles.Bold.Render("Usage:   "), m.groupPlaceholder(models.GroupUsage))
	}

	return m.styles.Panel.Render(b.String())
}

// groupPlaceholder is shown when a group has no data yet
func (m Model) groupPlaceholder(g models.EntityGroup) string {
	meta := m.data.meta[g]
	switch {
	case meta.Loading:
		return m.styles.Muted.Render("loading...")
	case meta.HasError():
		return m.styles.Error.Render("unavailable")
	default:
		return m.styles.Muted.Render("no data")
	}
}

func (m Model) renderSessions() string {
	if len(m.data.sessions) == 0 {
		return m.styles.Panel.Render(m.groupPlaceholder(models.GroupSessions))
	}

	now := time.Now()
	var b strings.Builder
	b.WriteString(m.styles.TableHeader.Render(fmt.Sprintf("%-28s %-22s %-8s %10s %10s", "SESSION", "MODEL", "STATE", "TOKENS", "ACTIVE")))
	for _, s := range m.data.sessions {
		name := s.Label
		if name == "" {
			name = s.Key
		}
		stateLabel := "idle"
		if s.Running {
			stateLabel = "running"
		}
		row := fmt.Sprintf("%-28s %-22s %-8s %10s %10s",
			truncate(name, 28), truncate(s.Model, 22), stateLabel, formatTokens(s.TotalTokens), formatAge(s.LastActiveMs, now))
		b.WriteString("\n")
		if s.Running {
			b.WriteString(m.styles.Success.Render(row))
		} else {
			b.WriteString(m.styles.TableRow.Render(row))
		}
	}
	b.WriteString("\n" + m.styles.Muted.Render("updated "+formatAge(m.data.meta[models.GroupSessions].LastFetchMs, now)))
	return m.styles.Panel.Render(b.String())
}

func (m Model) renderCron() string {
	if len(m.data.cron) == 0 {
		return m.styles.Panel.Render(m.groupPlaceholder(models.GroupCron))
	}

	now := time.Now()
	var b strings.Builder
	b.WriteString(m.styles.TableHeader.Render(fmt.Sprintf("  %-24s %-16s %-8s %12s %-8s", "JOB", "SCHEDULE", "STATE", "LAST RUN", "STATUS")))
	for i, j := range m.data.cron {
		name := j.Name
		if name == "" {
			name = j.ID
		}
		state := string(j.State)
		if state == "" {
			state = string(models.CronIdle)
		}
		if !j.Enabled {
			state = "disabled"
		}
		row := fmt.Sprintf("%-24s %-16s %-8s %12s %-8s",
			truncate(name, 24), truncate(j.Schedule, 16), state, formatAge(j.LastRunMs, now), j.LastStatus)
		b.WriteString("\n")
		if i == m.cronCursor {
			b.WriteString(m.styles.Selected.Render("› " + row))
		} else {
			b.WriteString(m.styles.TableRow.Render("  " + row))
		}
	}

	if runs := m.renderRuns(now); runs != "" {
		b.WriteString("\n\n" + runs)
	}
	return m.styles.Panel.Render(b.String())
}

// renderRuns shows the loaded history only while it belongs to the selected job
func (m Model) renderRuns(now time.Time) string {
	if m.src.Cron == nil {
		return ""
	}
	loader := m.src.Cron.Runs()
	jobID, runs, err := loader.Current()
	job, ok := m.SelectedJob()
	if jobID == "" || !ok || job.ID != jobID {
		return ""
	}
	if loader.Loading() {
		return m.styles.Muted.Render("loading run history...")
	}
	if err != nil {
		return m.styles.Error.Render("run history: " + err.Error())
	}
	if runs == nil || len(runs.Runs) == 0 {
		return m.styles.Muted.Render("no runs recorded")
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Recent runs"))
	for i, r := range runs.Runs {
		if i == 10 {
			break
		}
		line := fmt.Sprintf("%-10s %-10s", formatAge(r.StartedAtMs, now), r.Status)
		if r.Error != "" {
			line += " " + truncate(r.Error, 40)
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}

func (m Model) renderAnalytics() string {
	page := m.src.Analytics
	if page == nil {
		return m.styles.Panel.Render(m.styles.Muted.Render("analytics unavailable"))
	}

	v := m.analytics
	var b strings.Builder

	selected := page.Selected()
	fmt.Fprintf(&b, "%s %s", m.styles.Bold.Render("Range:"), v.Range.Preset)
	if selected.Preset != v.Range.Preset {
		fmt.Fprintf(&b, "  %s", m.styles.Warning.Render(fmt.Sprintf("→ %s (enter to apply)", selected.Preset)))
	}
	if v.Refreshing {
		b.WriteString("  " + m.styles.Muted.Render("refreshing..."))
	}
	b.WriteString("\n")

	if !v.Loaded() {
		b.WriteString(m.styles.Muted.Render("no analytics yet"))
		return m.styles.Panel.Render(b.String())
	}
	if v.Err != nil {
		b.WriteString(m.styles.Error.Render("last refresh failed: "+v.Err.Error()) + "\n")
	}

	if s := v.Summary; s != nil {
		fmt.Fprintf(&b, "%s %s, %s tokens\n", m.styles.Bold.Render("Total:"), formatCost(s.Totals.TotalCost), formatTokens(s.Totals.Tokens()))
		days := s.Daily
		if len(days) > 7 {
			days = days[len(days)-7:]
		}
		for _, d := range days {
			mark := ""
			if d.Estimated {
				mark = "~"
			}
			fmt.Fprintf(&b, "  %s %10s%s %10s\n", d.Date, formatCost(d.TotalCost), mark, formatTokens(d.Tokens()))
		}
	}

	if u := v.Usage; u != nil && len(u.Aggregates.ByModel) > 0 {
		b.WriteString(m.styles.Subtitle.Render("By model") + "\n")
		for _, e := range u.Aggregates.ByModel {
			cost := formatCost(e.Totals.TotalCost)
			if e.Totals.MissingCostEntries > 0 {
				cost = m.styles.Warning.Render(cost + "+")
			}
			fmt.Fprintf(&b, "  %-28s %10s %10s\n", truncate(e.Model, 28), cost, formatTokens(e.Totals.Tokens()))
		}
	}
	if !v.UpdatedAt.IsZero() {
		b.WriteString(m.styles.Muted.Render("updated " + formatAge(v.UpdatedAt.UnixMilli(), time.Now())))
	}
	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Keys") + "\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderFooter() string {
	parts := make([]string, 0, 4)
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	footer := strings.Join(parts, " • ")

	if m.status != "" {
		style := m.styles.Muted
		if m.statusErr {
			style = m.styles.Error
		}
		footer = style.Render(m.status) + "  " + footer
	}
	return m.styles.Footer.Render(footer)
}
