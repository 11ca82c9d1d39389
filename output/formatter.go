package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/ClawDeck/calculations"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/snapshot"
)

const (
	separatorWidth = 60
	barWidth       = 30
)

// GroupStatus is one row of the status report
type GroupStatus struct {
	Group     models.EntityGroup `json:"group"`
	Count     int                `json:"count"`
	LastFetch time.Time          `json:"lastFetch"`
	Loading   bool               `json:"loading"`
	Error     string             `json:"error,omitempty"`
}

// StatusReport is what `status` prints
type StatusReport struct {
	Connection string                        `json:"connection"`
	Groups     []GroupStatus                 `json:"groups"`
	Sessions   []models.SessionSnapshot      `json:"sessions"`
	Agents     []models.AgentSnapshot        `json:"agents"`
	CronJobs   []models.CronJobSnapshot      `json:"cronJobs"`
	Cost       *models.CostSummary           `json:"cost,omitempty"`
	Usage      *models.SessionsUsageResponse `json:"usage,omitempty"`
	Incomplete int                           `json:"incompleteCosts"`
}

// NewStatusReport copies the store and applies recalc to its heavy groups
func NewStatusReport(store *snapshot.Store, recalc *calculations.CostRecalculator, connection string) StatusReport {
	costs := recalc.Recalculate(store.Usage(), store.Cost())

	r := StatusReport{
		Connection: connection,
		Sessions:   store.Sessions(),
		Agents:     store.Agents(),
		CronJobs:   store.CronJobs(),
		Cost:       costs.Summary,
		Usage:      costs.Usage,
		Incomplete: costs.OriginalMissing,
	}

	counts := map[models.EntityGroup]int{
		models.GroupSessions: len(r.Sessions),
		models.GroupAgents:   len(r.Agents),
		models.GroupCron:     len(r.CronJobs),
	}
	if r.Cost != nil {
		counts[models.GroupCost] = len(r.Cost.Daily)
	}
	if r.Usage != nil {
		counts[models.GroupUsage] = len(r.Usage.Sessions)
	}

	for _, g := range models.AllGroups {
		meta := store.Meta(g)
		r.Groups = append(r.Groups, GroupStatus{
			Group:     g,
			Count:     counts[g],
			LastFetch: meta.LastFetch(),
			Loading:   meta.Loading,
			Error:     meta.Error,
		})
	}
	return r
}

// ConsoleFormatter formats reports for console output
type ConsoleFormatter struct {
	location   *time.Location
	dateFormat string
	timeFormat string
	now        func() time.Time
}

// NewConsoleFormatter creates a new console formatter. An unknown timezone
// falls back to local time.
func NewConsoleFormatter(timezone, dateFormat, timeFormat string) *ConsoleFormatter {
	loc := time.Local
	if timezone != "" && timezone != "Local" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}

	return &ConsoleFormatter{
		location:   loc,
		dateFormat: dateFormat,
		timeFormat: timeFormat,
		now:        time.Now,
	}
}

// FormatStatus renders the per-group overview
func (f *ConsoleFormatter) FormatStatus(r StatusReport) string {
	var lines []string
	lines = append(lines, f.renderHeader("CLAWDECK STATUS", "gateway "+r.Connection)...)

	for _, g := range r.Groups {
		state := "ok"
		switch {
		case g.Error != "":
			state = "⚠ " + g.Error
		case g.Loading:
			state = "loading"
		case g.LastFetch.IsZero():
			state = "no data"
		}
		lines = append(lines, fmt.Sprintf("%-10s %6d   %-10s %s",
			g.Group, g.Count, f.formatAge(g.LastFetch), state))
	}
	lines = append(lines, strings.Repeat("─", separatorWidth))

	running := 0
	for _, s := range r.Sessions {
		if s.Running {
			running++
		}
	}
	lines = append(lines, fmt.Sprintf("Sessions:  %d (%d running)", len(r.Sessions), running))
	lines = append(lines, fmt.Sprintf("Agents:    %d", len(r.Agents)))
	lines = append(lines, fmt.Sprintf("Cron:      %d", len(r.CronJobs)))
	if r.Cost != nil {
		lines = append(lines, fmt.Sprintf("Cost:      %s over %d days%s",
			formatCost(r.Cost.Totals.TotalCost), r.Cost.Days, estimatedMark(r.Cost.Totals)))
	}
	if r.Incomplete > 0 {
		lines = append(lines, incompleteWarning(r.Incomplete))
	}

	return strings.Join(lines, "\n")
}

// CostReport is what `cost` prints
type CostReport struct {
	Days       int                           `json:"days"`
	Summary    *models.CostSummary           `json:"summary"`
	Usage      *models.SessionsUsageResponse `json:"usage,omitempty"`
	UpdatedAt  time.Time                     `json:"updatedAt"`
	Stale      bool                          `json:"stale"`
	Incomplete int                           `json:"incompleteCosts"`
}

// FormatCost renders totals, a per-model share and the daily series
func (f *ConsoleFormatter) FormatCost(r CostReport) string {
	subtitle := fmt.Sprintf("last %d days | updated %s", r.Days, f.formatAge(r.UpdatedAt))
	if r.Stale {
		subtitle += " (stale)"
	}

	var lines []string
	lines = append(lines, f.renderHeader("COST SUMMARY", subtitle)...)

	if r.Summary == nil {
		lines = append(lines, "No cost data")
		return strings.Join(lines, "\n")
	}

	t := r.Summary.Totals
	lines = append(lines, fmt.Sprintf("💰 Total:       %s%s", formatCost(t.TotalCost), estimatedMark(t)))
	lines = append(lines, fmt.Sprintf("   Input:       %-14s %s", formatTokens(t.Input), formatCost(t.InputCost)))
	lines = append(lines, fmt.Sprintf("   Output:      %-14s %s", formatTokens(t.Output), formatCost(t.OutputCost)))
	lines = append(lines, fmt.Sprintf("   Cache read:  %-14s %s", formatTokens(t.CacheRead), formatCost(t.CacheReadCost)))
	lines = append(lines, fmt.Sprintf("   Cache write: %-14s %s", formatTokens(t.CacheWrite), formatCost(t.CacheWriteCost)))

	if r.Usage != nil && len(r.Usage.Aggregates.ByModel) > 0 {
		lines = append(lines, "")
		lines = append(lines, "🤖 By model:")
		lines = append(lines, f.renderModelShare(r.Usage.Aggregates.ByModel)...)
	}

	if len(r.Summary.Daily) > 0 {
		lines = append(lines, "")
		lines = append(lines, "📅 Daily:")
		for _, d := range r.Summary.Daily {
			lines = append(lines, fmt.Sprintf("   %s  %10s%s", d.Date, formatCost(d.TotalCost), estimatedMark(d.CostTotals)))
		}
	}

	if r.Incomplete > 0 {
		lines = append(lines, "")
		lines = append(lines, incompleteWarning(r.Incomplete))
	}

	return strings.Join(lines, "\n")
}

// FormatCronJobs renders the job list
func (f *ConsoleFormatter) FormatCronJobs(jobs []models.CronJobSnapshot) string {
	if len(jobs) == 0 {
		return "No cron jobs"
	}

	lines := []string{fmt.Sprintf("%-20s %-16s %-8s %-10s %s", "ID", "SCHEDULE", "ENABLED", "STATE", "LAST RUN")}
	for _, j := range jobs {
		state := string(j.State)
		if state == "" {
			state = "-"
		}
		last := "never"
		if j.LastRunMs > 0 {
			last = f.formatTime(time.UnixMilli(j.LastRunMs))
			if j.LastStatus != "" {
				last += " (" + j.LastStatus + ")"
			}
		}
		lines = append(lines, fmt.Sprintf("%-20s %-16s %-8t %-10s %s",
			truncate(j.ID, 20), truncate(j.Schedule, 16), j.Enabled, state, last))
	}
	return strings.Join(lines, "\n")
}

// FormatRuns renders the run history of one job
func (f *ConsoleFormatter) FormatRuns(list *models.CronRunList) string {
	if list == nil || len(list.Runs) == 0 {
		return "No runs"
	}

	lines := []string{fmt.Sprintf("Runs of %s:", list.JobID)}
	for _, run := range list.Runs {
		line := fmt.Sprintf("  %s  %-9s", f.formatTime(time.UnixMilli(run.StartedAtMs)), run.Status)
		if run.FinishedAtMs > 0 {
			line += fmt.Sprintf(" %s", time.Duration(run.FinishedAtMs-run.StartedAtMs)*time.Millisecond)
		}
		if run.Error != "" {
			line += "  " + run.Error
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// FormatRange renders an applied time range
func (f *ConsoleFormatter) FormatRange(tr models.TimeRange) string {
	days := tr.Days(f.now().In(f.location))
	if tr.Preset == models.RangeCustom {
		return fmt.Sprintf("custom %s .. %s (%d days)", tr.Custom.Start, tr.Custom.End, days)
	}
	preset := tr.Preset
	if preset == "" {
		preset = models.DefaultRangePreset
	}
	return fmt.Sprintf("%s (%d days)", preset, days)
}

// WriteJSON writes v as indented JSON followed by a newline
func WriteJSON(w io.Writer, v any) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// renderHeader renders the title block
func (f *ConsoleFormatter) renderHeader(title, subtitle string) []string {
	return []string{
		fmt.Sprintf("✦ %s ✦", title),
		strings.Repeat("=", separatorWidth),
		fmt.Sprintf("[ %s | %s ]", subtitle, f.location),
	}
}

// renderModelShare renders one bar per model, largest cost first
func (f *ConsoleFormatter) renderModelShare(entries []models.ByModelEntry) []string {
	sorted := append([]models.ByModelEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Totals.TotalCost > sorted[j].Totals.TotalCost
	})

	total := 0.0
	for _, e := range sorted {
		total += e.Totals.TotalCost
	}

	lines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		pct := 0.0
		if total > 0 {
			pct = e.Totals.TotalCost / total * 100
		}
		lines = append(lines, fmt.Sprintf("   %-28s %s %5.1f%% %10s%s",
			truncate(e.Model, 28), renderProgressBar(pct), pct, formatCost(e.Totals.TotalCost), estimatedMark(e.Totals)))
	}
	return lines
}

// renderProgressBar renders a fixed-width bar for percentage
func renderProgressBar(percentage float64) string {
	filled := int(percentage * float64(barWidth) / 100)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

func (f *ConsoleFormatter) formatTime(t time.Time) string {
	return t.In(f.location).Format(f.dateFormat + " " + f.timeFormat)
}

func (f *ConsoleFormatter) formatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := f.now().Sub(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", max(int(d.Seconds()), 0))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return f.formatTime(t)
	}
}

func estimatedMark(t models.CostTotals) string {
	if t.Estimated {
		return " ~"
	}
	return ""
}

func incompleteWarning(n int) string {
	return fmt.Sprintf("⚠ some costs may be incomplete (%d)", n)
}

func formatCost(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// formatTokens renders a token count with thousands separators
func formatTokens(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
