// Package render formats reports, models and session statistics as text tables
// for the command line.
package render

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"bimsight/internal/domain"
	"bimsight/internal/index"
	"bimsight/internal/service"
)

// Evaluation renders the matches of one evaluated frame followed by its totals
func Evaluation(eval *service.Evaluation) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Frame %d (session %s)", eval.Frame, eval.Session))
	t.AppendHeader(table.Row{"#", "Class", "Category", "Position", "Element", "Deviation", "Alert"})

	report := eval.Report
	for i, m := range report.Matches {
		element, deviation, alert := "-", "-", ""
		if m.Element != nil {
			element = elementLabel(*m.Element)
		}
		if m.Deviation != nil {
			deviation = fmt.Sprintf("%.1f", *m.Deviation)
		}
		if m.Alert {
			alert = "!"
		}
		t.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			m.Detection.Class,
			string(m.Category),
			point(m.Detection.Position),
			element,
			deviation,
			alert,
		})
	}

	t.AppendFooter(table.Row{"", "Score", fmt.Sprintf("%.1f", report.Score), report.Status.Label(),
		"Smoothed", fmt.Sprintf("%.1f", eval.SmoothedScore), eval.SmoothedStatus.Label()})
	t.AppendFooter(table.Row{"", "Matched", strconv.Itoa(report.Matched), "Unmatched", strconv.Itoa(report.Unmatched),
		"Alerts", strconv.Itoa(len(report.Alerts))})
	return t.Render()
}

// Model renders the reference index, one row per element
func Model(snap index.Snapshot) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Reference model: %d elements, %d dropped", snap.Total, snap.Dropped))
	t.AppendHeader(table.Row{"#", "Category", "ID", "Name", "Expected position"})

	n := 0
	for _, cat := range []domain.Category{domain.CategoryWall, domain.CategoryBeam, domain.CategoryOther} {
		for _, el := range snap.Elements[cat] {
			n++
			t.AppendRow(table.Row{strconv.Itoa(n), string(cat), el.ID, el.Name, point(el.Expected)})
		}
	}
	return t.Render()
}

// Summary renders the stored statistics of a session
func Summary(s *domain.Summary) string {
	t := table.NewWriter()
	t.SetTitle("Session " + s.SessionID)
	t.AppendHeader(table.Row{"Samples", "Mean", "Min", "Max", "Std dev", "Status"})
	t.AppendRow(table.Row{
		strconv.Itoa(s.Samples),
		fmt.Sprintf("%.1f", s.Mean),
		fmt.Sprintf("%.1f", s.Min),
		fmt.Sprintf("%.1f", s.Max),
		fmt.Sprintf("%.2f", s.StdDev),
		domain.ClassifyScore(s.Mean).Label(),
	})
	return t.Render()
}

// Sessions renders the list of stored sessions
func Sessions(sessions []domain.SessionInfo) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Session", "Samples", "Created", "Last capture"})
	for _, s := range sessions {
		t.AppendRow(table.Row{
			s.ID,
			strconv.Itoa(s.Samples),
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			s.LastCaptureAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return t.Render()
}

func elementLabel(el domain.ReferenceElement) string {
	if el.ID != "" {
		return el.ID
	}
	return el.Name
}

func point(p domain.Point) string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// Samples renders stored samples, oldest first
func Samples(samples []*domain.Sample) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Captured", "Score", "Status", "Detections", "Alerts", "ID"})
	for _, s := range samples {
		t.AppendRow(table.Row{
			s.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f", s.Score),
			s.Status.Label(),
			strconv.Itoa(s.DetectionCount),
			strconv.Itoa(s.AlertCount),
			s.ID,
		})
	}
	return t.Render()
}
