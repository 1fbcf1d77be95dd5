// Package report summarizes delegation discipline for a change: how much
// work went through sub-agents, what was blocked, and which violations were
// recorded along the way.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/liwei-chen/wfgate/internal/eventlog"
	"github.com/liwei-chen/wfgate/internal/state"
	"github.com/liwei-chen/wfgate/internal/util"
)

// Report is a computed delegation summary.
type Report struct {
	ChangeID string
	Phase    string

	Delegated   int
	DirectEdits int
	Blocked     int
	Bypassed    int

	Pending    eventlog.Pending
	Violations []eventlog.Violation
}

// Build assembles a Report from the state document and the violation stream.
func Build(st *state.WorkflowState, violations []eventlog.Violation, pending eventlog.Pending) *Report {
	return &Report{
		ChangeID:    st.ChangeID,
		Phase:       string(st.Phase),
		Delegated:   st.Ops.Delegated,
		DirectEdits: st.Ops.DirectEdits,
		Blocked:     st.Ops.Blocked,
		Bypassed:    st.Ops.Bypassed,
		Pending:     pending,
		Violations:  violations,
	}
}

// DelegationRate is the share of operations that went through sub-agents.
// Returns 1 when no operations were recorded at all.
func (r *Report) DelegationRate() float64 {
	total := r.Delegated + r.DirectEdits
	if total == 0 {
		return 1
	}
	return float64(r.Delegated) / float64(total)
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Render produces the styled terminal report.
func (r *Report) Render() string {
	var b strings.Builder

	header := "Delegation Report"
	if r.ChangeID != "" {
		header += "  " + dimStyle.Render(r.ChangeID)
	}
	b.WriteString(titleStyle.Render(header) + "\n")
	b.WriteString(dimStyle.Render("phase: "+r.Phase) + "\n\n")

	rate := r.DelegationRate()
	rateStr := fmt.Sprintf("%.0f%%", rate*100)
	switch {
	case rate >= 0.9:
		rateStr = goodStyle.Render(rateStr)
	case rate >= 0.5:
		rateStr = warnStyle.Render(rateStr)
	default:
		rateStr = badStyle.Render(rateStr)
	}

	b.WriteString(fmt.Sprintf("  delegated     %d\n", r.Delegated))
	b.WriteString(fmt.Sprintf("  direct edits  %d\n", r.DirectEdits))
	b.WriteString(fmt.Sprintf("  blocked       %d\n", r.Blocked))
	if r.Bypassed > 0 {
		b.WriteString(fmt.Sprintf("  bypassed      %d\n", r.Bypassed))
	}
	b.WriteString(fmt.Sprintf("  delegation rate %s\n", rateStr))

	if r.Pending.Edits > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("%d unreviewed edits", r.Pending.Edits)) + "\n")
		for _, f := range r.Pending.Files {
			b.WriteString(dimStyle.Render("  "+util.TruncateString(f, 72)) + "\n")
		}
	}

	if len(r.Violations) > 0 {
		b.WriteString("\n" + titleStyle.Render(fmt.Sprintf("Violations (%d)", len(r.Violations))) + "\n")
		for _, v := range r.Violations {
			style := warnStyle
			if v.Severity == "error" {
				style = badStyle
			}
			b.WriteString(fmt.Sprintf("  %s %s\n",
				style.Render(v.Type), util.TruncateString(v.Message, 80)))
		}
	} else {
		b.WriteString("\n" + goodStyle.Render("No violations recorded") + "\n")
	}

	return b.String()
}

// Summary produces the single-line plain form used as a systemMessage.
func (r *Report) Summary() string {
	return fmt.Sprintf("delegated %d, direct %d, blocked %d, violations %d, delegation rate %.0f%%",
		r.Delegated, r.DirectEdits, r.Blocked, len(r.Violations), r.DelegationRate()*100)
}
