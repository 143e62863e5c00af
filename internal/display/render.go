package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/conductor/internal/coordinator"
	"github.com/Iron-Ham/conductor/internal/effort"
	"github.com/Iron-Ham/conductor/internal/session"
	"github.com/Iron-Ham/conductor/internal/signal"
	"github.com/Iron-Ham/conductor/internal/util"
)

// Renderer turns engine data into terminal output. Plain mode emits no
// escape sequences and truncates by rune count; styled mode truncates
// with ANSI-aware measurement. MaxWidth of zero means no truncation.
type Renderer struct {
	Plain    bool
	MaxWidth int
}

// render applies a style unless running plain.
func (r *Renderer) render(style lipgloss.Style, s string) string {
	if r.Plain {
		return s
	}
	return style.Render(s)
}

func (r *Renderer) line(b *strings.Builder, s string) {
	if r.MaxWidth > 0 {
		if r.Plain {
			s = util.TruncateString(s, r.MaxWidth)
		} else {
			s = util.TruncateANSI(s, r.MaxWidth)
		}
	}
	b.WriteString(s)
	b.WriteString("\n")
}

// Status renders the coordinator's summary view.
func (r *Renderer) Status(s *coordinator.Summary) string {
	var b strings.Builder

	if !s.Started {
		r.line(&b, r.render(titleStyle, s.EffortID))
		r.line(&b, r.render(mutedStyle, "not yet started (no state document)"))
		return b.String()
	}

	statusStyle, ok := effortStatusStyles[s.Status]
	if !ok {
		statusStyle = mutedStyle
	}
	r.line(&b, fmt.Sprintf("%s  %s  %s",
		r.render(titleStyle, s.EffortID),
		r.render(statusStyle, string(s.Status)),
		r.render(mutedStyle, fmt.Sprintf("%d/%d sessions completed", s.CompletedCount(), s.TotalCount()))))

	for _, phase := range s.Phases {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, fmt.Sprintf("Phase %d", phase.Phase)))
		for _, sess := range phase.Sessions {
			r.line(&b, r.sessionLine(sess))
		}
	}

	if len(s.Questions) > 0 {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, "Questions"))
		for _, q := range s.Questions {
			line := fmt.Sprintf("  %s %s", r.render(questionStyle, "?"),
				fmt.Sprintf("[%s] %s", q.SessionID, q.Text))
			if len(q.Options) > 0 {
				line += r.render(mutedStyle, " ("+strings.Join(q.Options, " / ")+")")
			}
			r.line(&b, line)
		}
	}

	if s.LatestSignal != nil {
		r.line(&b, "")
		r.line(&b, r.render(mutedStyle, "last signal: ")+r.SignalLine(s.LatestSignal))
	}
	return b.String()
}

func (r *Renderer) sessionLine(sess coordinator.SessionSummary) string {
	style, ok := sessionStatusStyles[sess.Status]
	if !ok {
		style = mutedStyle
	}

	line := fmt.Sprintf("  %s %-6s %s",
		r.render(style, statusGlyph(sess.Status)),
		sess.ID,
		r.render(style, string(sess.Status)))
	if sess.Title != "" {
		line += "  " + sess.Title
	}
	if sess.IterationCount > 0 {
		line += r.render(mutedStyle, fmt.Sprintf("  iteration %d", sess.IterationCount))
	}
	if sess.Escalated {
		line += "  " + r.render(badgeStyle, "[escalated]")
	}
	if sess.Status == effort.SessionCompleted && sess.ResultRef != "" {
		line += r.render(mutedStyle, "  → "+sess.ResultRef)
	}
	return line
}

// SignalLine renders one signal as a single line.
func (r *Renderer) SignalLine(sig *signal.Signal) string {
	detail := ""
	switch sig.Type {
	case signal.KindSessionDone:
		detail = sig.Payload.String(signal.PayloadResult)
	case signal.KindRevisionNeeded:
		detail = sig.Payload.String(signal.PayloadIssues)
	case signal.KindEscalationNeeded:
		detail = sig.Payload.String(signal.PayloadReason)
	case signal.KindQuestion:
		detail = sig.Payload.String(signal.PayloadQuestion)
	case signal.KindSessionStarted:
		detail = sig.Payload.String(signal.PayloadBaseline)
	}

	line := fmt.Sprintf("%s  %-17s %s",
		r.render(mutedStyle, sig.Timestamp.UTC().Format(time.RFC3339)),
		sig.Type,
		sig.SessionID)
	if detail != "" {
		line += r.render(mutedStyle, "  "+detail)
	}
	return line
}

// Review renders a session's full review packet: the whole
// multi-iteration life of the session, not just its last increment.
func (r *Renderer) Review(p *session.ReviewPacket) string {
	var b strings.Builder
	rec := p.Session

	style, ok := sessionStatusStyles[rec.Status]
	if !ok {
		style = mutedStyle
	}
	title := fmt.Sprintf("%s / session %s", p.EffortID, rec.ID)
	r.line(&b, r.render(titleStyle, title))
	r.line(&b, fmt.Sprintf("status: %s  audit: %s  iterations: %d",
		r.render(style, string(rec.Status)), rec.AuditResult, rec.IterationCount))
	if rec.BaselineRef != "" {
		r.line(&b, r.render(mutedStyle, "baseline: ")+rec.BaselineRef)
	}

	if len(p.Results) > 0 {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, "Results since baseline"))
		for i, result := range p.Results {
			marker := " "
			if i == len(p.Results)-1 {
				marker = "*"
			}
			r.line(&b, fmt.Sprintf("  %s %s", marker, result))
		}
	}

	if len(p.Issues) > 0 {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, "Issues per iteration"))
		for i, issues := range p.Issues {
			r.line(&b, fmt.Sprintf("  %d. %s", i+1, issues))
		}
	}

	if len(p.Questions) > 0 {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, "Questions"))
		for _, q := range p.Questions {
			line := "  ? " + q.Text
			if len(q.Options) > 0 {
				line += r.render(mutedStyle, " ("+strings.Join(q.Options, " / ")+")")
			}
			r.line(&b, line)
		}
	}

	if len(p.Escalations) > 0 {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, "Escalations"))
		for _, esc := range p.Escalations {
			r.line(&b, fmt.Sprintf("  %s %s", r.render(badgeStyle, "!"), esc.Reason))
		}
	}

	if len(p.History) > 0 {
		r.line(&b, "")
		r.line(&b, r.render(headerStyle, "History"))
		for _, change := range p.History {
			r.line(&b, "  "+r.HistoryLine(change))
		}
	}
	return b.String()
}

// HistoryLine renders one state-change entry.
func (r *Renderer) HistoryLine(change effort.StateChange) string {
	var details []string
	for _, key := range []string{"from", "to", "result", "iteration", "reason", "issues_file", "question"} {
		if v, ok := change.Detail[key]; ok && v != "" {
			details = append(details, key+"="+v)
		}
	}
	line := fmt.Sprintf("%s  %s",
		r.render(mutedStyle, change.At.UTC().Format(time.RFC3339)),
		change.Action)
	if len(details) > 0 {
		line += r.render(mutedStyle, "  "+strings.Join(details, " "))
	}
	return line
}

// Checkpoint renders a continuity checkpoint for the show command.
func (r *Renderer) Checkpoint(cp *coordinator.Checkpoint) string {
	var b strings.Builder
	r.line(&b, r.render(titleStyle, fmt.Sprintf("checkpoint %d for %s", cp.Generation, cp.EffortID)))
	r.line(&b, fmt.Sprintf("written: %s  status: %s", cp.WrittenAt.UTC().Format(time.RFC3339), cp.EffortStatus))
	r.line(&b, "reason: "+cp.Reason)
	if cp.CurrentSession != "" {
		r.line(&b, "current session: "+cp.CurrentSession.String())
	}
	if len(cp.OpenQuestions) > 0 {
		r.line(&b, r.render(headerStyle, "Open questions"))
		for _, q := range cp.OpenQuestions {
			r.line(&b, "  ? "+q)
		}
	}
	r.line(&b, "")
	b.WriteString(cp.Narrative)
	b.WriteString("\n")
	return b.String()
}
