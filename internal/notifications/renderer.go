package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/opsdesk/opsdesk/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Renderer composes notification subjects, inbox messages and email bodies.
type Renderer struct {
	templates map[domain.NotificationKind]*template.Template
}

// NewRenderer creates a new renderer and loads all templates.
func NewRenderer() (*Renderer, error) {
	kinds := []domain.NotificationKind{
		domain.NotificationCreated,
		domain.NotificationAssigned,
		domain.NotificationStatusChanged,
		domain.NotificationSLAWarning,
		domain.NotificationSLABreach,
		domain.NotificationResolved,
		domain.NotificationDailySummary,
	}

	funcMap := template.FuncMap{
		"title":      titleCase,
		"lower":      strings.ToLower,
		"formatTime": formatTime,
	}

	r := &Renderer{templates: make(map[domain.NotificationKind]*template.Template)}
	for _, kind := range kinds {
		name := "email_" + strings.ReplaceAll(string(kind), "-", "_")
		filename := fmt.Sprintf("templates/%s.tmpl", name)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

// Render produces the email subject and body for an event.
func (r *Renderer) Render(ev Event) (subject, body string, err error) {
	tmpl, ok := r.templates[ev.Kind]
	if !ok {
		return "", "", fmt.Errorf("template not found for kind %s", ev.Kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ev.Payload); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", ev.Kind, err)
	}

	return r.Subject(ev), strings.TrimSpace(buf.String()), nil
}

// Subject builds the subject line shared by email and the inbox title.
func (r *Renderer) Subject(ev Event) string {
	p := ev.Payload
	switch ev.Kind {
	case domain.NotificationCreated:
		return fmt.Sprintf("[%s] New %s incident: %s", p.IncidentNumber, p.Severity, p.Title)
	case domain.NotificationAssigned:
		return fmt.Sprintf("[%s] Assigned to you: %s", p.IncidentNumber, p.Title)
	case domain.NotificationStatusChanged:
		return fmt.Sprintf("[%s] Status: %s", p.IncidentNumber, titleCase(string(p.NewStatus)))
	case domain.NotificationSLAWarning:
		return fmt.Sprintf("[%s] SLA warning: %s remaining", p.IncidentNumber, p.TimeRemaining)
	case domain.NotificationSLABreach:
		return fmt.Sprintf("[%s] SLA BREACHED: %s", p.IncidentNumber, p.Title)
	case domain.NotificationResolved:
		return fmt.Sprintf("[%s] Resolved: %s", p.IncidentNumber, p.Title)
	case domain.NotificationDailySummary:
		return fmt.Sprintf("Incident summary for %s", p.Summary.Date.Format("Jan 2, 2006"))
	default:
		return fmt.Sprintf("[%s] %s", p.IncidentNumber, p.Title)
	}
}

// Message builds the short one-line text shown in the in-app inbox.
func (r *Renderer) Message(ev Event) string {
	p := ev.Payload
	switch ev.Kind {
	case domain.NotificationCreated:
		return fmt.Sprintf("%s incident %s reported: %s", p.Severity, p.IncidentNumber, p.Title)
	case domain.NotificationAssigned:
		return fmt.Sprintf("Incident %s has been assigned to you", p.IncidentNumber)
	case domain.NotificationStatusChanged:
		return fmt.Sprintf("Incident %s moved from %s to %s",
			p.IncidentNumber, titleCase(string(p.OldStatus)), titleCase(string(p.NewStatus)))
	case domain.NotificationSLAWarning:
		return fmt.Sprintf("Incident %s is approaching its SLA deadline (%s remaining)",
			p.IncidentNumber, p.TimeRemaining)
	case domain.NotificationSLABreach:
		return fmt.Sprintf("Incident %s has breached its SLA deadline", p.IncidentNumber)
	case domain.NotificationResolved:
		return fmt.Sprintf("Incident %s has been resolved", p.IncidentNumber)
	case domain.NotificationDailySummary:
		s := p.Summary
		return fmt.Sprintf("Open: %d, in progress: %d, resolved today: %d, breached: %d",
			s.Open, s.InProgress, s.ResolvedToday, s.Breached)
	default:
		return p.Title
	}
}

// PriorityFor maps an event to an inbox priority. Breaches always surface
// first; warnings and critical-severity events rank above the rest.
func PriorityFor(ev Event) domain.NotificationPriority {
	switch ev.Kind {
	case domain.NotificationSLABreach:
		return domain.PriorityHigh
	case domain.NotificationSLAWarning:
		return domain.PriorityHigh
	case domain.NotificationCreated, domain.NotificationAssigned:
		if ev.Payload.Severity == domain.SeverityCritical {
			return domain.PriorityHigh
		}
		return domain.PriorityMedium
	case domain.NotificationStatusChanged, domain.NotificationResolved:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// Template functions

var titleCaser = cases.Title(language.English)

func titleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}
