package notifications

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

// templateData is what subjects and bodies are rendered from.
type templateData struct {
	SiteName    string
	GuestName   string
	GuestEmail  string
	Reservation *models.Reservation
	Reason      string
	OldCheckIn  string
	OldCheckOut string
}

var funcs = template.FuncMap{
	"date":  dates.Format,
	"money": formatMoney,
}

// formatMoney renders minor units as major units with two decimals.
func formatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}

const stayLines = `Check-in:  {{date .Reservation.CheckIn}}
Check-out: {{date .Reservation.CheckOut}} ({{.Reservation.Nights}} nights)
Guests:    {{.Reservation.Adults}} adults, {{.Reservation.Children}} children
Total:     {{money .Reservation.Total .Reservation.Currency}}
Reference: {{.Reservation.ID}}`

var templateSources = map[models.NotificationKind][2]string{
	models.NotifyConfirmation: {
		`{{.SiteName}}: we received your booking request`,
		`Hello {{.GuestName}},

Thank you for your request. We will confirm it shortly.

` + stayLines + "\n",
	},
	models.NotifyApprovalRequired: {
		`{{.SiteName}}: booking {{date .Reservation.CheckIn}} to {{date .Reservation.CheckOut}} awaits approval`,
		`A new booking from {{.GuestName}} <{{.GuestEmail}}> is waiting for approval.

` + stayLines + "\n",
	},
	models.NotifyApproved: {
		`{{.SiteName}}: your stay is confirmed`,
		`Hello {{.GuestName}},

Your booking has been approved.

` + stayLines + "\n",
	},
	models.NotifyDeclined: {
		`{{.SiteName}}: we could not accept your booking`,
		`Hello {{.GuestName}},

Unfortunately we could not accept your booking for {{date .Reservation.CheckIn}} to {{date .Reservation.CheckOut}}.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}`,
	},
	models.NotifyCancelled: {
		`{{.SiteName}}: your booking was cancelled`,
		`Hello {{.GuestName}},

Your booking for {{date .Reservation.CheckIn}} to {{date .Reservation.CheckOut}} has been cancelled.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}`,
	},
	models.NotifyRescheduled: {
		`{{.SiteName}}: your stay has new dates`,
		`Hello {{.GuestName}},

Your stay previously booked for {{.OldCheckIn}} to {{.OldCheckOut}} has been moved.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}
` + stayLines + "\n",
	},
	models.NotifyReminder: {
		`{{.SiteName}}: see you on {{date .Reservation.CheckIn}}`,
		`Hello {{.GuestName}},

A reminder of your upcoming stay.

` + stayLines + "\n",
	},
}

var templates = mustParseTemplates()

func mustParseTemplates() map[models.NotificationKind]messageTemplate {
	out := make(map[models.NotificationKind]messageTemplate, len(templateSources))
	for kind, src := range templateSources {
		out[kind] = messageTemplate{
			subject: template.Must(template.New(string(kind) + ".subject").Funcs(funcs).Parse(src[0])),
			body:    template.Must(template.New(string(kind) + ".body").Funcs(funcs).Parse(src[1])),
		}
	}
	return out
}

// IsKnownKind reports whether k has a template.
func IsKnownKind(k models.NotificationKind) bool {
	_, ok := templates[k]
	return ok
}

// render produces the subject and body for kind.
func render(kind models.NotificationKind, data templateData) (subject, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for %s", kind)
	}
	var buf bytes.Buffer
	if err := t.subject.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", kind, err)
	}
	subject = strings.TrimSpace(buf.String())
	buf.Reset()
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return subject, buf.String(), nil
}
