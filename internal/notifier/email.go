package notifier

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/etiennegalea/housing-scraper/internal/models"
)

// sender is the slice of the SendGrid client the email backend needs.
type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type EmailClient struct {
	client sender
	from   string
	to     string
}

func NewEmail(apiKey, from, to string) *EmailClient {
	return &EmailClient{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
		to:     to,
	}
}

// Notify sends a single email with all new listings as an HTML table.
func (c *EmailClient) Notify(ctx context.Context, subject string, listings []models.Listing) error {
	body, err := renderEmailBody(listings)
	if err != nil {
		return fmt.Errorf("rendering email body: %w", err)
	}

	message := mail.NewSingleEmail(
		mail.NewEmail("Housing Scraper", c.from),
		subject,
		mail.NewEmail("", c.to),
		renderCompactBody(listings),
		body,
	)

	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	slog.Info("Email notification sent", "status", resp.StatusCode, "count", len(listings))
	return nil
}

var emailTemplate = template.Must(template.New("listings").Parse(`<html>
<head>
<style>
table, th, td {font-size:10pt; border:1px solid black; border-collapse:collapse; text-align:left;}
th, td {padding: 5px;}
</style>
</head>
<body>
<p>New houses just dropped!</p>
<table>
<tr><th>Rent</th><th>Location</th><th>City</th><th>Closing date</th><th>Link</th></tr>
{{- range .}}
<tr><td>&euro;{{.Rent}}</td><td>{{.Location}}</td><td>{{.City}}</td><td>{{.ClosingDate}}</td><td><a href="{{.URL}}">view</a></td></tr>
{{- end}}
</table>
</body>
</html>`))

type emailRow struct {
	Rent        string
	Location    string
	City        string
	ClosingDate string
	URL         string
}

func renderEmailBody(listings []models.Listing) (string, error) {
	rows := make([]emailRow, 0, len(listings))
	for _, l := range listings {
		closing := ""
		if !l.ClosingDate.IsZero() {
			closing = l.ClosingDate.Format("2006-01-02")
		}
		rows = append(rows, emailRow{
			Rent:        formatRent(l.Rent),
			Location:    location(l),
			City:        l.City,
			ClosingDate: closing,
			URL:         l.URL,
		})
	}

	var b strings.Builder
	if err := emailTemplate.Execute(&b, rows); err != nil {
		return "", err
	}
	return b.String(), nil
}
