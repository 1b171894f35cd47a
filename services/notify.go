package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"equipquote/config"
)

// ErrMailDisabled is returned by NoopMailer. Sends that hit it are logged
// as skipped.
var ErrMailDisabled = errors.New("email delivery is disabled")

// Email is one outbound message.
type Email struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Attachment is a file sent with an Email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer delivers email through one provider.
type Mailer interface {
	Name() string
	Send(ctx context.Context, msg Email) error
}

// NewMailer builds the mailer selected by cfg.Provider.
func NewMailer(app core.App, cfg config.EmailConfig) Mailer {
	switch cfg.Provider {
	case "resend":
		return &ResendMailer{APIKey: cfg.ResendAPIKey, Endpoint: cfg.ResendEndpoint, From: cfg.From}
	case "smtp":
		return &PocketBaseMailer{App: app, From: cfg.From}
	}
	return NoopMailer{}
}

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	APIKey   string
	Endpoint string
	From     string
	Client   *http.Client
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Text        string             `json:"text,omitempty"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

func (m *ResendMailer) Name() string { return "resend" }

func (m *ResendMailer) Send(ctx context.Context, msg Email) error {
	body := resendRequest{
		From:    m.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		body.Attachments = append(body.Attachments, resendAttachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// PocketBaseMailer sends through the SMTP settings configured in PocketBase.
type PocketBaseMailer struct {
	App  core.App
	From string
}

func (m *PocketBaseMailer) Name() string { return "smtp" }

func (m *PocketBaseMailer) Send(_ context.Context, msg Email) error {
	to := make([]mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, mail.Address{Address: addr})
	}

	from := mail.Address{Address: m.From}
	if m.From == "" {
		from = mail.Address{
			Address: m.App.Settings().Meta.SenderAddress,
			Name:    m.App.Settings().Meta.SenderName,
		}
	}

	message := &mailer.Message{
		From:    from,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	if len(msg.Attachments) > 0 {
		message.Attachments = make(map[string]io.Reader, len(msg.Attachments))
		for _, a := range msg.Attachments {
			message.Attachments[a.Filename] = bytes.NewReader(a.Content)
		}
	}
	return m.App.NewMailClient().Send(message)
}

// NoopMailer drops every message.
type NoopMailer struct{}

func (NoopMailer) Name() string { return "none" }

func (NoopMailer) Send(context.Context, Email) error { return ErrMailDisabled }

// Notifier sends quote emails and records each attempt in email_logs.
type Notifier struct {
	app     core.App
	mailer  Mailer
	salesTo []string
}

// NewNotifier returns a Notifier. salesTo receives pipeline notifications.
func NewNotifier(app core.App, m Mailer, salesTo []string) *Notifier {
	if m == nil {
		m = NoopMailer{}
	}
	return &Notifier{app: app, mailer: m, salesTo: salesTo}
}

// QuoteStatusChanged tells the sales team a quote was accepted or rejected.
func (n *Notifier) QuoteStatusChanged(ctx context.Context, kind QuoteKind, rec *core.Record, from, to QuoteStatus) error {
	if len(n.salesTo) == 0 {
		n.logEmail("", "", "status_"+string(to), rec.Id, "skipped", "no sales recipients configured")
		return nil
	}

	number := rec.GetString("quote_number")
	subject := fmt.Sprintf("Quote %s %s by %s", number, to, rec.GetString("customer_name"))
	body, err := renderEmail(ctx, statusEmail(kind, rec, from, to))
	if err != nil {
		return err
	}
	return n.deliver(ctx, "status_"+string(to), rec.Id, Email{To: n.salesTo, Subject: subject, HTML: body})
}

// SendQuote emails a rendered quote to a customer.
func (n *Notifier) SendQuote(ctx context.Context, rec *core.Record, to, subject, message, filename string, pdf []byte) error {
	if subject == "" {
		subject = fmt.Sprintf("Quote %s", rec.GetString("quote_number"))
	}
	body, err := renderEmail(ctx, quoteEmail(rec, message))
	if err != nil {
		return err
	}
	msg := Email{To: []string{to}, Subject: subject, HTML: body}
	if len(pdf) > 0 {
		msg.Attachments = []Attachment{{Filename: filename, Content: pdf}}
	}
	return n.deliver(ctx, "quote", rec.Id, msg)
}

// deliver sends msg and logs the outcome. A disabled mailer is not an error.
func (n *Notifier) deliver(ctx context.Context, kind, quoteID string, msg Email) error {
	if msg.Text == "" {
		msg.Text = HTMLToText(msg.HTML)
	}
	recipient := strings.Join(msg.To, ", ")

	err := n.mailer.Send(ctx, msg)
	switch {
	case errors.Is(err, ErrMailDisabled):
		n.logEmail(recipient, msg.Subject, kind, quoteID, "skipped", err.Error())
		return nil
	case err != nil:
		n.logEmail(recipient, msg.Subject, kind, quoteID, "failed", err.Error())
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	n.logEmail(recipient, msg.Subject, kind, quoteID, "sent", "")
	return nil
}

func (n *Notifier) logEmail(recipient, subject, kind, quoteID, status, errMsg string) {
	col, err := n.app.FindCollectionByNameOrId("email_logs")
	if err != nil {
		n.app.Logger().Error("email_logs collection not found", "error", err)
		return
	}
	if recipient == "" {
		recipient = "-"
	}
	r := core.NewRecord(col)
	r.Set("recipient", recipient)
	r.Set("subject", subject)
	r.Set("kind", kind)
	r.Set("quote", quoteID)
	r.Set("status", status)
	r.Set("provider", n.mailer.Name())
	r.Set("error", errMsg)
	if err := n.app.Save(r); err != nil {
		n.app.Logger().Error("save email log failed", "error", err)
	}
}

// EmailLog is one email_logs row.
type EmailLog struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Kind      string    `json:"kind"`
	QuoteID   string    `json:"quote,omitempty"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	Error     string    `json:"error,omitempty"`
	Created   time.Time `json:"created"`
}

// ListEmailLogs returns recent email attempts, newest first. quoteID
// narrows to one quote when set.
func ListEmailLogs(app core.App, quoteID string, limit int) ([]EmailLog, error) {
	filter, params := "1=1", map[string]any{}
	if quoteID != "" {
		filter, params = "quote = {:q}", map[string]any{"q": quoteID}
	}
	if limit <= 0 {
		limit = 100
	}
	records, err := app.FindRecordsByFilter("email_logs", filter, "-created", limit, 0, params)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	out := make([]EmailLog, 0, len(records))
	for _, r := range records {
		out = append(out, EmailLog{
			ID:        r.Id,
			Recipient: r.GetString("recipient"),
			Subject:   r.GetString("subject"),
			Kind:      r.GetString("kind"),
			QuoteID:   r.GetString("quote"),
			Status:    r.GetString("status"),
			Provider:  r.GetString("provider"),
			Error:     r.GetString("error"),
			Created:   r.GetDateTime("created").Time(),
		})
	}
	return out, nil
}

func renderEmail(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

// statusHeadline is the heading of a status notification.
func statusHeadline(kind QuoteKind, rec *core.Record, to QuoteStatus) string {
	label := "Dismantle quote"
	if kind == KindInland {
		label = "Inland quote"
	}
	return fmt.Sprintf("%s %s was %s", label, rec.GetString("quote_number"), to)
}

// messageParagraphs splits a free-text message on blank lines.
func messageParagraphs(message string) []string {
	var out []string
	for _, para := range strings.Split(strings.TrimSpace(message), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			out = append(out, para)
		}
	}
	return out
}

// blockElements end a line in the plain-text rendering.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true, atom.Tr: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.Table: true,
}

// HTMLToText renders the text content of an HTML fragment, one line per
// block element.
func HTMLToText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(cur.String()), " "); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return strings.Join(lines, "\n")
		case html.TextToken:
			if skip == 0 {
				cur.Write(z.Text())
				cur.WriteByte(' ')
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				skip++
			}
			if blockElements[a] {
				flush()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			if blockElements[a] {
				flush()
			}
		}
	}
}
