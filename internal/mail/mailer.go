package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"travelxguide/internal/config"
)

// ApplicationNotice is the summary of a new guide application sent to the
// admin address.
type ApplicationNotice struct {
	Name         string
	Email        string
	Phone        string
	Experience   string
	Languages    []string
	Destinations []string
	Bio          string
	HourlyRate   float64
}

type Mailer struct {
	client     *gomail.Client
	from       string
	adminEmail string
}

// New builds the SMTP mailer. With no SMTP host configured the mailer is
// disabled: sends log the intent and succeed, which keeps local
// development working without a mail server.
func New(cfg config.SMTPConfig, adminEmail string) (*Mailer, error) {
	m := &Mailer{
		from:       cfg.From,
		adminEmail: adminEmail,
	}

	if cfg.Host == "" {
		return m, nil
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	m.client = client
	return m, nil
}

func (m *Mailer) SendGuideApplicationNotice(ctx context.Context, app ApplicationNotice) error {
	body, err := render(adminNoticeTmpl, map[string]any{
		"Name":         app.Name,
		"Email":        app.Email,
		"Phone":        app.Phone,
		"Experience":   app.Experience,
		"Languages":    strings.Join(app.Languages, ", "),
		"Destinations": strings.Join(app.Destinations, ", "),
		"HourlyRate":   app.HourlyRate,
		"Bio":          app.Bio,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, m.adminEmail, "New Guide Application Received", body)
}

func (m *Mailer) SendVerificationOTP(ctx context.Context, to, name, otp string) error {
	body, err := render(verificationTmpl, map[string]any{
		"Name": name,
		"OTP":  otp,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Verify Your Email - TravelXGuide Guide Application", body)
}

func (m *Mailer) SendApproval(ctx context.Context, to, name string) error {
	body, err := render(approvalTmpl, map[string]any{"Name": name})
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Congratulations! Your Guide Application Has Been Approved", body)
}

func (m *Mailer) SendRejection(ctx context.Context, to, name, notes string) error {
	body, err := render(rejectionTmpl, map[string]any{
		"Name":  name,
		"Notes": notes,
	})
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Update on Your Guide Application", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.client == nil {
		slog.Info("mailer disabled, skipping email", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)

	return m.client.DialAndSendWithContext(ctx, msg)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

var adminNoticeTmpl = template.Must(template.New("admin_notice").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>New Guide Application</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Phone:</strong> {{.Phone}}</p>
  <p><strong>Experience:</strong> {{.Experience}}</p>
  <p><strong>Languages:</strong> {{.Languages}}</p>
  <p><strong>Destinations:</strong> {{.Destinations}}</p>
  <p><strong>Hourly Rate:</strong> ₹{{.HourlyRate}}</p>
  <p><strong>Bio:</strong> {{.Bio}}</p>
  <p>Login to Admin Panel to Approve or Reject this application.</p>
</div>`))

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify Your Email Address</h2>
  <p>Dear {{.Name}},</p>
  <p>Thank you for applying to become a guide with TravelXGuide!</p>
  <p>Please use the following verification code to complete your registration:</p>
  <div style="background-color: #f8f9fa; padding: 20px; text-align: center; margin: 20px 0;">
    <h1 style="color: #007bff; font-size: 32px; margin: 0;">{{.OTP}}</h1>
  </div>
  <p>This code will expire in 10 minutes.</p>
  <p>If you didn't request this verification, please ignore this email.</p>
  <p>Best regards,<br>TravelXGuide Team</p>
</div>`))

var approvalTmpl = template.Must(template.New("approval").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #28a745;">Application Approved!</h2>
  <p>Dear {{.Name}},</p>
  <p>We are pleased to inform you that your guide application has been approved!</p>
  <p>You can now log in to your guide dashboard and start offering your services to travelers.</p>
  <p><strong>Next Steps:</strong></p>
  <ul>
    <li>Complete your profile setup</li>
    <li>Upload your profile picture</li>
    <li>Set your availability</li>
    <li>Start receiving booking requests</li>
  </ul>
  <p>If you have any questions, please don't hesitate to contact us.</p>
  <p>Best regards,<br>TravelXGuide Team</p>
</div>`))

var rejectionTmpl = template.Must(template.New("rejection").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #dc3545;">Application Status Update</h2>
  <p>Dear {{.Name}},</p>
  <p>Thank you for your interest in becoming a guide with TravelXGuide.</p>
  <p>After careful review, we regret to inform you that your application has not been approved at this time.</p>
  {{if .Notes}}<p><strong>Feedback:</strong> {{.Notes}}</p>{{end}}
  <p>You are welcome to reapply in the future with updated information.</p>
  <p>If you have any questions, please don't hesitate to contact us.</p>
  <p>Best regards,<br>TravelXGuide Team</p>
</div>`))
