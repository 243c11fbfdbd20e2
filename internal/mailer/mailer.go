// Package mailer sends test reports by email through Amazon SES.
package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"deutschdrill/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SendEmailAPI is the part of the SES client the mailer uses
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// UserLookup resolves the recipient of a report
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Options configure the sender
type Options struct {
	Region     string
	FromEmail  string
	FromName   string
	AppBaseURL string
}

// ReportMailer emails finished real tests to the learner
type ReportMailer struct {
	client  SendEmailAPI
	users   UserLookup
	opts    Options
	enabled bool
	logger  *zap.Logger
}

// New creates a report mailer. Without a from address the mailer is
// disabled and every call is a no-op.
func New(ctx context.Context, opts Options, users UserLookup, logger *zap.Logger) (*ReportMailer, error) {
	if opts.FromEmail == "" {
		logger.Info("report email disabled: SES_FROM_EMAIL not configured")
		return &ReportMailer{users: users, opts: opts, logger: logger}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("report email enabled", zap.String("from", opts.FromEmail), zap.String("region", opts.Region))
	return NewWithClient(sesv2.NewFromConfig(cfg), opts, users, logger), nil
}

// NewWithClient creates an enabled mailer around an existing client
func NewWithClient(client SendEmailAPI, opts Options, users UserLookup, logger *zap.Logger) *ReportMailer {
	return &ReportMailer{client: client, users: users, opts: opts, enabled: true, logger: logger}
}

// IsEnabled returns whether emails are sent
func (m *ReportMailer) IsEnabled() bool {
	return m.enabled
}

// NotifyReport sends the report to the learner's email address, if they have one
func (m *ReportMailer) NotifyReport(ctx context.Context, report *models.TestReport) error {
	if !m.enabled {
		return nil
	}

	user, err := m.users.GetUserByID(ctx, report.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.Email == "" {
		m.logger.Debug("no email address for report", zap.Int64("user_id", report.UserID))
		return nil
	}

	subject := fmt.Sprintf("Your %s test: %.0f%% (%s)", kindLabel(report.Kind), report.Percentage, report.Grade)
	return m.send(ctx, user.Email, subject, m.htmlBody(user, report), m.textBody(user, report))
}

func (m *ReportMailer) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := m.opts.FromEmail
	if m.opts.FromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", m.opts.FromName, m.opts.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	fields := []zap.Field{zap.String("to", toEmail), zap.String("subject", subject)}
	if result != nil && result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	m.logger.Info("report email sent", fields...)
	return nil
}

func (m *ReportMailer) textBody(user *models.User, r *models.TestReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hallo %s,\n\n", user.Username)
	fmt.Fprintf(&b, "you scored %s out of %d (%.1f%%), grade %s.\n", formatScore(r.Score), r.Total, r.Percentage, r.Grade)
	fmt.Fprintf(&b, "%s %s\n", r.Feedback.Face, r.Feedback.Comment)

	if mistakes := r.Mistakes(); len(mistakes) > 0 {
		b.WriteString("\nTo review:\n")
		for _, o := range mistakes {
			fmt.Fprintf(&b, "- %s: you wrote %q, correct is %q\n", o.Prompt, o.UserAnswer, o.CorrectAnswer)
		}
	}

	fmt.Fprintf(&b, "\nKeep practising: %s\n\n---\nThis is an automated email. Please do not reply.\n", m.opts.AppBaseURL)
	return b.String()
}

func (m *ReportMailer) htmlBody(user *models.User, r *models.TestReport) string {
	var rows strings.Builder
	for _, o := range r.Mistakes() {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(o.Prompt), html.EscapeString(o.UserAnswer), html.EscapeString(o.CorrectAnswer))
	}

	review := "<p>No mistakes. Sehr gut!</p>"
	if rows.Len() > 0 {
		review = `<table class="review"><tr><th>Question</th><th>Your answer</th><th>Correct</th></tr>` + "\n" + rows.String() + "</table>"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2f6f4f; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.review td, .review th { padding: 4px 8px; text-align: left; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s %s</h1>
		</div>
		<div class="content">
			<p>Hallo %s,</p>
			<p>You scored <strong>%s out of %d</strong> (%.1f%%) in your %s test.</p>
			<p>%s</p>
			%s
			<p><a href="%s">Keep practising</a></p>
		</div>
		<div class="footer">
			<p>This is an automated email. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, r.Feedback.Face, html.EscapeString(r.Grade), html.EscapeString(user.Username),
		formatScore(r.Score), r.Total, r.Percentage, kindLabel(r.Kind),
		html.EscapeString(r.Feedback.Comment), review, html.EscapeString(m.opts.AppBaseURL))
}

func kindLabel(kind models.ItemKind) string {
	if kind == models.KindVerb {
		return "verb"
	}
	return "vocabulary"
}

// formatScore drops the decimals from whole scores
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.2f", score)
}
