package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Service sends transactional email via AWS SES
type Service struct {
	client    *ses.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service using AWS SES
func NewService(region, fromEmail, fromName string) (*Service, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendVerificationEmail sends the one-time email verification code
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, code string) error {
	subject := "Verify your OnSekiz email"
	htmlBody := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>Verify your email</h2>
			<p>Enter this code to verify your OnSekiz account. It expires in 15 minutes.</p>
			<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
			<p style="color: #888;">If you didn't create an account, you can ignore this email.</p>
		</div>`, code)
	textBody := fmt.Sprintf("Your OnSekiz verification code is %s. It expires in 15 minutes.", code)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

// SendPasswordResetEmail sends the one-time password reset code
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, code string) error {
	subject := "Reset your OnSekiz password"
	htmlBody := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>Reset your password</h2>
			<p>Use this code to reset your OnSekiz password. It expires in 15 minutes.</p>
			<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
			<p style="color: #888;">If you didn't request a reset, you can ignore this email.</p>
		</div>`, code)
	textBody := fmt.Sprintf("Your OnSekiz password reset code is %s. It expires in 15 minutes.", code)

	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *Service) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}
