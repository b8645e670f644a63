package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/tuanvn/tourbook/internal/models"
)

// EmailService defines the interface for sending customer emails
type EmailService interface {
	SendBookingConfirmation(ctx context.Context, email, name string, booking *models.Booking) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendBookingConfirmation tells the customer their booking was confirmed.
func (s *AWSSESEmailService) SendBookingConfirmation(ctx context.Context, email, name string, booking *models.Booking) error {
	subject := fmt.Sprintf("Booking #%d confirmed: %s", booking.ID, booking.TourName)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .details { background-color: #f8f9fa; padding: 15px; border-radius: 4px; }
        .details td { padding: 4px 12px 4px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Your Booking Is Confirmed</h1>
        </div>
        <div class="content">
            <p>Hi %s,</p>
            <p>Great news! Your booking has been confirmed. Here are the details:</p>
            <table class="details">
                <tr><td><strong>Booking</strong></td><td>#%d</td></tr>
                <tr><td><strong>Tour</strong></td><td>%s</td></tr>
                <tr><td><strong>Destination</strong></td><td>%s</td></tr>
                <tr><td><strong>Participants</strong></td><td>%d</td></tr>
                <tr><td><strong>Total</strong></td><td>%d VND</td></tr>
            </table>
            <p>We look forward to seeing you. If anything changes, please contact us as soon as possible.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, name, booking.ID, booking.TourName, booking.TourDestination, booking.NumParticipants, booking.TotalPrice)

	textBody := fmt.Sprintf(`Your Booking Is Confirmed

Hi %s,

Great news! Your booking has been confirmed. Here are the details:

  Booking:      #%d
  Tour:         %s
  Destination:  %s
  Participants: %d
  Total:        %d VND

We look forward to seeing you. If anything changes, please contact us as soon as possible.

This is an automated message. Please do not reply to this email.
`, name, booking.ID, booking.TourName, booking.TourDestination, booking.NumParticipants, booking.TotalPrice)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send booking confirmation via SES",
			slog.Int64("booking_id", booking.ID),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("booking confirmation email sent",
		slog.Int64("booking_id", booking.ID),
		slog.String("message_id", *result.MessageId))

	return nil
}

// LogEmailService is the development stand-in: it records what would have
// been sent instead of calling SES.
type LogEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendBookingConfirmation(ctx context.Context, email, name string, booking *models.Booking) error {
	s.logger.Info("email sending disabled, skipping booking confirmation",
		slog.Int64("booking_id", booking.ID),
		slog.String("tour", booking.TourName))
	return nil
}
