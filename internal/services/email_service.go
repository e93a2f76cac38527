package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESLockNotifier emails account holders when the gate locks their
// account, using AWS SES.
type AWSSESLockNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESLockNotifier creates a new AWS SES lock notifier
func NewAWSSESLockNotifier(region, fromAddress string, logger *slog.Logger) (*AWSSESLockNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESLockNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// SendLockNotification emails the account holder that their account was
// locked, why, and until when.
func (s *AWSSESLockNotifier) SendLockNotification(ctx context.Context, email, reason string, lockedUntil time.Time) error {
	until := lockedUntil.UTC().Format("2006-01-02 15:04 UTC")

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
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Votre compte a été verrouillé</h1>
        </div>
        <div class="content">
            <p>Une activité inhabituelle a été détectée sur votre compte et celui-ci a été temporairement verrouillé.</p>
            <div class="warning">
                <strong>Raison :</strong> %s<br>
                <strong>Verrouillé jusqu'au :</strong> %s
            </div>
            <p>Si vous êtes à l'origine de cette activité, aucune action n'est nécessaire : le verrouillage expirera automatiquement.</p>
            <p>Si vous ne reconnaissez pas cette activité, veuillez changer votre mot de passe dès que votre compte sera déverrouillé.</p>
        </div>
        <div class="footer">
            <p>Ceci est un message automatique. Merci de ne pas y répondre.</p>
        </div>
    </div>
</body>
</html>
`, reason, until)

	textBody := fmt.Sprintf(`Votre compte a été verrouillé

Une activité inhabituelle a été détectée sur votre compte et celui-ci a été temporairement verrouillé.

Raison : %s
Verrouillé jusqu'au : %s

Si vous êtes à l'origine de cette activité, aucune action n'est nécessaire : le verrouillage expirera automatiquement.
Si vous ne reconnaissez pas cette activité, veuillez changer votre mot de passe dès que votre compte sera déverrouillé.
`, reason, until)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String("Alerte de sécurité : compte verrouillé"),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := s.sesClient.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send lock notification: %w", err)
	}

	s.logger.Info("lock notification sent", slog.String("reason", reason))
	return nil
}
