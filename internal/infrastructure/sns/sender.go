package sns

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-api-flatfile/internal/config"
	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
)

// MaxMessageLen is the longest SMS body accepted.
const MaxMessageLen = 1599

// SMSSender sends SMS messages to a national phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type sender struct {
	client publisher
	prefix string
}

func NewSender(ctx context.Context, cfg *config.Config) (SMSSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return newSender(sns.NewFromConfig(awsCfg), cfg.SMSCountryPrefix), nil
}

func newSender(client publisher, prefix string) *sender {
	return &sender{client: client, prefix: prefix}
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	to, message, err := normalize(to, message)
	if err != nil {
		return err
	}
	number := s.prefix + to
	if _, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &number,
		Message:     &message,
	}); err != nil {
		return fmt.Errorf("publish sms: %w", err)
	}
	return nil
}

// normalize trims both fields and rejects an empty recipient or a message
// outside 1..MaxMessageLen characters.
func normalize(to, message string) (string, string, error) {
	to = strings.TrimSpace(to)
	message = strings.TrimSpace(message)
	if to == "" {
		return "", "", fmt.Errorf("sms recipient is empty: %w", domain.ErrBadRequest)
	}
	if n := len([]rune(message)); n == 0 || n > MaxMessageLen {
		return "", "", fmt.Errorf("sms message must be 1-%d characters, got %d: %w", MaxMessageLen, n, domain.ErrBadRequest)
	}
	return to, message, nil
}

type logSender struct {
	log logging.Logger
}

// NewLogSender returns an SMSSender that only logs, for environments without SNS.
func NewLogSender(log logging.Logger) SMSSender {
	return &logSender{log: log}
}

func (s *logSender) SendSMS(ctx context.Context, to, message string) error {
	to, message, err := normalize(to, message)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "sms not sent, no provider configured", "to", to, "message", message)
	return nil
}
