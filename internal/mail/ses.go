package mail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESMailer sends through AWS SES and reads the account's sending quota.
type SESMailer struct {
	client *ses.Client
	sender string
}

// NewSESMailer builds an SES-backed Mailer for the given region and verified
// sender address, using the default AWS credential chain.
func NewSESMailer(ctx context.Context, region, sender string) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), sender: sender}, nil
}

// Send implements Mailer.
func (s *SESMailer) Send(ctx context.Context, msg Message) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: &s.sender,
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: &msg.Subject},
			Body: &types.Body{
				Text: &types.Content{Data: &msg.Body},
			},
		},
	})
	return err
}

// RemainingQuota implements Mailer. SES reports a floating 24h window; the
// remainder is clamped at zero. A negative Max24HourSend means "unlimited"
// in the SES API, mapped here to a large finite value.
func (s *SESMailer) RemainingQuota(ctx context.Context) (int, error) {
	out, err := s.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return 0, err
	}
	if out.Max24HourSend < 0 {
		return int(^uint(0) >> 1), nil
	}
	left := int(out.Max24HourSend - out.SentLast24Hours)
	if left < 0 {
		left = 0
	}
	return left, nil
}
