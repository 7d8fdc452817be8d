// internal/transport/ses.go
package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the slice of the SES client the transport uses, defined here so
// tests can substitute a mock.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESTransport delivers notifications as email through Amazon SES.
type SESTransport struct {
	client SESAPI
}

func NewSESTransport(ctx context.Context, region string) (*SESTransport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESTransport{client: ses.NewFromConfig(awsCfg)}, nil
}

// NewSESTransportWithClient wires a preconstructed client, used by tests.
func NewSESTransportWithClient(client SESAPI) *SESTransport {
	return &SESTransport{client: client}
}

func (t *SESTransport) Name() string { return "ses" }

func (t *SESTransport) Send(ctx context.Context, msg Message) (Result, error) {
	out, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{formatAddress(msg.ToName, msg.To)},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTMLBody)},
				Text: &types.Content{Data: aws.String(msg.TextBody)},
			},
		},
		Source: aws.String(formatAddress(msg.FromName, msg.From)),
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Accepted:  true,
		MessageID: aws.ToString(out.MessageId),
	}, nil
}

// formatAddress renders "Name <email>", or the bare address when no display
// name is set.
func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
