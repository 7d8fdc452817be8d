// internal/transport/sns.go
package transport

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the slice of the SNS client the transport uses, defined here so
// tests can substitute a mock.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTransport delivers notifications as SMS through Amazon SNS. The
// message's To field is interpreted as an E.164 phone number and only the
// text body is sent.
type SNSTransport struct {
	client SNSAPI
}

func NewSNSTransport(ctx context.Context, region string) (*SNSTransport, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SNSTransport{client: sns.NewFromConfig(awsCfg)}, nil
}

// NewSNSTransportWithClient wires a preconstructed client, used by tests.
func NewSNSTransportWithClient(client SNSAPI) *SNSTransport {
	return &SNSTransport{client: client}
}

func (t *SNSTransport) Name() string { return "sns" }

func (t *SNSTransport) Send(ctx context.Context, msg Message) (Result, error) {
	out, err := t.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(msg.To),
		Message:     aws.String(msg.TextBody),
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Accepted:  true,
		MessageID: aws.ToString(out.MessageId),
	}, nil
}
