package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	sendFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	lastSent *ses.SendEmailInput
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.lastSent = params
	return m.sendFunc(ctx, params, optFns...)
}

func TestSESTransport_Send(t *testing.T) {
	msg := Message{
		From:     "noreply@example.com",
		FromName: "Notifications",
		To:       "jane@x.com",
		ToName:   "Doe, Jane",
		Subject:  "Welcome",
		HTMLBody: "<p>Hi Doe, Jane</p>",
		TextBody: "Hi Doe, Jane",
	}

	t.Run("accepted", func(t *testing.T) {
		mock := &mockSES{
			sendFunc: func(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return &ses.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
			},
		}
		tr := NewSESTransportWithClient(mock)

		result, err := tr.Send(context.Background(), msg)
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.Equal(t, "msg-123", result.MessageID)

		require.NotNil(t, mock.lastSent)
		assert.Equal(t, "Notifications <noreply@example.com>", aws.ToString(mock.lastSent.Source))
		require.Len(t, mock.lastSent.Destination.ToAddresses, 1)
		assert.Equal(t, "Doe, Jane <jane@x.com>", mock.lastSent.Destination.ToAddresses[0])
		assert.Equal(t, "Welcome", aws.ToString(mock.lastSent.Message.Subject.Data))
		assert.Equal(t, "<p>Hi Doe, Jane</p>", aws.ToString(mock.lastSent.Message.Body.Html.Data))
		assert.Equal(t, "Hi Doe, Jane", aws.ToString(mock.lastSent.Message.Body.Text.Data))
	})

	t.Run("provider error", func(t *testing.T) {
		mock := &mockSES{
			sendFunc: func(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("throttled")
			},
		}
		tr := NewSESTransportWithClient(mock)

		result, err := tr.Send(context.Background(), msg)
		require.Error(t, err)
		assert.False(t, result.Accepted)
	})
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "Doe, Jane <jane@x.com>", formatAddress("Doe, Jane", "jane@x.com"))
	assert.Equal(t, "jane@x.com", formatAddress("", "jane@x.com"))
}
