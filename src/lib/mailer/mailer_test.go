package mailer

import (
	"context"
	"testing"

	"hbs/src/lib"
	"hbs/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type recordingSQS struct {
	bodies []string
}

func (r *recordingSQS) GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("https://sqs/" + aws.ToString(params.QueueName))}, nil
}

func (r *recordingSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	r.bodies = append(r.bodies, aws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{MessageId: aws.String("1")}, nil
}

func (r *recordingSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{}, nil
}

func (r *recordingSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	return &sqs.DeleteMessageOutput{}, nil
}

func TestQueueMailerEnqueuesJSON(t *testing.T) {
	client := &recordingSQS{}
	m := NewQueueMailer(client, "EmailsToSend", false)

	err := m.Send(context.Background(), &lib.SendMailInput{
		From:    "bookings@example.com",
		To:      []string{"guest@example.com"},
		Subject: "Confirmed",
		Body:    "<p>hi</p>",
		Html:    true,
	})

	require.NoError(t, err)
	require.Len(t, client.bodies, 1)
	body := client.bodies[0]
	assert.Equal(t, "guest@example.com", gjson.Get(body, "to.0").String())
	assert.Equal(t, "Confirmed", gjson.Get(body, "subject").String())
	assert.True(t, gjson.Get(body, "html").Bool())
}

type recordingSES struct {
	source string
}

func (r *recordingSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	r.source = aws.ToString(params.Source)
	return &ses.SendEmailOutput{MessageId: aws.String("1")}, nil
}

func TestSESMailerFormatsSender(t *testing.T) {
	client := &recordingSES{}
	m := NewSESMailer(client)

	err := m.Send(context.Background(), &lib.SendMailInput{
		From:     "bookings@example.com",
		FromName: "Bookings",
		To:       []string{"guest@example.com"},
		Subject:  "s",
		Body:     "b",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bookings <bookings@example.com>", client.source)
}

func TestNewPicksTransport(t *testing.T) {
	t.Setenv("MAIL_TRANSPORT", "log")
	assert.IsType(t, LogMailer{}, New())

	t.Setenv("MAIL_TRANSPORT", "")
	assert.IsType(t, SMTPMailer{}, New())
}

func TestNewDeliveryNeverQueues(t *testing.T) {
	t.Setenv("MAIL_TRANSPORT", "queue")
	t.Setenv("MAIL_DELIVERY_TRANSPORT", "")
	assert.IsType(t, SMTPMailer{}, NewDelivery())

	t.Setenv("MAIL_DELIVERY_TRANSPORT", "log")
	assert.IsType(t, LogMailer{}, NewDelivery())
}

func TestSESMailerWithoutClientIsMisconfigured(t *testing.T) {
	m := NewSESMailer((*ses.Client)(nil))

	var err error
	assert.NotPanics(t, func() {
		err = m.Send(context.Background(), &lib.SendMailInput{To: []string{"guest@example.com"}})
	})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestQueueMailerWithoutClientIsMisconfigured(t *testing.T) {
	m := NewQueueMailer((*sqs.Client)(nil), "EmailsToSend", false)

	var err error
	assert.NotPanics(t, func() {
		err = m.Send(context.Background(), &lib.SendMailInput{To: []string{"guest@example.com"}})
	})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
