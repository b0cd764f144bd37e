package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"hbs/src/config"
	"hbs/src/lib"
	awslib "hbs/src/lib/aws"
	"hbs/src/types"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Mailer delivers a rendered message. Implementations differ only in transport.
type Mailer interface {
	Send(ctx context.Context, input *lib.SendMailInput) error
}

type SMTPMailer struct{}

func (SMTPMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	return lib.SendMail(ctx, input)
}

type SESMailer struct {
	client awslib.SESAPI
}

// NewSESMailer accepts a nil client; Send then fails with ErrConfiguration.
func NewSESMailer(client awslib.SESAPI) *SESMailer {
	if c, ok := client.(*ses.Client); ok && c == nil {
		client = nil
	}
	return &SESMailer{client: client}
}

func (m *SESMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	if m.client == nil {
		return fmt.Errorf("%w: SES client unavailable", types.ErrConfiguration)
	}
	from := input.From
	if input.FromName != "" {
		from = fmt.Sprintf("%s <%s>", input.FromName, input.From)
	}
	_, err := awslib.SESSendMessage(ctx, m.client, from, input.To, input.Subject, input.Body, input.Text)
	return err
}

// QueueMailer hands messages to the email worker through SQS, or Kafka when running locally.
type QueueMailer struct {
	client lib.SQSAPI
	queue  string
	kafka  bool
}

// NewQueueMailer accepts a nil client; sending through SQS then fails with ErrConfiguration.
func NewQueueMailer(client lib.SQSAPI, queue string, kafka bool) *QueueMailer {
	if c, ok := client.(*sqs.Client); ok && c == nil {
		client = nil
	}
	return &QueueMailer{client: client, queue: queue, kafka: kafka}
}

func (m *QueueMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	if m.kafka {
		if err := lib.KafkaProduceMessage("emails", m.queue, input); err != nil {
			return fmt.Errorf("error sending message to queue: %s", err.Error())
		}
		return nil
	}
	if m.client == nil {
		return fmt.Errorf("%w: SQS client unavailable", types.ErrConfiguration)
	}
	body, err := json.Marshal(input)
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(ctx, m.client, m.queue, string(body)); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	log.Printf("[Mailer] to=%v subject=%q\n", input.To, input.Subject)
	return nil
}

// New picks the transport named by MAIL_TRANSPORT.
func New() Mailer {
	switch config.MailTransport() {
	case "ses":
		return NewSESMailer(lib.AWSGetSESClient())
	case "queue":
		if config.IsLocal() && lib.KafkaEnabled() {
			return NewQueueMailer(nil, config.EmailQueue(), true)
		}
		return NewQueueMailer(lib.AWSGetSQSClient(), config.EmailQueue(), false)
	case "log":
		return LogMailer{}
	}
	return SMTPMailer{}
}

// NewDelivery picks the transport the email worker sends through. It never
// returns a QueueMailer.
func NewDelivery() Mailer {
	switch config.MailDeliveryTransport() {
	case "ses":
		return NewSESMailer(lib.AWSGetSESClient())
	case "log":
		return LogMailer{}
	}
	return SMTPMailer{}
}
