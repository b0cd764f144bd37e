package common

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"hbs/src/config"
	"hbs/src/lib"
	awslib "hbs/src/lib/aws"
	"hbs/src/lib/mailer"
	"hbs/src/types"

	"github.com/tidwall/gjson"
)

// EmailQueueHandler delivers messages queued by mailer.QueueMailer. Bodies
// fanned out through SNS arrive wrapped in an envelope whose Message field
// carries the original JSON. Malformed messages are dropped; delivery errors
// are returned so the message is retried.
func EmailQueueHandler(m mailer.Mailer) types.Handler {
	return func(ctx context.Context, body string) error {
		if !gjson.Valid(body) {
			log.Println("[EmailsToSend]: Received invalid json body. Dropping")
			return nil
		}
		if msg := gjson.Get(body, "Message"); msg.Type == gjson.String && gjson.Valid(msg.Str) {
			body = msg.Str
		}
		to := gjson.Get(body, "to")
		if !to.IsArray() || len(to.Array()) == 0 {
			log.Println("[EmailsToSend]: Message has no recipient. Dropping")
			return nil
		}
		var input lib.SendMailInput
		if err := json.Unmarshal([]byte(body), &input); err != nil {
			log.Printf("[EmailsToSend] Error deserializing JSON: %s\n", err.Error())
			return nil
		}
		if input.From == "" {
			input.From = config.MailFrom()
			input.FromName = config.MailFromName()
		}
		if err := m.Send(ctx, &input); err != nil {
			return fmt.Errorf("delivering %q to %v: %w", input.Subject, input.To, err)
		}
		log.Printf("[EmailsToSend] Sent %q to %d recipient(s)\n", input.Subject, len(input.To))
		return nil
	}
}

// DeadLetterHandler only records what ended up in the dead-letter queue.
func DeadLetterHandler(ctx context.Context, body string) error {
	subject := gjson.Get(body, "subject").String()
	log.Printf("DLQ: message received (subject=%q, %d bytes)\n", subject, len(body))
	return nil
}

// StartConsumers attaches the email worker to its queue: Kafka when running
// locally with a broker, SQS otherwise.
func StartConsumers(ctx context.Context, delivery mailer.Mailer) error {
	handler := EmailQueueHandler(delivery)
	if config.IsLocal() && lib.KafkaEnabled() {
		if _, err := lib.KafkaCreateTopics(ctx, config.EmailQueue()); err != nil {
			log.Printf("[Kafka] Error creating topics: %s\n", err.Error())
		}
		return lib.KafkaConsumer(ctx, "emails", config.EmailQueue(), handler)
	}
	client := lib.AWSGetSQSClient()
	if client == nil {
		return fmt.Errorf("%w: SQS client unavailable", types.ErrConfiguration)
	}
	if err := awslib.NewSQSConsumer(client, config.EmailQueue(), handler).Listen(ctx); err != nil {
		return err
	}
	if dlq := config.DeadLetterQueue(); dlq != "" {
		if err := awslib.NewSQSConsumer(client, dlq, DeadLetterHandler).Listen(ctx); err != nil {
			log.Printf("[SQS] DLQ consumer not started: %s\n", err.Error())
		}
	}
	return nil
}
