package aws

import (
	"context"
	"log"
	"strings"

	"hbs/src/lib"
	"hbs/src/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type SQSConsumer struct {
	Name    string
	client  lib.SQSAPI
	handler types.Handler
}

func NewSQSConsumer(client lib.SQSAPI, queue string, handler types.Handler) *SQSConsumer {
	return &SQSConsumer{
		Name:    queue,
		client:  client,
		handler: handler,
	}
}

// Listen long-polls the queue until ctx is done. A message is deleted only after
// the handler accepts it, otherwise it becomes visible again for a retry.
func (s *SQSConsumer) Listen(ctx context.Context) error {
	qurl, err := s.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(s.Name),
	})
	if err != nil {
		log.Printf("Failed to retrieve queue URL for %s: %s\n", s.Name, err.Error())
		return err
	}
	log.Printf("%s: Listening for messages...", s.Name)
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := s.Poll(ctx, qurl.QueueUrl); err != nil {
				log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
				return
			}
		}
	}()
	return nil
}

func (s *SQSConsumer) Poll(ctx context.Context, qurl *string) error {
	output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            qurl,
		WaitTimeSeconds:     20,
		MaxNumberOfMessages: 10,
	})
	if err != nil {
		return err
	}
	for i := range output.Messages {
		m := &output.Messages[i]
		body := strings.Clone(aws.ToString(m.Body))
		if err := s.handler(ctx, body); err != nil {
			log.Printf("[%s] Handler failed for %s: %s\n", s.Name, aws.ToString(m.MessageId), err.Error())
			continue
		}
		lib.SQSDeleteMessage(ctx, s.client, qurl, m)
	}
	return nil
}
