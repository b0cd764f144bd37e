package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher fans reconciliation alerts out to whoever subscribes to the topic.
type SNSPublisher struct {
	TopicArn string
	inner    SNSAPI
}

func NewSNSPublisher(client SNSAPI, topicArn string) *SNSPublisher {
	return &SNSPublisher{TopicArn: topicArn, inner: client}
}

func (s *SNSPublisher) Publish(ctx context.Context, subject, message string) error {
	if s == nil || s.inner == nil || s.TopicArn == "" {
		return nil
	}
	// SNS rejects subjects longer than 100 characters.
	if len(subject) > 100 {
		subject = subject[:100]
	}
	out, err := s.inner.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.TopicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		log.Printf("[SNS] Error publishing to %s: %s\n", s.TopicArn, err.Error())
		return err
	}
	log.Printf("[SNS] Published %s\n", aws.ToString(out.MessageId))
	return nil
}
