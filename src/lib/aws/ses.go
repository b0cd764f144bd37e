package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func SESSendMessage(ctx context.Context, c SESAPI, from string, to []string, subject, html, text string) (string, error) {
	body := &types.Body{
		Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(html)},
	}
	if text != "" {
		body.Text = &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(text)}
	}
	out, err := c.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: to},
		Source:      aws.String(from),
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body:    body,
		},
	})
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return "", err
	}
	log.Printf("Sent email with id: %s\n", aws.ToString(out.MessageId))
	return aws.ToString(out.MessageId), nil
}
