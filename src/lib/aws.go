package lib

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	awsConfig   *aws.Config
	awsConfigMu sync.Mutex
)

// awsGetSdkConfig loads the default credential chain and, when AWS_IAM_ROLE_ARN
// is set, assumes that role. Role credentials are cached and refreshed by the SDK.
func awsGetSdkConfig(ctx context.Context) (*aws.Config, error) {
	awsConfigMu.Lock()
	defer awsConfigMu.Unlock()
	if awsConfig != nil {
		return awsConfig, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Error loading default config: %s\n", err.Error())
		return nil, err
	}
	if iamRole := os.Getenv("AWS_IAM_ROLE_ARN"); iamRole != "" {
		cfg.Credentials = assumeRoleCredentials(sts.NewFromConfig(cfg), iamRole)
	}
	awsConfig = &cfg
	return awsConfig, nil
}

func assumeRoleCredentials(client stscreds.AssumeRoleAPIClient, iamRole string) *aws.CredentialsCache {
	return aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(client, iamRole, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = "hbs-api"
	}))
}

func AWSGetSQSClient() *sqs.Client {
	cfg, err := awsGetSdkConfig(context.Background())
	if err != nil {
		log.Printf("Failed to initialize SQS client: %s\n", err.Error())
		return nil
	}
	return sqs.NewFromConfig(*cfg)
}

func AWSGetSNSClient() *sns.Client {
	cfg, err := awsGetSdkConfig(context.Background())
	if err != nil {
		log.Printf("Failed to initialize SNS client: %s\n", err.Error())
		return nil
	}
	return sns.NewFromConfig(*cfg)
}

func AWSGetSESClient() *ses.Client {
	cfg, err := awsGetSdkConfig(context.Background())
	if err != nil {
		log.Printf("Failed to initialize SES client: %s\n", err.Error())
		return nil
	}
	return ses.NewFromConfig(*cfg)
}

func AWSGetSecretsManagerClient() *secretsmanager.Client {
	cfg, err := awsGetSdkConfig(context.Background())
	if err != nil {
		log.Printf("Failed to initialize Secrets Manager client: %s\n", err.Error())
		return nil
	}
	return secretsmanager.NewFromConfig(*cfg)
}

// SQSAPI is the subset of the SQS client used here.
type SQSAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func SQSProduceMessage(ctx context.Context, client SQSAPI, queue string, body string) error {
	qurl, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queue),
	})
	if err != nil {
		log.Printf("Failed to retrieve queue URL for %s: %s\n", queue, err.Error())
		return err
	}
	out, err := client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    qurl.QueueUrl,
		MessageBody: aws.String(body),
	})
	if err != nil {
		log.Printf("[SQS] Error sending message to %s: %s\n", queue, err.Error())
		return err
	}
	log.Printf("[SQS] Sent message %s to %s\n", aws.ToString(out.MessageId), queue)
	return nil
}

func SQSDeleteMessage(ctx context.Context, client SQSAPI, qurl *string, msg *sqsTypes.Message) {
	_, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      qurl,
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		log.Printf("Error deleting message from queue: %s\n", err.Error())
		return
	}
	log.Printf("Deleted message from queue: %s\n", aws.ToString(msg.MessageId))
}
