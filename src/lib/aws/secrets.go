package aws

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/tidwall/gjson"
)

type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadSecrets exports every key of a JSON secret into the environment. Values
// already present in the environment win.
func LoadSecrets(ctx context.Context, client SecretsAPI, secretID string) (int, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		log.Printf("[Secrets] Unable to read %s: %s\n", secretID, err.Error())
		return 0, err
	}
	raw := aws.ToString(out.SecretString)
	if !gjson.Valid(raw) {
		return 0, errors.New("secret is not a JSON object")
	}
	loaded := 0
	gjson.Parse(raw).ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if _, exists := os.LookupEnv(k); exists {
			return true
		}
		if err := os.Setenv(k, value.String()); err != nil {
			log.Printf("[Secrets] Unable to export %s: %s\n", k, err.Error())
			return true
		}
		loaded++
		return true
	})
	log.Printf("[Secrets] Loaded %d values from %s\n", loaded, secretID)
	return loaded, nil
}
