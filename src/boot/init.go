package boot

import (
	"context"
	"log"
	"time"

	"hbs/src/common"
	"hbs/src/config"
	"hbs/src/db"
	"hbs/src/lib"
	awslib "hbs/src/lib/aws"
	"hbs/src/lib/mailer"
	"hbs/src/models"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(models.All()...)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// LoadSecrets pulls AWS_SECRETS_ID into the environment before anything else
// reads configuration.
func LoadSecrets(ctx context.Context) {
	secretID := config.SecretsID()
	if secretID == "" {
		return
	}
	client := lib.AWSGetSecretsManagerClient()
	if client == nil {
		log.Println("[Secrets] Secrets Manager unavailable, using environment only")
		return
	}
	n, err := awslib.LoadSecrets(ctx, client, secretID)
	if err != nil {
		log.Printf("[Secrets] Error loading %s: %s\n", secretID, err.Error())
		return
	}
	log.Printf("[Secrets] Loaded %d value(s) from %s\n", n, secretID)
}

type Digester interface {
	AuthorizationDigest(ctx context.Context) (int, error)
}

// InitWorker starts the email queue consumers and the authorization-hold digest.
func InitWorker(ctx context.Context, digest Digester) error {
	if err := common.StartConsumers(ctx, mailer.NewDelivery()); err != nil {
		log.Printf("Error starting consumers: %s\n", err.Error())
		return err
	}
	return InitScheduler(digest)
}

func InitScheduler(digest Digester) error {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return err
	}
	if _, err := lib.CreateIntervalJob("AuthorizationDigest", config.DigestInterval(), 2*time.Minute, func(ctx context.Context) error {
		_, err := digest.AuthorizationDigest(ctx)
		return err
	}); err != nil {
		return err
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
	return nil
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
