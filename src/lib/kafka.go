package lib

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"hbs/src/types"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func GetKafkaProducerConfig(clientId string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"client.id":         clientId,
		"acks":              "all",
	}
}

func GetKafkaConsumerConfig(groupId string) *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":  os.Getenv("KAFKA_BROKER"),
		"group.id":           groupId,
		"auto.offset.reset":  "smallest",
		"retry.backoff.ms":   100,
		"enable.auto.commit": false,
	}
}

func KafkaEnabled() bool {
	return os.Getenv("KAFKA_BROKER") != ""
}

// KafkaProduceMessage publishes payload as JSON and waits for delivery.
func KafkaProduceMessage(clientId string, topic string, payload any) error {
	p, err := kafka.NewProducer(GetKafkaProducerConfig(clientId))
	if err != nil {
		log.Printf("[Kafka] Error creating producer: %s\n", err.Error())
		return err
	}
	defer p.Close()

	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Kafka] Error encoding payload: %s\n", err.Error())
		return err
	}

	delivery := make(chan kafka.Event, 1)
	err = p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, delivery)
	if err != nil {
		log.Printf("[Kafka] Error producing message to %s: %s\n", topic, err.Error())
		return err
	}
	e := <-delivery
	if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
		log.Printf("[Kafka] Delivery to %s failed: %s\n", topic, m.TopicPartition.Error.Error())
		return m.TopicPartition.Error
	}
	return nil
}

const kafkaRetryBackoff = time.Second

// kafkaCommitter is the part of *kafka.Consumer used per message.
type kafkaCommitter interface {
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Seek(partition kafka.TopicPartition, timeoutMs int) error
}

// handleKafkaMessage commits m once the handler accepts it. A rejected message
// rewinds its partition so it is delivered again before anything after it.
func handleKafkaMessage(ctx context.Context, c kafkaCommitter, m *kafka.Message, handler types.Handler) error {
	if err := handler(ctx, string(m.Value)); err != nil {
		if serr := c.Seek(m.TopicPartition, 0); serr != nil {
			log.Printf("[Kafka] Seek back to %v failed: %s\n", m.TopicPartition, serr.Error())
		}
		return err
	}
	if _, err := c.CommitMessage(m); err != nil {
		log.Printf("[Kafka] Commit failed: %s\n", err.Error())
		return err
	}
	return nil
}

// KafkaConsumer polls topic until ctx is done. A message the handler rejects
// is retried after a short backoff and its offset is not committed.
func KafkaConsumer(ctx context.Context, groupId string, topic string, handler types.Handler) error {
	log.Printf("[Kafka] Initializing consumer for %s...\n", topic)
	c, err := kafka.NewConsumer(GetKafkaConsumerConfig(groupId))
	if err != nil {
		log.Printf("[Kafka] Error creating consumer: %s\n", err.Error())
		return err
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		log.Printf("[Kafka] Error subscribing to %s: %s\n", topic, err.Error())
		c.Close()
		return err
	}
	go func() {
		defer c.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch e := c.Poll(100).(type) {
			case *kafka.Message:
				if err := handleKafkaMessage(ctx, c, e, handler); err != nil {
					log.Printf("[Kafka] Message on %s not processed: %s\n", topic, err.Error())
					select {
					case <-ctx.Done():
						return
					case <-time.After(kafkaRetryBackoff):
					}
				}
			case kafka.Error:
				log.Printf("[Kafka] Error: %v\n", e)
				if e.IsFatal() {
					return
				}
			}
		}
	}()
	return nil
}

func KafkaCreateTopics(ctx context.Context, topics ...string) ([]kafka.TopicResult, error) {
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:         topic,
			NumPartitions: 3,
		})
	}
	result, err := a.CreateTopics(ctx, topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
