package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

var replayEventsCmd = &cobra.Command{
	Use:   "replay-events",
	Short: "Re-publish ticket.updated for every ticket to Kafka (KAFKA_BROKERS required)",
	RunE:  runReplayEvents,
}

func init() {
	rootCmd.AddCommand(replayEventsCmd)
}

func runReplayEvents(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	if !producer.Enabled() {
		return errors.New("replay-events: KAFKA_BROKERS and KAFKA_TOPIC_TICKET must be set")
	}
	defer producer.Close()

	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close(conn)

	var tickets []model.Ticket
	if err := conn.Order("id ASC").Find(&tickets).Error; err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	log.Info("replay-events: found tickets", "count", len(tickets))

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()
	for i := range tickets {
		service.ReplayTicket(ctx, producer, &tickets[i])
		if (i+1)%50 == 0 || i == len(tickets)-1 {
			log.Info("replay-events: progress", "sent", i+1, "total", len(tickets))
		}
	}
	log.Info("replay-events: done", "count", len(tickets), "topic", cfg.KafkaTopicTicket)
	return nil
}
