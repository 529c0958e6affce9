package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/skillswap/skillswap/api"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/mail"
	"github.com/skillswap/skillswap/service/notify"
	"github.com/skillswap/skillswap/service/pubsub"
	"github.com/skillswap/skillswap/service/worker"
	"github.com/skillswap/skillswap/util"
)

func main() {
	// Initialize logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config from .env
	config := util.LoadConfig(".env")

	// Connect to database
	queries, err := db.NewQueries(config)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run auto migration
	if err = queries.AutoMigration(); err != nil {
		logger.Error("Failed to run auto migration", "error", err)
		os.Exit(1)
	}

	// Create the live-update hubs
	hub := pubsub.NewHub()
	notifyHub := notify.NewHub[db.Notification]()
	conversationHub := notify.NewHub[notify.ConversationChange]()

	// Create the background task distributor and processor
	redisOpts := asynq.RedisClientOpt{Addr: config.RedisAddr}
	distributor := worker.NewRedisTaskDistributor(redisOpts, logger)

	mailService := mail.NewEmailService(config)
	processor := worker.NewRedisTaskProcessor(redisOpts, queries, mailService, notifyHub, hub, logger)
	if err = processor.Start(); err != nil {
		logger.Error("Failed to start the task processor", "error", err)
		os.Exit(1)
	}

	// Create and start server
	server := api.NewServer(queries, config, hub, notifyHub, conversationHub, distributor, logger)
	if err = server.Start(); err != nil {
		logger.Error("Failed to run the server or server shutdown unexpectedly", "error", err)
		os.Exit(1)
	}
}
