package main

import (
	"log"

	"users-server/confs"
	"users-server/db"
	"users-server/logging"
	"users-server/repositories"
	"users-server/server"

	"go.uber.org/zap"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer logger.Sync()

	// connect to database Postgres
	database, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}

	userRepo, err := repositories.NewUserPgRepository(cfg.BcryptCost)
	if err != nil {
		logger.Fatal("failed to build user repository", zap.Error(err))
	}

	// run server
	srv := server.NewServer(cfg, database, userRepo, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
