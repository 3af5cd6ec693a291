package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/storage/postgres"
	"github.com/carboni123/nanobanana/internal/util"
)

func main() {
	userIDStr := flag.String("user", "", "User ID (UUID) the key belongs to")
	name := flag.String("name", apikey.DefaultKeyName, "Display name for the key")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	userID, err := uuid.Parse(*userIDStr)
	if err != nil {
		log.Fatalf("A valid -user UUID is required: %v", err)
	}

	fullKey, keyHash, prefix, err := util.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}

	fmt.Printf("Generated API Key (SAVE THIS securely, it is shown only once!):\n%s\n\n", fullKey)
	fmt.Printf("Prefix: %s\n", prefix)

	logger, _ := zap.NewDevelopment()
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	repo := postgres.NewAPIKeyRepository(pool, logger)

	created, err := repo.Create(context.Background(), &apikey.APIKey{
		UserID:   userID,
		KeyHash:  keyHash,
		Name:     *name,
		Prefix:   prefix,
		IsActive: true,
	})
	if err != nil {
		log.Fatalf("Failed to save API key to database: %v", err)
	}

	fmt.Printf("\nAPI Key saved to database with ID: %s\n", created.ID)
}
