package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"magiceraser/internal/history"
	"magiceraser/internal/infra"
	"magiceraser/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag  = flag.String("key", "", "Gemini API key to store (fallbacks to GEMINI_API_KEY)")
		noteFlag = flag.String("note", "", "Free-form note stored with the key")
		show     = flag.Bool("show", false, "Print the stored key, masked, and exit")
		revoke   = flag.Bool("revoke", false, "Delete the stored key and exit")
	)
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fail("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fail("failed to create pool: %v", err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", os.Getenv("LOG_LEVEL")).With().Str("cmd", "geminikey").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	// the token table may not exist before the API has run once
	if err := history.NewPGRecorder(runner).EnsureSchema(ctx); err != nil {
		fail("failed to prepare schema: %v", err)
	}
	store := credentials.NewStore(runner)

	switch {
	case *show:
		key, ok, err := store.Lookup(ctx, credentials.ProviderGemini)
		if err != nil {
			fail("%v", err)
		}
		if !ok {
			fmt.Println("no gemini api key stored")
			return
		}
		fmt.Printf("%s (updated %s)\n", key.Masked(), key.UpdatedAt.UTC().Format(time.RFC3339))
	case *revoke:
		existed, err := store.Revoke(ctx, credentials.ProviderGemini)
		if err != nil {
			fail("%v", err)
		}
		if existed {
			fmt.Println("gemini api key revoked")
		} else {
			fmt.Println("no gemini api key stored")
		}
	default:
		key := strings.TrimSpace(*keyFlag)
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		}
		if key == "" {
			fail("GEMINI API key is required via -key or environment")
		}
		props := map[string]any{"source": "geminikey"}
		if note := strings.TrimSpace(*noteFlag); note != "" {
			props["note"] = note
		}
		updated, err := store.Put(ctx, credentials.ProviderGemini, key, props)
		if err != nil {
			fail("failed to persist gemini api key: %v", err)
		}
		fmt.Printf("gemini api key stored at %s\n", updated.UTC().Format(time.RFC3339))
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
