package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/mentors-mantra/internal/config"
	"github.com/gokatarajesh/mentors-mantra/internal/db"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, or status")
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	var dbCfg config.Database
	if err := config.ParseInto(&dbCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to read database configuration")
	}
	driver, dsn, err := dbCfg.DSN()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid database configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, db.Driver(driver), dsn)
	if err != nil {
		log.Fatal().Err(err).Str("driver", driver).Msg("failed to open database connection")
	}
	defer conn.Close()

	provider, err := db.NewMigrator(conn, db.Driver(driver))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build migrator")
	}

	switch *command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations up")
		}
		for _, r := range results {
			log.Info().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied")
		}
		log.Info().Int("count", len(results)).Msg("migrations applied successfully")

	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations down")
		}
		log.Info().Str("migration", result.Source.Path).Msg("migration rolled back successfully")

	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get migration status")
		}
		for _, s := range statuses {
			evt := log.Info().Int64("version", s.Source.Version).Str("state", string(s.State))
			if !s.AppliedAt.IsZero() {
				evt = evt.Time("applied_at", s.AppliedAt)
			}
			evt.Msg(s.Source.Path)
		}

	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: up, down, or status")
	}
}
