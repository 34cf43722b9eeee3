package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/auth/jwt"
	"github.com/gokatarajesh/mentors-mantra/internal/config"
	"github.com/gokatarajesh/mentors-mantra/internal/db"
	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
	"github.com/gokatarajesh/mentors-mantra/internal/db/repository"
	"github.com/gokatarajesh/mentors-mantra/internal/question"
)

func main() {
	var (
		command  = flag.String("command", "", "Command: import or add-student")
		file     = flag.String("file", "", "Question manifest (JSON) for import")
		username = flag.String("username", "", "Student username for add-student")
		password = flag.String("password", "", "Student password for add-student")
		email    = flag.String("email", "", "Student email for add-student")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, db.Driver(driver), dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database connection")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn, db.Driver(driver)); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	q := queries.New(conn, db.Driver(driver))

	switch *command {
	case "import":
		if *file == "" {
			log.Fatal().Msg("-file is required for import")
		}
		abs, err := filepath.Abs(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to resolve manifest path")
		}
		items, err := question.LoadManifest(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load manifest")
		}
		bank := question.NewSQLBank(repository.NewQuestionRepository(q))
		now := time.Now().Unix()
		imported := 0
		for _, item := range items {
			if err := bank.Import(ctx, item.Question, item.Image, now); err != nil {
				log.Error().Err(err).Str("question_id", item.Question.ID).Msg("skipped question")
				continue
			}
			imported++
		}
		log.Info().Int("imported", imported).Int("total", len(items)).Msg("import finished")

	case "add-student":
		var sec config.Security
		if err := config.ParseInto(&sec); err != nil {
			log.Fatal().Err(err).Msg("failed to read security configuration")
		}
		svc := auth.NewService(repository.NewUserRepository(q), auth.ServiceOptions{
			TokenConfig: jwt.TokenConfig{Secret: []byte(sec.JWTSecret), AccessTTL: sec.AccessTTL},
			BcryptCost:  sec.BcryptCost,
		}, log.Logger)
		req := auth.RegisterRequest{Username: *username, Password: *password, Email: *email}
		if err := validator.New().Struct(req); err != nil {
			log.Fatal().Err(err).Msg("invalid student details")
		}
		student, _, err := svc.Register(ctx, req)
		if err != nil {
			log.Fatal().Err(err).Str("username", *username).Msg("failed to add student")
		}
		log.Info().Str("student_id", student.ID).Str("username", student.Username).Msg("student added")

	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: import or add-student")
	}
}
