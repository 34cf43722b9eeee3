package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mentors-mantra", cfg.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Test.PointsPerCorrect)
	assert.Equal(t, 50, cfg.Test.MaxQuestionCount)
	assert.Equal(t, 3*time.Hour, cfg.Test.MaxDuration)
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.Chat.Model)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoad_PostgresNeedsCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load(context.Background())
	assert.Error(t, err)

	t.Setenv("PG_USER", "mentor")
	t.Setenv("PG_DATABASE", "mantra")
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	driver, dsn, err := cfg.Database.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Contains(t, dsn, "dbname=mantra")
}

func TestLoad_InstructorEmails(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("INSTRUCTOR_EMAILS", "a@example.com,b@example.com")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.SMTP.InstructorEmails)
}

func TestParseInto_Section(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "bank.db")

	var db Database
	require.NoError(t, ParseInto(&db))
	driver, dsn, err := db.DSN()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Contains(t, dsn, "bank.db")
}
