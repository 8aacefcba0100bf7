package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendzportal/internal/core/apperror"
	"trendzportal/internal/core/security"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, SummaryQueueInline, cfg.SummaryQueue)
	assert.Equal(t, "0 2 * * *", cfg.SummaryCron)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.False(t, cfg.IsProduction())

	jc := cfg.JWT()
	assert.Equal(t, "s3cret", jc.Secret)
	assert.Equal(t, 15*time.Minute, jc.AccessTokenTTL)
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{JWTSecret: "x", Storage: StorageMemory, SummaryQueue: SummaryQueueInline, Timezone: "UTC"}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.Storage = "sqlite"
	assert.Error(t, c.Validate())

	c = base()
	c.SummaryQueue = SummaryQueueOutbox
	assert.Error(t, c.Validate(), "outbox needs postgres")

	c = base()
	c.Timezone = "Mars/Olympus"
	assert.Error(t, c.Validate())

	c = base()
	c.PostingClosedUntil = "31.12.2025"
	assert.Error(t, c.Validate())
}

func TestConfig_Policy(t *testing.T) {
	c := Config{
		PostingClosedUntil: "2026-01-01",
		PostingRules:       `amount <= 1000.0;`,
	}
	p, err := c.Policy()
	require.NoError(t, err)
	ctx := context.Background()

	err = p.Check(ctx, security.Subject{Action: security.ActionPost, Date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)})
	assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))

	assert.NoError(t, p.Check(ctx, security.Subject{
		Action: security.ActionPost, Amount: decimal.NewFromInt(10), Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
	assert.Error(t, p.Check(ctx, security.Subject{
		Action: security.ActionPost, Amount: decimal.NewFromInt(5000), Date: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
}
