package persistence

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestNewRedisDisabled(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: false}, zap.NewNop())

	if r.Available() {
		t.Error("Available() = true for disabled redis")
	}
	if err := r.Ping(context.Background()); !errors.Is(err, ErrRedisDisabled) {
		t.Errorf("Ping() error = %v, want ErrRedisDisabled", err)
	}
	if r.NewLimiterStorage() != nil {
		t.Error("NewLimiterStorage() should be nil without a client")
	}
	r.Close()
}

func TestPostgresPingWithoutPool(t *testing.T) {
	var p *Postgres
	if err := p.Ping(context.Background()); err == nil {
		t.Error("Ping() on nil pool should fail")
	}
}
