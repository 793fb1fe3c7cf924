package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aquaserve/poolops/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyPublicApproval = "approval:public:ip:%s"

// PublicApprovalLimiter throttles the unauthenticated token endpoints per
// client address. Disabled (nil) when no redis is configured.
type PublicApprovalLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPublicApprovalLimiter(cfg config.Config) (*PublicApprovalLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.PublicApprovalRate <= 0 || limitCfg.PublicApprovalBurst <= 0 {
		return nil, errors.New("public approval rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &PublicApprovalLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.PublicApprovalRate,
		burst:   limitCfg.PublicApprovalBurst,
	}, nil
}

func (l *PublicApprovalLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PublicApprovalLimiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyPublicApproval, strings.TrimSpace(clientIP))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
