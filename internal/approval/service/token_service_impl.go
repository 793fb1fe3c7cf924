package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/aquaserve/poolops/internal/approval/domain"
	"github.com/aquaserve/poolops/internal/clock"
	"github.com/aquaserve/poolops/internal/config"
	estimatedomain "github.com/aquaserve/poolops/internal/estimate/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Clock    clock.Clock
	Workflow *config.WorkflowConfigHolder
	Repo     estimatedomain.Repository
}

type TokenService struct {
	db       *gorm.DB
	clock    clock.Clock
	workflow *config.WorkflowConfigHolder
	repo     estimatedomain.Repository
}

func New(p Params) domain.TokenService {
	return &TokenService{
		db:       p.DB,
		clock:    p.Clock,
		workflow: p.Workflow,
		repo:     p.Repo,
	}
}

func (s *TokenService) Issue(ctx context.Context) (domain.IssuedToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return domain.IssuedToken{}, err
	}

	ttl := s.workflow.Current().ApprovalTokenTTL()
	return domain.IssuedToken{
		Token:     base64.RawURLEncoding.EncodeToString(buf),
		ExpiresAt: s.clock.Now().UTC().Add(ttl),
	}, nil
}

func (s *TokenService) Resolve(ctx context.Context, token string) (*estimatedomain.Estimate, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, estimatedomain.ErrNotFound
	}

	estimate, err := s.repo.FindByToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, estimatedomain.ErrNotFound
	}
	return estimate, nil
}

func (s *TokenService) Validate(estimate *estimatedomain.Estimate, now time.Time) error {
	if estimate == nil {
		return estimatedomain.ErrNotFound
	}
	if estimate.TokenExpired(now) {
		return estimatedomain.ErrTokenExpired
	}
	return nil
}
