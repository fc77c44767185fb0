// Package followup issues and redeems the signed tokens that let an
// applicant rate their submission experience after the fact.
//
// Tokens are HS256 JWTs carrying the application id as subject and a random
// jti. They are stateless to verify; redemption is made one-time through
// Redis keyed on the jti.
package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"grant-intake/internal/common/logger"
	"grant-intake/internal/common/metrics"
)

var (
	ErrInvalidToken = errors.New("invalid follow-up token")
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenUsed    = fmt.Errorf("%w: already used", ErrInvalidToken)
)

// Claims are the verified contents of a token.
type Claims struct {
	ApplicationID string
	ExpiresAt     int64
	Nonce         string
}

type Service struct {
	config *Config
	logger logger.Logger
	redis  redis.Cmdable
	now    func() time.Time
}

// NewService builds the token service. rdb may be nil, in which case
// Consume only checks the signature and expiry.
func NewService(cfg *Config, rdb redis.Cmdable, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid followup config: %w", err)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{config: cfg, logger: log, redis: rdb, now: time.Now}, nil
}

// Generate issues a token bound to applicationID.
func (s *Service) Generate(ctx context.Context, applicationID string) (string, error) {
	if applicationID == "" {
		metrics.FollowupTokens.WithLabelValues("generate", "error").Inc()
		return "", fmt.Errorf("application id is required")
	}

	nonce, err := uuid.NewRandom()
	if err != nil {
		metrics.FollowupTokens.WithLabelValues("generate", "error").Inc()
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Subject:   applicationID,
		ID:        nonce.String(),
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(s.config.TTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		metrics.FollowupTokens.WithLabelValues("generate", "error").Inc()
		return "", fmt.Errorf("sign token: %w", err)
	}

	metrics.FollowupTokens.WithLabelValues("generate", "success").Inc()
	return token, nil
}

// Verify checks signature and expiry without consuming the token.
func (s *Service) Verify(token string) (*Claims, error) {
	claims, err := s.verify(token)
	metrics.FollowupTokens.WithLabelValues("verify", metrics.Outcome(err)).Inc()
	return claims, err
}

func (s *Service) verify(token string) (*Claims, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &registered,
		func(*jwt.Token) (interface{}, error) { return []byte(s.config.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if registered.Subject == "" || registered.ID == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		ApplicationID: registered.Subject,
		ExpiresAt:     registered.ExpiresAt.Unix(),
		Nonce:         registered.ID,
	}, nil
}

// Consume verifies token and marks it used. A second Consume of the same
// token returns ErrTokenUsed.
func (s *Service) Consume(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.verify(token)
	if err != nil {
		metrics.FollowupTokens.WithLabelValues("consume", "rejected").Inc()
		return nil, err
	}
	if s.redis == nil {
		metrics.FollowupTokens.WithLabelValues("consume", "success").Inc()
		return claims, nil
	}

	ttl := time.Unix(claims.ExpiresAt, 0).Sub(s.now())
	first, err := s.redis.SetNX(ctx, s.config.KeyPrefix+claims.Nonce, claims.ApplicationID, ttl).Result()
	if err != nil {
		metrics.FollowupTokens.WithLabelValues("consume", "error").Inc()
		s.logger.Error("Failed to record follow-up token use", map[string]interface{}{
			"applicationId": claims.ApplicationID,
			"error":         err,
		})
		return nil, fmt.Errorf("record token use: %w", err)
	}
	if !first {
		metrics.FollowupTokens.WithLabelValues("consume", "rejected").Inc()
		return nil, ErrTokenUsed
	}

	metrics.FollowupTokens.WithLabelValues("consume", "success").Inc()
	return claims, nil
}
