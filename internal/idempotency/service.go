package idempotency

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/db/models"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
)

// ClaimResult is the outcome of attempting to claim an idempotency key.
// Exactly one of the three shapes holds: Fresh (caller proceeds and must
// Finalize), a replay (Replay true with the stored status and body), or an
// error because the original request is still in flight.
type ClaimResult struct {
	Fresh        bool
	Replay       bool
	StatusCode   int
	ResponseBody string
}

// Service is the idempotency gatekeeper for client-submitted mutations.
type Service interface {
	Claim(ctx context.Context, key, method, path string) (*ClaimResult, error)
	Finalize(ctx context.Context, key, method, path string, statusCode int, responseBody string) error
}

type service struct {
	repo Repository
}

// NewService wires the gatekeeper with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("idempotency repository required")
	}
	return &service{repo: repo}, nil
}

// Claim atomically inserts the (key, method, path) row. Losing the insert
// race means a duplicate: a finalized original is replayed verbatim, an
// unfinished one surfaces as an in-flight conflict.
func (s *service) Claim(ctx context.Context, key, method, path string) (*ClaimResult, error) {
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if method == "" || path == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method and path are required")
	}

	record := &models.IdempotencyKey{Key: key, Method: method, Path: path}
	err := s.repo.Insert(ctx, record)
	if err == nil {
		return &ClaimResult{Fresh: true}, nil
	}
	if !db.IsUniqueViolation(err, models.IdempotencyScopeConstraint) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}

	existing, findErr := s.repo.Find(ctx, key, method, path)
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			// Insert lost to a row that vanished before we could read it.
			// Treat as in flight; the caller retries.
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "original request still in progress")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load idempotency key")
	}
	if existing.Finalized() {
		return &ClaimResult{
			Replay:       true,
			StatusCode:   *existing.StatusCode,
			ResponseBody: *existing.ResponseBody,
		}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "original request still in progress")
}

// Finalize stores the terminal outcome so every later duplicate replays it.
func (s *service) Finalize(ctx context.Context, key, method, path string, statusCode int, responseBody string) error {
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if statusCode == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "status code is required")
	}
	if err := s.repo.Finalize(ctx, key, method, path, statusCode, responseBody); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize idempotency key")
	}
	return nil
}
