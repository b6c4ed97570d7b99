package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

// accessCodeLength is the number of characters in a generated scoring code.
// Codes are short enough to read out over a desk but long enough that guessing
// one is impractical for a club event.
const accessCodeLength = 8

// accessCodeCharset deliberately omits 0/O and 1/I.
const accessCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type AccessGrant struct {
	AccessCode  *models.AccessCode  `json:"access_code"`
	Competition *models.Competition `json:"competition"`
}

type AccessService interface {
	ValidateCode(ctx context.Context, code string) (*AccessGrant, error)
	CreateCode(ctx context.Context, input CreateAccessCodeInput) (*models.AccessCode, error)
	ListCodes(ctx context.Context, competitionID string) ([]models.AccessCode, error)
	RevokeCode(ctx context.Context, id string) error
}

type CreateAccessCodeInput struct {
	CompetitionID string     `json:"competition_id"`
	Label         *string    `json:"label,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type accessService struct {
	codeRepo        repositories.AccessCodeRepository
	competitionRepo repositories.CompetitionRepository
}

func NewAccessService(
	codeRepo repositories.AccessCodeRepository,
	competitionRepo repositories.CompetitionRepository,
) AccessService {
	return &accessService{
		codeRepo:        codeRepo,
		competitionRepo: competitionRepo,
	}
}

// ValidateCode checks a scorer-entered code and resolves the competition it
// unlocks. Invalid, revoked and expired codes each get their own error so the
// desk can tell the scorer what went wrong.
func (s *accessService) ValidateCode(ctx context.Context, code string) (*AccessGrant, error) {
	if code == "" {
		return nil, ErrAccessCodeInvalid
	}

	ac, err := s.codeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrAccessCodeNotFound) {
			return nil, ErrAccessCodeInvalid
		}
		return nil, fmt.Errorf("failed to look up access code: %w", err)
	}

	if ac.Revoked {
		return nil, ErrAccessCodeRevoked
	}
	if ac.ExpiresAt != nil && !time.Now().Before(*ac.ExpiresAt) {
		return nil, ErrAccessCodeExpired
	}

	competition, err := s.competitionRepo.GetByID(ctx, ac.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition for access code: %w", err)
	}

	return &AccessGrant{AccessCode: ac, Competition: competition}, nil
}

func (s *accessService) CreateCode(ctx context.Context, input CreateAccessCodeInput) (*models.AccessCode, error) {
	if _, err := s.competitionRepo.GetByID(ctx, input.CompetitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}

	ac := &models.AccessCode{
		ID:            uuid.NewString(),
		CompetitionID: input.CompetitionID,
		Label:         input.Label,
		ExpiresAt:     input.ExpiresAt,
	}

	// Retry on the rare collision with an existing code.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateAccessCode(accessCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate access code: %w", err)
		}
		ac.Code = code

		err = s.codeRepo.Create(ctx, ac)
		if err == nil {
			return ac, nil
		}
		if !errors.Is(err, repositories.ErrAccessCodeConflict) {
			return nil, fmt.Errorf("failed to store access code: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to generate a unique access code")
}

func (s *accessService) ListCodes(ctx context.Context, competitionID string) ([]models.AccessCode, error) {
	return s.codeRepo.ListByCompetition(ctx, competitionID)
}

func (s *accessService) RevokeCode(ctx context.Context, id string) error {
	err := s.codeRepo.Revoke(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAccessCodeNotFound) {
			return ErrAccessCodeNotFound
		}
		return fmt.Errorf("failed to revoke access code: %w", err)
	}
	return nil
}

func generateAccessCode(length int) (string, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	b := make([]byte, length)
	for i, rb := range randomBytes {
		b[i] = accessCodeCharset[int(rb)%len(accessCodeCharset)]
	}
	return string(b), nil
}
