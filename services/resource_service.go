package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/repositories"
)

type CreateResourceInput struct {
	Name         string  `json:"name"`
	ResourceType string  `json:"resource_type"`
	Sport        string  `json:"sport"`
	Location     *string `json:"location,omitempty"`
}

type ResourceService interface {
	Create(ctx context.Context, tournamentID string, input CreateResourceInput) (*models.Resource, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]models.Resource, error)
	SetStatus(ctx context.Context, id string, status models.ResourceStatus) (*models.Resource, error)
	Delete(ctx context.Context, id string) error
}

type resourceService struct {
	resourceRepo repositories.ResourceRepository
}

func NewResourceService(resourceRepo repositories.ResourceRepository) ResourceService {
	return &resourceService{resourceRepo: resourceRepo}
}

func (s *resourceService) Create(ctx context.Context, tournamentID string, input CreateResourceInput) (*models.Resource, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: resource name is required", ErrValidationFailed)
	}
	resourceType := input.ResourceType
	if resourceType == "" {
		resourceType = "court"
	}

	resource := &models.Resource{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         input.Name,
		ResourceType: resourceType,
		Sport:        input.Sport,
		Location:     input.Location,
		Status:       models.ResourceAvailable,
	}

	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		if errors.Is(err, repositories.ErrResourceInvalidTournament) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return resource, nil
}

func (s *resourceService) ListByTournament(ctx context.Context, tournamentID string) ([]models.Resource, error) {
	return s.resourceRepo.ListByTournament(ctx, tournamentID)
}

// SetStatus is the manual override for taking a court out of rotation, for
// example for maintenance. Match-driven transitions happen in the scoring and
// board services.
func (s *resourceService) SetStatus(ctx context.Context, id string, status models.ResourceStatus) (*models.Resource, error) {
	switch status {
	case models.ResourceAvailable, models.ResourceInUse, models.ResourceMaintenance:
	default:
		return nil, fmt.Errorf("%w: unknown resource status %q", ErrValidationFailed, status)
	}

	if err := s.resourceRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		if errors.Is(err, repositories.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to update resource status: %w", err)
	}
	return s.resourceRepo.GetByID(ctx, id)
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	err := s.resourceRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}
