package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/rallydesk/rallydesk/models"
)

const (
	jwtClaimUserID        = "user_id"
	jwtClaimRole          = "role"
	jwtClaimCompetitionID = "competition_id"
)

func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context")
	}

	userID, ok := claims[jwtClaimUserID].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("missing or invalid %q claim in token", jwtClaimUserID)
	}
	return userID, nil
}

func GetUserRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context")
	}

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", fmt.Errorf("missing or invalid %q claim in token", jwtClaimRole)
	}

	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RoleOrganizer, models.RoleReferee:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}

// GetScoringCompetitionFromContext returns the competition a scoring token
// unlocks. An empty result with nil error means the caller is staff, not a
// code-based scorer.
func GetScoringCompetitionFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(scoringContextKey).(jwt.MapClaims)
	if !ok {
		if _, staff := ctx.Value(userContextKey).(jwt.MapClaims); staff {
			return "", nil
		}
		return "", errors.New("scoring claims not found in context")
	}

	competitionID, ok := claims[jwtClaimCompetitionID].(string)
	if !ok || competitionID == "" {
		return "", fmt.Errorf("missing or invalid %q claim in scoring token", jwtClaimCompetitionID)
	}
	return competitionID, nil
}

// ScorerRoleFromContext resolves the effective role for a score submission.
// Staff keep their own role; code-based scorers count as referees, so their
// scores land as pending until an organizer confirms them.
func ScorerRoleFromContext(ctx context.Context) models.UserRole {
	if role, err := GetUserRoleFromContext(ctx); err == nil {
		return role
	}
	return models.RoleReferee
}
