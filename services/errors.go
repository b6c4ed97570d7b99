package services

import "errors"

// Shared errors used across services and the HTTP mapping.
var (
	// Generic not-found.
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business-rule failures.
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrNegativeSetScore      = errors.New("set scores must not be negative")
	ErrTooManySets           = errors.New("submission has more sets than the match can hold")
	ErrMatchSidesUnset       = errors.New("match does not have both participants assigned yet")
	ErrTournamentInvalidDate = errors.New("tournament end date must be after start date")
	ErrNotEnoughParticipants = errors.New("not enough participants for a draw")
	ErrUnsupportedFormat     = errors.New("unsupported competition format")

	// Conflicts.
	ErrUserEmailConflict        = errors.New("email address is already in use")
	ErrTournamentNameConflict   = errors.New("tournament name already exists")
	ErrCompetitionNameConflict  = errors.New("competition name already exists in this tournament")
	ErrTeamNameConflict         = errors.New("team name is already in use")
	ErrDrawAlreadyGenerated     = errors.New("draw has already been generated for this competition")
	ErrKnockoutAlreadyGenerated = errors.New("knockout bracket has already been generated")
	ErrGroupStageIncomplete     = errors.New("group stage is incomplete")
	ErrResourceBusy             = errors.New("resource is already assigned to a live match")

	// Authentication and authorization.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrAccessCodeInvalid    = errors.New("access code is not valid")
	ErrAccessCodeRevoked    = errors.New("access code has been revoked")
	ErrAccessCodeExpired    = errors.New("access code has expired")

	// Entity-specific not-found (more context than the generic one).
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrAccessCodeNotFound  = errors.New("access code not found")

	// Scoring flow.
	ErrScoringLockRequired = errors.New("an active scoring lock is required to submit scores")
	ErrScoreNotPending     = errors.New("score is not awaiting confirmation")
	ErrMatchAlreadyFinal   = errors.New("match score has already been confirmed")
)
