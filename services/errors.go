package services

import (
	"errors"
	"fmt"
)

// Классы ошибок движка. Конкретные причины оборачивают класс через fmt.Errorf("%w: ...").
var (
	// Операция вне своей фазы жизненного цикла (запись в заполненный турнир и т.п.)
	ErrInvalidState = errors.New("invalid state")
	// Вызывающий не является нужным участником
	ErrUnauthorized = errors.New("unauthorized caller")
	// Эскалация раньше таймера или при уже активной более сильной эскалации
	ErrPrecedenceViolation = errors.New("escalation precedence violation")
	ErrValueMismatch       = errors.New("value does not match entry fee")
	ErrIllegalMove         = errors.New("illegal move")

	ErrNotFound          = errors.New("requested resource not found")
	ErrReentrantCall     = errors.New("reentrant call rejected")
	ErrTierExists        = errors.New("tier already registered")
	ErrInvalidTierConfig = errors.New("invalid tier configuration")
)

// Специфичные ошибки, каждая оборачивает один из классов выше.
var (
	ErrNotEnrolling         = fmt.Errorf("%w: instance is not enrolling", ErrInvalidState)
	ErrNotInProgress        = fmt.Errorf("%w: instance is not in progress", ErrInvalidState)
	ErrAlreadyEnrolled      = fmt.Errorf("%w: caller already enrolled", ErrInvalidState)
	ErrInstanceFull         = fmt.Errorf("%w: instance is full", ErrInvalidState)
	ErrMatchNotActive       = fmt.Errorf("%w: match is not in progress", ErrInvalidState)
	ErrNotEnoughEnrolled    = fmt.Errorf("%w: not enough enrolled players", ErrInvalidState)
	ErrNotLonePlayer        = fmt.Errorf("%w: instance must have exactly one enrolled player", ErrInvalidState)
	ErrRaffleBelowThreshold = fmt.Errorf("%w: raffle threshold not reached", ErrInvalidState)
	ErrNoRaffleCandidates   = fmt.Errorf("%w: no enrolled players to draw from", ErrInvalidState)
	ErrMoverTimedOut        = fmt.Errorf("%w: current mover has run out of time", ErrInvalidState)

	ErrNotEnrolled       = fmt.Errorf("%w: caller is not enrolled", ErrUnauthorized)
	ErrNotMatchPlayer    = fmt.Errorf("%w: caller does not play in this match", ErrUnauthorized)
	ErrNotMover          = fmt.Errorf("%w: caller is not the current mover", ErrUnauthorized)
	ErrNotOpponent       = fmt.Errorf("%w: caller is not the opponent of the timed-out player", ErrUnauthorized)
	ErrNotAdvanced       = fmt.Errorf("%w: caller has not advanced in this round", ErrUnauthorized)
	ErrNotOutsider       = fmt.Errorf("%w: caller has already taken part in this instance", ErrUnauthorized)
	ErrZeroAddressCaller = fmt.Errorf("%w: zero address caller", ErrUnauthorized)

	ErrTimerNotElapsed = fmt.Errorf("%w: escalation timer has not elapsed", ErrPrecedenceViolation)
)
