package server

import (
	"context"
	"errors"
	"spy-game/internal/game"
	"spy-game/internal/service"

	"connectrpc.com/connect"
)

func codeFor(err error) connect.Code {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrUnknownCategory):
		return connect.CodeNotFound
	case errors.Is(err, service.ErrWrongPassphrase):
		return connect.CodePermissionDenied
	case errors.Is(err, game.ErrDuplicatePlayer):
		return connect.CodeAlreadyExists
	case errors.Is(err, game.ErrInvalidTransition),
		errors.Is(err, game.ErrRoleNotRevealed),
		errors.Is(err, game.ErrWheelSpinning),
		errors.Is(err, game.ErrAlreadySettled),
		errors.Is(err, game.ErrTooFewPlayers):
		return connect.CodeFailedPrecondition
	case errors.Is(err, game.ErrInvalidPlayer),
		errors.Is(err, game.ErrInvalidBallot),
		errors.Is(err, game.ErrInvalidWinner),
		errors.Is(err, game.ErrNoWords),
		errors.Is(err, game.ErrInvalidSpyCount),
		errors.Is(err, game.ErrInvalidDifficulty),
		errors.Is(err, game.ErrInvalidRoster):
		return connect.CodeInvalidArgument
	case errors.Is(err, service.ErrGenerationFailed):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	}
	return connect.CodeInternal
}

func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(codeFor(err), err)
}
