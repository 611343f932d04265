package response

import (
	"ctchen222/tic-tac-toe-minimax/internal/api/service"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"ctchen222/tic-tac-toe-minimax/internal/repository"
	"errors"
	"net/http"
)

// StatusFor maps a domain error to the HTTP status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidCell), errors.Is(err, game.ErrInvalidMark):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrCellOccupied),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrGameFinished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing text for err. Internal failures are not
// described to clients.
func Message(err error) string {
	if StatusFor(err) == http.StatusInternalServerError {
		return http.StatusText(http.StatusInternalServerError)
	}
	return err.Error()
}
