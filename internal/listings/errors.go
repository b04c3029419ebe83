package listings

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/induohouse/induoweb/internal/backend"
)

var (
	ErrNotFound     = errors.New("listing not found")
	ErrUnauthorized = errors.New("not signed in")
	ErrForbidden    = errors.New("not allowed")
)

// User-facing messages.
const (
	MsgLoadFailed   = "Nie udało się załadować ogłoszeń."
	MsgSaveFailed   = "Nie udało się zapisać ogłoszenia."
	MsgCreateFailed = "Błąd podczas dodawania ogłoszenia"
	MsgDeleteFailed = "Nie udało się usunąć ogłoszenia."
	MsgNotFound     = "Nie znaleziono ogłoszenia."
	MsgSignIn       = "Zaloguj się, aby kontynuować."
	MsgForbidden    = "Nie masz uprawnień do tego ogłoszenia."
	MsgRetry        = "Spróbuj ponownie"
	MsgNoResults    = "Brak nieruchomości spełniających kryteria"
	MsgImageFailed  = "Nie udało się przesłać zdjęcia."
)

// FetchFailure is a non-success HTTP response from the backend.
type FetchFailure struct {
	Op      string
	Status  int
	Message string
}

func (e *FetchFailure) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
}

// Unwrap maps well-known statuses onto the package sentinels so callers can
// use errors.Is.
func (e *FetchFailure) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	return nil
}

func failure(op string, resp *backend.Response) error {
	return &FetchFailure{Op: op, Status: resp.Status, Message: backend.MessageFrom(resp.Body)}
}

// UserMessage turns err into a short Polish message. fallback is used for
// anything that is not a recognised condition.
func UserMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return MsgNotFound
	case errors.Is(err, ErrUnauthorized):
		return MsgSignIn
	case errors.Is(err, ErrForbidden):
		return MsgForbidden
	}
	return fallback
}
