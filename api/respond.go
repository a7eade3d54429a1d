package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/services"
)

// ErrorNotifier is told about unexpected server errors.
type ErrorNotifier interface {
	NotifyError(errMsg string)
}

type Responder struct {
	logger   zerolog.Logger
	notifier ErrorNotifier
}

func NewResponder(logger zerolog.Logger, notifier ErrorNotifier) Responder {
	return Responder{logger: logger, notifier: notifier}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		if r.notifier != nil {
			r.notifier.NotifyError(err.Error())
		}
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Message: "An unexpected error occurred",
			Error:   "Internal Server Error",
			Status:  "error",
		})
		return
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Err(apiErr).Str("cause", apiErr.GetFullError()).Msg("request failed")
		if r.notifier != nil && !apiErr.Retryable {
			r.notifier.NotifyError(apiErr.GetFullError())
		}
	}

	message := apiErr.Details
	if message == "" {
		message = apiErr.Message()
	}
	r.WriteJSONStatus(w, apiErr.StatusCode, ErrorResponse{
		Message:   message,
		Error:     apiErr.Message(),
		Field:     apiErr.Field,
		Status:    "error",
		Retryable: apiErr.Retryable,
	})
}

// maxJSONBodyBytes caps JSON request bodies.
const maxJSONBodyBytes = 1 << 20

// decodeJSON decodes a request body into dst, rejecting unknown keys and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError

		switch {
		case errors.As(err, &maxErr):
			return errs.NewMaxBodySizeExceededError(maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errs.NewMalformedPayloadError("empty", err)
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return errs.NewInvalidJSONError(err)
		case errors.As(err, &typeErr):
			return errs.NewInvalidFieldError(typeErr.Field, fmt.Sprintf("must be of type %s", typeErr.Type))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return errs.NewInvalidFieldError(field, "is not an accepted field")
		default:
			return errs.NewInvalidJSONError(err)
		}
	}

	if dec.More() {
		return errs.NewInvalidJSONError(errors.New("unexpected data after JSON body"))
	}
	return nil
}

// mailErrorNotifier emails unexpected server errors to the operator.
type mailErrorNotifier struct {
	mailer    services.EmailSender
	recipient string
	logger    zerolog.Logger
}

func newMailErrorNotifier(mailer services.EmailSender, recipient string, logger zerolog.Logger) ErrorNotifier {
	if mailer == nil || !mailer.Enabled() || recipient == "" {
		return nil
	}
	return mailErrorNotifier{mailer: mailer, recipient: recipient, logger: logger}
}

func (n mailErrorNotifier) NotifyError(errMsg string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := n.mailer.SendEmail(ctx, services.Email{
			To:      []string{n.recipient},
			Subject: "Portfolio backend error",
			Text:    errMsg,
		})
		if err != nil {
			n.logger.Error().Err(err).Msg("Error sending error notification")
		}
	}()
}
