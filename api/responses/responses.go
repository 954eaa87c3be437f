package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/types"
)

// tenantCodes are the codes whose message is always written for the tenant.
var tenantCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:    true,
	pkgerrors.CodeForbidden:     true,
	pkgerrors.CodeUnauthorized:  true,
	pkgerrors.CodeNotFound:      true,
	pkgerrors.CodeConflict:      true,
	pkgerrors.CodeStateConflict: true,
	pkgerrors.CodeRateLimit:     true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	_ = writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError writes the JSON error envelope used by the /api/views routes.
// Server-side failures log at error level, client failures at warn.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	body := types.APIError{Code: string(typed.Code()), Message: PublicMessage(typed)}
	if details := typed.Details(); meta.DetailsAllowed && details != nil {
		body.Details = details
	}

	if logg == nil {
		logg = logger.Nop()
	}
	logCtx := logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(logCtx, "request.error", err)
	} else {
		logg.Warn(logCtx, "request.error")
	}

	if werr := writeJSON(w, meta.HTTPStatus, types.ErrorEnvelope{Error: body}); werr != nil {
		logg.Warn(logg.WithError(ctx, werr), "response.encode_failed")
	}
}

// PublicMessage is the message a client may see for typed. Internal and
// dependency failures only expose their generic text unless the backend
// supplied the message.
func PublicMessage(typed *pkgerrors.Error) string {
	msg := typed.Message()
	if msg != "" && (tenantCodes[typed.Code()] || typed.IsRemote()) {
		return msg
	}
	return pkgerrors.MetadataFor(typed.Code()).PublicMessage
}

// View models are per-tenant and never cached.
func writeJSON(w http.ResponseWriter, status int, payload any) error {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}
