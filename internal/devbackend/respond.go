package devbackend

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/types"
)

func writeData(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, types.BackendResponse{Success: true, Data: data})
}

// writeError answers with {success:false,message} and the status mapped from the error code.
func writeError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	// wrapped storage failures keep their detail out of the response
	msg := meta.PublicMessage
	internal := typed.Code() == pkgerrors.CodeDependency || typed.Code() == pkgerrors.CodeInternal
	if m := typed.Message(); m != "" && (!internal || typed.Unwrap() == nil) {
		msg = m
	}

	if logg != nil && meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "devbackend.error", err)
	}

	writeEnvelope(w, meta.HTTPStatus, types.BackendResponse{Success: false, Message: msg})
}

func writeEnvelope(w http.ResponseWriter, status int, payload types.BackendResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
