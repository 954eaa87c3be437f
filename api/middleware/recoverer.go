package middleware

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
)

const panicPageMessage = "Something went wrong. Please try again."

// Recoverer turns a panic into a 500. http.ErrAbortHandler is re-raised.
// JSON routes are answered through writeErr.
func Recoverer(logg *logger.Logger, writeErr ErrorWriter) func(http.Handler) http.Handler {
	writeErr = writeErr.orDefault(nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					recovered(logg, writeErr, w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func recovered(logg *logger.Logger, writeErr ErrorWriter, w http.ResponseWriter, r *http.Request, rec any) {
	if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
		panic(rec)
	}
	err := fmt.Errorf("panic: %v", rec)
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithField(ctx, "panic", rec)
		logg.Error(ctx, "panic.recovered", err)
	}
	if isJSONRoute(r) {
		writeErr(ctx, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
		return
	}
	http.Error(w, panicPageMessage, http.StatusInternalServerError)
}
