package cart

import (
	"context"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

// LockView names the advisory updating flag shared by every cart mutation,
// whether issued from the cart view or the catalog.
const LockView = "cart"

// Locker raises and lowers per-session advisory flags.
type Locker interface {
	TryLock(ctx context.Context, sessionID, view string) (token string, ok bool, err error)
	Unlock(ctx context.Context, sessionID, view, token string) error
	IsLocked(ctx context.Context, sessionID, view string) (bool, error)
}

// WithLock runs fn while holding the session's cart flag. It does not
// protect against other sessions or devices; the backend stays authoritative.
func WithLock(ctx context.Context, locker Locker, fn func() error) error {
	sid := session.SessionIDFromContext(ctx)
	token, ok, err := locker.TryLock(ctx, sid, LockView)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "raise cart updating flag")
	}
	if !ok {
		return ErrUpdating
	}
	defer func() {
		_ = locker.Unlock(context.WithoutCancel(ctx), sid, LockView, token)
	}()
	return fn()
}

// Updating reports whether the session's cart flag is raised. Errors read as
// not updating.
func Updating(ctx context.Context, locker Locker) bool {
	locked, err := locker.IsLocked(ctx, session.SessionIDFromContext(ctx), LockView)
	return err == nil && locked
}
