package cart

import (
	"errors"

	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
)

var (
	// ErrUpdating is returned while another mutation of the same session's
	// cart holds the updating flag.
	ErrUpdating = pkgerrors.New(pkgerrors.CodeStateConflict, "Cart is being updated, please wait")
	// ErrQuantityTooLow guards the decrement control at quantity 1.
	ErrQuantityTooLow = pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
	// ErrEmptyCart is returned when checkout is requested with nothing to bill.
	ErrEmptyCart = pkgerrors.New(pkgerrors.CodeValidation, "Your cart is empty")
	// ErrItemNotFound is returned when a line is no longer in the cart.
	ErrItemNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "Item is no longer in your cart")
)

const (
	MsgLoadFailed     = "Failed to load cart"
	MsgUpdateFailed   = "Failed to update quantity"
	MsgRemoveFailed   = "Failed to remove item"
	MsgCheckoutFailed = "Checkout failed. Please try again."
)

var localMessages = []*pkgerrors.Error{ErrUpdating, ErrQuantityTooLow, ErrEmptyCart, ErrItemNotFound}

// UserMessage picks the banner text for a failed cart action: a local
// precondition message, the backend message verbatim, or the fallback.
func UserMessage(err error, fallback string) string {
	for _, local := range localMessages {
		if errors.Is(err, local) {
			return local.Message()
		}
	}
	return pkgerrors.UserMessage(err, fallback)
}
