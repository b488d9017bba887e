package drive

import "errors"

// Error kinds returned by engine operations. Callers classify failures
// with errors.Is; index and remote failures are returned wrapped with
// context instead of mapped onto a kind.
var (
	// ErrNotAuthorized means the remote handle has no usable session.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound means the referenced item has no row in the local index.
	ErrNotFound = errors.New("not found in local index")

	// ErrInvalidPath means the input names no workable location: an
	// unmappable virtual path, the root where an item is required, an
	// empty name, or a destination inside the subtree being moved.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidState means the item exists but is not where the
	// operation needs it, such as recycling something already in the bin
	// or restoring something outside it.
	ErrInvalidState = errors.New("invalid item state")
)
