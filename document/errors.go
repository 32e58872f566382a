package document

import "errors"

// Recoverable error taxonomy. All of these surface to the caller and
// leave the session usable; none terminate it.
var (
	ErrInvalidPage        = errors.New("page number out of range")
	ErrLastPage           = errors.New("cannot remove the last remaining page")
	ErrInvalidPermutation = errors.New("reorder is not a permutation of the current pages")
	ErrInvalidThread      = errors.New("reply references an unknown thread root")
	ErrNotFound           = errors.New("unknown id")
	ErrDecode             = errors.New("malformed document")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrNotLoaded          = errors.New("no document loaded")
)
