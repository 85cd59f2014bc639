package engine

import "errors"

// Sentinel errors for programmatic categorization of command failures.
// Callers check these with errors.Is(); the engine never retries on
// their behalf.
var (
	// ErrNotFound indicates the referenced workspace, module, thread,
	// agent, conflict or option does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a command would move a thread to a
	// lifecycle state the transition table forbids. The thread is left
	// unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflictAlreadyActive indicates a conflict was raised on a
	// thread that already has an unresolved conflict attached.
	ErrConflictAlreadyActive = errors.New("conflict already active")

	// ErrAlreadyResolved indicates an approval targeted a conflict that
	// has already been resolved. The stored winner is unchanged.
	ErrAlreadyResolved = errors.New("conflict already resolved")

	// ErrConcurrentModification indicates the thread's state moved
	// between the command's read and its write. With the per-thread
	// lock discipline this signals an out-of-band mutation.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrNotAuthorized indicates the actor is not permitted to resolve
	// conflicts under the configured resolution authority policy.
	ErrNotAuthorized = errors.New("not authorized")
)
