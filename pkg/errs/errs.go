// Package errs defines the error taxonomy of the persistence core.
package errs

import "errors"

// Store errors.
var (
	// ErrUserNotFound is returned by mutation operations that require an
	// already-created user row. GetOrCreate never returns it.
	ErrUserNotFound = errors.New("astrobot: user not found")

	// ErrStorageUnavailable wraps failures to reach the underlying store.
	ErrStorageUnavailable = errors.New("astrobot: storage unavailable")

	// ErrInvalidRequestType is returned when a request log append carries a
	// type outside the closed set.
	ErrInvalidRequestType = errors.New("astrobot: invalid request type")
)

// Schema/migration errors. Both are fatal at startup.
var (
	// ErrMigrationIntegrity means the legacy adoption step found a state it
	// cannot resolve without risking data loss, e.g. the legacy table name
	// is already occupied while the current table still looks pre-upgrade.
	ErrMigrationIntegrity = errors.New("astrobot: legacy table state is inconsistent")
)
