package registry

import "errors"

// ErrPolicyConflict is returned when an entity is marked present while a
// remove for it is still outstanding. It is surfaced to the caller, never
// resolved automatically.
var ErrPolicyConflict = errors.New("registry: entity is pending removal")
