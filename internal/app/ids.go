package app

import "github.com/google/uuid"

// UUIDSource is the production IDSource; tests inject deterministic
// sequences instead.
type UUIDSource struct{}

func (UUIDSource) NewID() string { return uuid.NewString() }
