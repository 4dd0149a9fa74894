package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// ErrNotFound means the entity does not exist in the store. Unique-constraint
// conflicts never escape the stores: GetOrCreateNumber resolves them by
// re-fetching the winning record.
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var ErrNotFound = errors.New("not found")
