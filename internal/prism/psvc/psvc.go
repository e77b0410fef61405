// Package psvc is the service layer between internal/prism/store and
// internal/prism/server: it owns the business logic (compiling grammar
// source, applying adaptive updates, running parses, account management)
// decoupled from the HTTP surface that calls into it, grounded on
// server/tunas.Service.
package psvc

import (
	"github.com/prismlang/prism/internal/prism/store"
)

// Service performs actions against a store.Store and returns results
// serr-wrapped so callers can distinguish failure kinds with errors.Is.
//
// The zero value is not ready to use; assign a valid Store to DB first.
type Service struct {
	DB store.Store
}
