package errors

import (
	"fmt"
	"net/http"
	"sync"
)

// Kind is the query stage an error code is attributed to.
type Kind string

const (
	KindValidation Kind = "validation"
	KindRetrieval  Kind = "retrieval"
	KindGeneration Kind = "generation"
	KindCapacity   Kind = "capacity"
	KindUnexpected Kind = "unexpected"
)

type registration struct {
	errno *Errno
	kind  Kind
}

var (
	errnoRegistry = make(map[int]registration)
	registryMu    sync.RWMutex
)

// Register records e with the kind implied by its HTTP status: client
// statuses are validation failures, everything else is unexpected.
// It panics if the code is already taken.
func Register(e *Errno) *Errno {
	kind := KindUnexpected
	if s := e.HTTPStatus(); s >= http.StatusBadRequest && s < http.StatusInternalServerError {
		kind = KindValidation
	}
	return RegisterKind(kind, e)
}

// RegisterKind records e under an explicit kind.
func RegisterKind(kind Kind, e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := errnoRegistry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.errno.Message))
	}
	errnoRegistry[e.Code] = registration{errno: e, kind: kind}
	return e
}

// Lookup returns the registered Errno for code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := errnoRegistry[code]
	return r.errno, ok
}

// KindOf classifies err by the code of the first Errno in its chain.
// Errors without a registered code are unexpected.
func KindOf(err error) Kind {
	e := FromError(err)
	if e == nil {
		return ""
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	if r, ok := errnoRegistry[e.Code]; ok {
		return r.kind
	}
	return KindUnexpected
}
