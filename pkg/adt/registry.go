package adt

import (
	"fmt"
	"sort"
)

// Known exception kinds with a dedicated error type.
const (
	KindResourceAlreadyExists   = "ExceptionResourceAlreadyExists"
	KindResourceNotFound        = "ExceptionResourceNotFound"
	KindResourceCreationFailure = "ExceptionResourceCreationFailure"
	KindResourceNoAccess        = "ExceptionResourceNoAccess"
)

// Constructor builds the specific error for a registered kind from the
// server message. The constructed error declares its own namespace.
type Constructor func(message string) ServerError

// registry maps exception kinds to constructors. It is only written from
// init functions and read without locking afterwards.
var registry = map[string]Constructor{}

func init() {
	Register(KindResourceAlreadyExists, func(message string) ServerError {
		return &ResourceAlreadyExistsError{Descriptor{NamespaceADT, KindResourceAlreadyExists, message}}
	})
	Register(KindResourceNotFound, func(message string) ServerError {
		return &ResourceNotFoundError{Descriptor{NamespaceADT, KindResourceNotFound, message}}
	})
	Register(KindResourceCreationFailure, func(message string) ServerError {
		return &ResourceCreationFailureError{Descriptor{NamespaceADT, KindResourceCreationFailure, message}}
	})
	Register(KindResourceNoAccess, func(message string) ServerError {
		return &ResourceNoAccessError{Descriptor{NamespaceADT, KindResourceNoAccess, message}}
	})
}

// Register installs a constructor for kind. It must be called during package
// initialization; it panics on an empty kind, a nil constructor or a second
// registration of the same kind.
func Register(kind string, ctor Constructor) {
	if kind == "" {
		panic("adt: register with empty kind")
	}
	if ctor == nil {
		panic("adt: register " + kind + " with nil constructor")
	}
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("adt: kind %q registered twice", kind))
	}
	registry[kind] = ctor
}

// Lookup returns the constructor registered for kind.
func Lookup(kind string) (Constructor, bool) {
	ctor, ok := registry[kind]
	return ctor, ok
}

// Kinds lists the registered kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
