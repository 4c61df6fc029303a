package adt

import (
	"errors"
	"fmt"
	"strings"
)

// NamespaceADT is the vendor namespace ADT reports for its own exceptions.
const NamespaceADT = "com.sap.adt"

var (
	// ErrMalformedErrorDocument indicates an exception envelope that lacks one
	// of the namespace, type or message fields.
	ErrMalformedErrorDocument = errors.New("could not interpret server error")
)

// Descriptor is the classified content of an ADT exception document.
type Descriptor struct {
	Namespace string
	Kind      string
	Message   string
}

// Describe returns d itself so that every error embedding a Descriptor
// satisfies ServerError.
func (d Descriptor) Describe() Descriptor { return d }

// String renders the fully qualified kind, e.g. "com.sap.adt.ExceptionResourceNotFound".
func (d Descriptor) String() string {
	return d.Namespace + "." + d.Kind
}

// ServerError is implemented by every error classified from an exception
// envelope, generic or registered.
type ServerError interface {
	error
	Describe() Descriptor
}

// Error is a classified server error whose kind has no registered constructor.
type Error struct {
	Descriptor
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Message
}

// ResourceAlreadyExistsError is reported when an object being created exists.
type ResourceAlreadyExistsError struct {
	Descriptor
}

func (e *ResourceAlreadyExistsError) Error() string { return e.Message }

// ResourceNotFoundError is reported for requests on unknown objects.
type ResourceNotFoundError struct {
	Descriptor
}

func (e *ResourceNotFoundError) Error() string { return e.Kind + ": " + e.Message }

// ResourceCreationFailureError is reported when the backend refuses to create an object.
type ResourceCreationFailureError struct {
	Descriptor
}

func (e *ResourceCreationFailureError) Error() string { return e.Kind + ": " + e.Message }

// ResourceNoAccessError is reported when an object is locked or not editable.
type ResourceNoAccessError struct {
	Descriptor
}

func (e *ResourceNoAccessError) Error() string { return e.Kind + ": " + e.Message }

// MalformedErrorDocumentError is returned by Classify when the body carries
// the exception envelope but its fields cannot be extracted.
type MalformedErrorDocumentError struct {
	Missing []string
	Body    string
	Cause   error
}

func (e *MalformedErrorDocumentError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", ErrMalformedErrorDocument, e.Cause)
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: missing %s", ErrMalformedErrorDocument, strings.Join(e.Missing, ", "))
	default:
		return ErrMalformedErrorDocument.Error()
	}
}

func (e *MalformedErrorDocumentError) Is(target error) bool {
	return target == ErrMalformedErrorDocument
}

func (e *MalformedErrorDocumentError) Unwrap() error { return e.Cause }

// HTTPRequestError reports a failed HTTP exchange whose body is not an
// exception envelope.
type HTTPRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPRequestError) Error() string {
	return fmt.Sprintf("%d\n%s", e.StatusCode, e.Body)
}

// UnexpectedResponseContentError reports a response of the wrong media type.
type UnexpectedResponseContentError struct {
	Expected string
	Received string
	Content  string
}

func (e *UnexpectedResponseContentError) Error() string {
	return fmt.Sprintf("Unexpected Content-Type: %s with: %s", e.Received, e.Content)
}

// IsKind reports whether err is a classified server error of the given kind.
func IsKind(err error, kind string) bool {
	var se ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.Describe().Kind == kind
}

// DescriptorOf extracts the Descriptor from a classified error in err's chain.
func DescriptorOf(err error) (Descriptor, bool) {
	var se ServerError
	if !errors.As(err, &se) {
		return Descriptor{}, false
	}
	return se.Describe(), true
}
