// Package adt classifies failures reported by the ABAP development tools
// (ADT) HTTP service.
//
// ADT reports failures as an XML exception envelope carrying a namespace, a
// type and a localized message. Classify recognises the envelope and returns
// either a registered, kind-specific error or a generic *Error:
//
//	se, err := adt.Classify(body)
//	switch {
//	case err != nil:
//	    // envelope present but unreadable, errors.Is(err, adt.ErrMalformedErrorDocument)
//	case se == nil:
//	    // not an error document, parse as ordinary content
//	default:
//	    var exists *adt.ResourceAlreadyExistsError
//	    if errors.As(se, &exists) {
//	        ...
//	    }
//	}
//
// Additional kinds are registered with Register from an init function.
package adt
