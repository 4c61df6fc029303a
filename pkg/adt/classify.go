package adt

import (
	"encoding/xml"
	"strings"
)

// ExceptionXMLFragment opens every ADT exception document.
const ExceptionXMLFragment = `<?xml version="1.0" encoding="utf-8"?>` +
	`<exc:exception xmlns:exc="http://www.sap.com/abapxml/types/communicationframework">`

type exceptionDocument struct {
	XMLName    xml.Name           `xml:"http://www.sap.com/abapxml/types/communicationframework exception"`
	Namespaces []idElement        `xml:"namespace"`
	Types      []idElement        `xml:"type"`
	Messages   []exceptionMessage `xml:"message"`
}

type idElement struct {
	ID *string `xml:"id,attr"`
}

type exceptionMessage struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:",chardata"`
}

// Classify turns an HTTP response body into a classified server error.
//
// A body that does not start with ExceptionXMLFragment is ordinary content:
// Classify returns (nil, nil). A body with the envelope but without exactly
// one namespace, type and message yields a *MalformedErrorDocumentError.
func Classify(body string) (ServerError, error) {
	if !strings.HasPrefix(body, ExceptionXMLFragment) {
		return nil, nil
	}

	var doc exceptionDocument
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, &MalformedErrorDocumentError{Body: body, Cause: err}
	}

	var missing []string
	namespace, ok := singleID(doc.Namespaces)
	if !ok {
		missing = append(missing, "namespace")
	}
	kind, ok := singleID(doc.Types)
	if !ok {
		missing = append(missing, "type")
	}
	message, ok := singleMessage(doc.Messages)
	if !ok {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, &MalformedErrorDocumentError{Missing: missing, Body: body}
	}

	if ctor, ok := Lookup(kind); ok {
		return ctor(message), nil
	}
	return &Error{Descriptor{Namespace: namespace, Kind: kind, Message: message}}, nil
}

// ClassifyBytes is Classify for a raw body.
func ClassifyBytes(body []byte) (ServerError, error) {
	return Classify(string(body))
}

func singleID(elems []idElement) (string, bool) {
	if len(elems) != 1 || elems[0].ID == nil {
		return "", false
	}
	return *elems[0].ID, true
}

func singleMessage(msgs []exceptionMessage) (string, bool) {
	if len(msgs) != 1 || len(msgs[0].Lang) != 2 {
		return "", false
	}
	return msgs[0].Text, true
}
