package abapgit

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// DialectVersion is the abapGit XML version written to the root element.
	DialectVersion = "v1.0.0"
	// ABAPXMLNamespace is the namespace of the asx wrapper elements.
	ABAPXMLNamespace = "http://www.sap.com/abapxml"
	// ABAPXMLVersion is the version attribute of asx:abap.
	ABAPXMLVersion = "1.0"

	xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>`
)

// Nesting depth of each element; indentation is one space per level.
const (
	depthRoot = iota
	depthABAP
	depthValues
	depthRecord
	depthField
)

var (
	// ErrWriterClosed is returned by Add and Close once the writer is closed.
	ErrWriterClosed = errors.New("abapgit: writer closed")
	// ErrEmptySerializer indicates a missing serializer name.
	ErrEmptySerializer = errors.New("abapgit: serializer name is required")
	// ErrInvalidText indicates a value that is not valid UTF-8 or holds a
	// character XML 1.0 does not allow.
	ErrInvalidText = errors.New("abapgit: text not representable in XML")
)

var (
	// Carriage returns and attribute whitespace are written as character
	// references; a parser would normalize them otherwise.
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
)

// WriteError reports a failure of the underlying sink. The document written
// so far is incomplete and must be discarded.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "abapgit: write failed: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }

// Writer emits an abapGit XML document record by record to a caller-owned
// sink. Each line is written as soon as it is produced.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	err    error
	closed bool
}

// NewWriter writes the document prologue for serializer to w and returns a
// Writer ready for Add. The caller owns w and must call Close.
func NewWriter(w io.Writer, serializer string) (*Writer, error) {
	if w == nil {
		return nil, errors.New("abapgit: nil sink")
	}
	if serializer == "" {
		return nil, ErrEmptySerializer
	}
	if err := checkText(serializer); err != nil {
		return nil, fmt.Errorf("serializer: %w", err)
	}
	aw := &Writer{w: w}
	aw.line(depthRoot, xmlDeclaration)
	aw.line(depthRoot, fmt.Sprintf(`<abapGit version="%s" serializer="%s" serializer_version="%s">`,
		DialectVersion, attrEscaper.Replace(serializer), DialectVersion))
	aw.line(depthABAP, fmt.Sprintf(`<asx:abap xmlns:asx="%s" version="%s">`, ABAPXMLNamespace, ABAPXMLVersion))
	aw.line(depthValues, "<asx:values>")
	if aw.err != nil {
		return nil, aw.err
	}
	return aw, nil
}

// Add writes r as one element named after its schema with one child per
// field in declared order. A value that cannot be written as XML text is
// rejected with ErrInvalidText before anything reaches the sink.
func (w *Writer) Add(r Record) error {
	if w.closed {
		return ErrWriterClosed
	}
	if w.err != nil {
		return w.err
	}
	if r.schema == nil {
		return ErrNoSchema
	}

	// Render every field first so that a bad value leaves no partial record.
	lines := make([]string, 0, len(r.schema.fields))
	for _, f := range r.schema.fields {
		text, err := r.text(f)
		if err != nil {
			return err
		}
		if err := checkText(text); err != nil {
			return fmt.Errorf("%s.%s: %w", r.schema.name, f.Name, err)
		}
		if text == "" {
			lines = append(lines, "<"+f.Name+"/>")
			continue
		}
		lines = append(lines, "<"+f.Name+">"+textEscaper.Replace(text)+"</"+f.Name+">")
	}

	w.line(depthRecord, "<"+r.schema.name+">")
	for _, l := range lines {
		w.line(depthField, l)
	}
	w.line(depthRecord, "</"+r.schema.name+">")
	return w.err
}

// AddStruct writes the struct v, see RecordOf.
func (w *Writer) AddStruct(v any) error {
	r, err := RecordOf(v)
	if err != nil {
		return err
	}
	return w.Add(r)
}

// Close writes the closing tags of the wrapper elements and the root. The
// writer is inert afterwards. If a previous write failed, Close returns that
// failure without writing.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	w.line(depthValues, "</asx:values>")
	w.line(depthABAP, "</asx:abap>")
	w.line(depthRoot, "</abapGit>")
	return w.err
}

// checkText rejects invalid UTF-8 and runes outside the XML 1.0 Char
// production.
func checkText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8", ErrInvalidText)
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: character %U at offset %d", ErrInvalidText, r, i)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF, r >= 0xE000 && r <= 0xFFFD, r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

func (w *Writer) line(depth int, s string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.w, strings.Repeat(" ", depth)+s+"\n"); err != nil {
		w.err = &WriteError{Err: err}
	}
}

// WithWriter opens a Writer on w, hands it to fn and closes it on every exit
// path. The first error wins; fn may close the writer itself.
func WithWriter(w io.Writer, serializer string, fn func(*Writer) error) (err error) {
	aw, err := NewWriter(w, serializer)
	if err != nil {
		return err
	}
	defer func() {
		cerr := aw.Close()
		if err == nil && cerr != nil && !errors.Is(cerr, ErrWriterClosed) {
			err = cerr
		}
	}()
	return fn(aw)
}

// WriteDocument writes a complete document holding records in order.
func WriteDocument(w io.Writer, serializer string, records ...Record) error {
	return WithWriter(w, serializer, func(aw *Writer) error {
		for _, r := range records {
			if err := aw.Add(r); err != nil {
				return err
			}
		}
		return nil
	})
}
