package abapgit

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrInvalidDocument indicates input that is not an abapGit document of
	// the supported dialect.
	ErrInvalidDocument = errors.New("abapgit: invalid document")
	// ErrUnknownRecord indicates a record element with no matching schema.
	ErrUnknownRecord = errors.New("abapgit: unknown record")
)

// Document is a decoded abapGit document.
type Document struct {
	Serializer string
	Records    []Record
}

// Decode reads an abapGit document from r. Record elements are matched by
// name against schemas and returned in document order. A nil schema yields
// ErrNoSchema.
func Decode(r io.Reader, schemas ...*Schema) (*Document, error) {
	bySchema := make(map[string]*Schema, len(schemas))
	for _, s := range schemas {
		if s == nil {
			return nil, ErrNoSchema
		}
		bySchema[s.name] = s
	}

	d := xml.NewDecoder(r)
	root, err := expectStart(d, xml.Name{Local: "abapGit"})
	if err != nil {
		return nil, err
	}
	if v := attr(root, "version"); v != DialectVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidDocument, v)
	}
	if v := attr(root, "serializer_version"); v != DialectVersion {
		return nil, fmt.Errorf("%w: unsupported serializer_version %q", ErrInvalidDocument, v)
	}
	doc := &Document{Serializer: attr(root, "serializer")}

	wrapper, err := expectStart(d, xml.Name{Space: ABAPXMLNamespace, Local: "abap"})
	if err != nil {
		return nil, err
	}
	if v := attr(wrapper, "version"); v != ABAPXMLVersion {
		return nil, fmt.Errorf("%w: unsupported asx:abap version %q", ErrInvalidDocument, v)
	}
	if _, err := expectStart(d, xml.Name{Space: ABAPXMLNamespace, Local: "values"}); err != nil {
		return nil, err
	}

	for {
		tok, err := nextElement(d)
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			break
		}
		start := tok.(xml.StartElement)
		schema, ok := bySchema[start.Name.Local]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRecord, start.Name.Local)
		}
		rec, err := decodeRecord(d, schema)
		if err != nil {
			return nil, err
		}
		doc.Records = append(doc.Records, rec)
	}

	for i := 0; i < 2; i++ {
		tok, err := nextElement(d)
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.EndElement); !ok {
			return nil, fmt.Errorf("%w: content after asx:values", ErrInvalidDocument)
		}
	}
	return doc, nil
}

func decodeRecord(d *xml.Decoder, schema *Schema) (Record, error) {
	rec := Record{schema: schema, values: make(map[string]any, len(schema.fields))}
	for {
		tok, err := nextElement(d)
		if err != nil {
			return Record{}, err
		}
		if _, ok := tok.(xml.EndElement); ok {
			return rec, nil
		}
		start := tok.(xml.StartElement)
		f, ok := schema.Field(start.Name.Local)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, schema.name, start.Name.Local)
		}
		var text string
		if err := d.DecodeElement(&text, &start); err != nil {
			return Record{}, fmt.Errorf("%w: %s.%s: %v", ErrInvalidDocument, schema.name, f.Name, err)
		}
		v, err := parseValue(f, text)
		if err != nil {
			return Record{}, fmt.Errorf("%s.%s: %w", schema.name, f.Name, err)
		}
		rec.values[f.Name] = v
	}
}

// nextElement returns the next start or end element, skipping whitespace,
// comments and processing instructions.
func nextElement(d *xml.Decoder) (xml.Token, error) {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: unexpected end of document", ErrInvalidDocument)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return t, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("%w: unexpected text %q", ErrInvalidDocument, strings.TrimSpace(string(t)))
			}
		}
	}
}

func expectStart(d *xml.Decoder, name xml.Name) (xml.StartElement, error) {
	tok, err := nextElement(d)
	if err != nil {
		return xml.StartElement{}, err
	}
	start, ok := tok.(xml.StartElement)
	if !ok || start.Name != name {
		return xml.StartElement{}, fmt.Errorf("%w: expected <%s>", ErrInvalidDocument, name.Local)
	}
	return start, nil
}

func attr(e xml.StartElement, local string) string {
	for _, a := range e.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
