package abapgit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FullFile(t *testing.T) {
	doc, err := Decode(strings.NewReader(fullFile), simpleSchema)
	require.NoError(t, err)

	assert.Equal(t, "LCL_PYTHON_SERIALIZER", doc.Serializer)
	require.Len(t, doc.Records, 2)

	var first, second simpleStruct
	require.NoError(t, doc.Records[0].Decode(&first))
	require.NoError(t, doc.Records[1].Decode(&second))
	assert.Equal(t, "BAR", first.Foo)
	assert.Equal(t, "FOO", first.Bar)
	assert.Equal(t, "GRC", second.Foo)
	assert.Equal(t, "BLAH", second.Bar)
}

func TestDecode_RoundTripTyped(t *testing.T) {
	in := typedStruct{Name: "a<b & c>", Count: -3, Size: 7, Active: true}

	var buf bytes.Buffer
	require.NoError(t, WithWriter(&buf, "LCL_TYPED", func(w *Writer) error {
		return w.AddStruct(in)
	}))

	schema, err := SchemaOf(typedStruct{})
	require.NoError(t, err)
	doc, err := Decode(&buf, schema)
	require.NoError(t, err)
	require.Len(t, doc.Records, 1)

	var out typedStruct
	require.NoError(t, doc.Records[0].Decode(&out))
	assert.Equal(t, in, out)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "wrong root",
			doc:  `<?xml version="1.0"?><root/>`,
			want: ErrInvalidDocument,
		},
		{
			name: "wrong version",
			doc:  strings.Replace(fullFile, `version="v1.0.0" serializer=`, `version="v2.0.0" serializer=`, 1),
			want: ErrInvalidDocument,
		},
		{
			name: "wrong wrapper namespace",
			doc:  strings.Replace(fullFile, `xmlns:asx="http://www.sap.com/abapxml"`, `xmlns:asx="http://example.com"`, 1),
			want: ErrInvalidDocument,
		},
		{
			name: "truncated",
			doc:  fullFile[:len(fullFile)/2],
			want: ErrInvalidDocument,
		},
		{
			name: "unknown record",
			doc:  strings.ReplaceAll(fullFile, "SIMPLE_ABAP_STRUCT", "OTHER"),
			want: ErrUnknownRecord,
		},
		{
			name: "unknown field",
			doc:  strings.ReplaceAll(fullFile, "BAR>", "BAZ>"),
			want: ErrUnknownField,
		},
		{
			name: "stray text",
			doc:  strings.Replace(fullFile, "<asx:values>", "<asx:values>oops", 1),
			want: ErrInvalidDocument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), simpleSchema)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_BadFlag(t *testing.T) {
	schema := MustSchema("FLAGS", Field{Name: "ON", Type: TypeBool})
	doc := strings.Replace(fullFile,
		"   <SIMPLE_ABAP_STRUCT>\n    <FOO>BAR</FOO>\n    <BAR>FOO</BAR>\n   </SIMPLE_ABAP_STRUCT>\n   <SIMPLE_ABAP_STRUCT>\n    <FOO>GRC</FOO>\n    <BAR>BLAH</BAR>\n   </SIMPLE_ABAP_STRUCT>\n",
		"   <FLAGS>\n    <ON>maybe</ON>\n   </FLAGS>\n", 1)

	_, err := Decode(strings.NewReader(doc), schema)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRecordDecode_SchemaMismatch(t *testing.T) {
	r := MustRecord(simpleSchema, map[string]any{"FOO": "x"})
	var out typedStruct
	assert.ErrorIs(t, r.Decode(&out), ErrTypeMismatch)
	assert.ErrorIs(t, r.Decode(out), ErrUnsupportedType)
	assert.ErrorIs(t, Record{}.Decode(&out), ErrNoSchema)
}

func TestParseRecord(t *testing.T) {
	schema := MustSchema("FLAGS",
		Field{Name: "NAME"},
		Field{Name: "COUNT", Type: TypeInt},
		Field{Name: "ON", Type: TypeBool},
	)
	r, err := ParseRecord(schema, map[string]string{"NAME": "n", "COUNT": "12", "ON": "X"})
	require.NoError(t, err)
	v, _ := r.Get("COUNT")
	assert.Equal(t, int64(12), v)
	v, _ = r.Get("ON")
	assert.Equal(t, true, v)

	_, err = ParseRecord(schema, map[string]string{"COUNT": "twelve"})
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = ParseRecord(schema, map[string]string{"OFF": ""})
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = ParseRecord(nil, nil)
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestDecode_NilSchema(t *testing.T) {
	_, err := Decode(strings.NewReader(fullFile), simpleSchema, nil)
	assert.ErrorIs(t, err, ErrNoSchema)
}
