package adt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exceptionBody(namespace, kind, message string) string {
	return ExceptionXMLFragment +
		fmt.Sprintf(`<namespace id="%s"/><type id="%s"/>`, namespace, kind) +
		fmt.Sprintf(`<message lang="en">%s</message>`, message) +
		`<localizedMessage lang="en">ignored</localizedMessage><properties/></exc:exception>`
}

func TestClassify_RegisteredKind(t *testing.T) {
	se, err := Classify(exceptionBody("com.sap.adt", "ExceptionResourceAlreadyExists", "already exists"))
	require.NoError(t, err)
	require.NotNil(t, se)

	var exists *ResourceAlreadyExistsError
	require.True(t, errors.As(se, &exists))
	assert.Equal(t, "already exists", exists.Message)
	assert.Equal(t, KindResourceAlreadyExists, exists.Kind)
	assert.Equal(t, NamespaceADT, exists.Namespace)
	assert.Equal(t, "already exists", se.Error())
}

func TestClassify_RegisteredKindIgnoresEnvelopeNamespace(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			se, err := Classify(exceptionBody("org.example.other", kind, "boom"))
			require.NoError(t, err)
			require.NotNil(t, se)

			d := se.Describe()
			assert.Equal(t, kind, d.Kind)
			assert.Equal(t, "boom", d.Message)
			assert.Equal(t, NamespaceADT, d.Namespace)
			assert.True(t, IsKind(se, kind))
		})
	}
}

func TestClassify_UnregisteredKind(t *testing.T) {
	se, err := Classify(exceptionBody("org.example", "ExceptionSomethingOdd", "odd things"))
	require.NoError(t, err)

	var generic *Error
	require.True(t, errors.As(se, &generic))
	assert.Equal(t, Descriptor{Namespace: "org.example", Kind: "ExceptionSomethingOdd", Message: "odd things"}, generic.Descriptor)
	assert.Equal(t, "ExceptionSomethingOdd: odd things", se.Error())
	assert.Equal(t, "org.example.ExceptionSomethingOdd", se.Describe().String())
}

func TestClassify_NotAnErrorDocument(t *testing.T) {
	bodies := []string{
		"",
		"plain text",
		`<?xml version="1.0" encoding="UTF-8"?><adtcore:objectReferences xmlns:adtcore="http://www.sap.com/adt/core"/>`,
		" " + exceptionBody("com.sap.adt", "ExceptionResourceNotFound", "x"),
		`<?xml version="1.0" encoding="utf-8"?><exc:exception xmlns:exc="http://example.com/other">`,
	}
	for _, body := range bodies {
		se, err := Classify(body)
		assert.NoError(t, err, body)
		assert.Nil(t, se, body)
	}
}

func TestClassify_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		missing []string
	}{
		{
			name:    "no type",
			body:    ExceptionXMLFragment + `<namespace id="com.sap.adt"/><message lang="en">m</message></exc:exception>`,
			missing: []string{"type"},
		},
		{
			name:    "nothing",
			body:    ExceptionXMLFragment + `</exc:exception>`,
			missing: []string{"namespace", "type", "message"},
		},
		{
			name:    "three letter lang",
			body:    ExceptionXMLFragment + `<namespace id="a"/><type id="b"/><message lang="eng">m</message></exc:exception>`,
			missing: []string{"message"},
		},
		{
			name:    "duplicated type",
			body:    ExceptionXMLFragment + `<namespace id="a"/><type id="b"/><type id="c"/><message lang="en">m</message></exc:exception>`,
			missing: []string{"type"},
		},
		{
			name:    "namespace without id",
			body:    ExceptionXMLFragment + `<namespace/><type id="b"/><message lang="en">m</message></exc:exception>`,
			missing: []string{"namespace"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se, err := Classify(tt.body)
			assert.Nil(t, se)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedErrorDocument))

			var malformed *MalformedErrorDocumentError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.missing, malformed.Missing)
			assert.Contains(t, err.Error(), "could not interpret server error")
		})
	}
}

func TestClassify_TruncatedEnvelope(t *testing.T) {
	se, err := Classify(ExceptionXMLFragment + `<namespace id="a"/>`)
	assert.Nil(t, se)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedErrorDocument))

	var malformed *MalformedErrorDocumentError
	require.True(t, errors.As(err, &malformed))
	assert.NotNil(t, malformed.Cause)
}

func TestClassify_DecodesEntities(t *testing.T) {
	se, err := Classify(exceptionBody("com.sap.adt", "ExceptionResourceNotFound", "ZCL_A &amp; ZCL_B &lt;missing&gt;"))
	require.NoError(t, err)
	assert.Equal(t, "ZCL_A & ZCL_B <missing>", se.Describe().Message)
}

func TestClassifyBytes(t *testing.T) {
	se, err := ClassifyBytes([]byte(exceptionBody("com.sap.adt", "ExceptionResourceNoAccess", "locked")))
	require.NoError(t, err)

	var noAccess *ResourceNoAccessError
	require.True(t, errors.As(se, &noAccess))
	assert.Equal(t, "ExceptionResourceNoAccess: locked", noAccess.Error())
}

func TestDescriptorOf_Wrapped(t *testing.T) {
	se, err := Classify(exceptionBody("com.sap.adt", "ExceptionResourceNotFound", "gone"))
	require.NoError(t, err)

	wrapped := fmt.Errorf("fetch class: %w", se)
	d, ok := DescriptorOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindResourceNotFound, d.Kind)
	assert.True(t, IsKind(wrapped, KindResourceNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindResourceNotFound))

	_, ok = DescriptorOf(errors.New("plain"))
	assert.False(t, ok)
}
