package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
)

func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestClassify(t *testing.T) {
	body := adt.ExceptionXMLFragment +
		`<namespace id="com.sap.adt"/><type id="ExceptionResourceNotFound"/>` +
		`<message lang="EN">Object ZCL_X does not exist</message></exc:exception>`

	code, out, _ := execute(t, body, "classify")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "ExceptionResourceNotFound: Object ZCL_X does not exist\n", out)
}

func TestClassify_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.xml")
	require.NoError(t, os.WriteFile(path, []byte(adt.ExceptionXMLFragment+`</exc:exception>`), 0o600))

	code, out, _ := execute(t, "", "classify", "--file", path)
	assert.Equal(t, exitMalformed, code)
	assert.True(t, strings.HasPrefix(out, "could not interpret server error"))
}

func TestClassify_NotAnError(t *testing.T) {
	code, out, _ := execute(t, "<html/>", "classify")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "not an error document\n", out)
}

func TestSerialize(t *testing.T) {
	input := `
schema: SIMPLE_ABAP_STRUCT
fields: [FOO, BAR]
records:
  - {FOO: BAR, BAR: FOO}
  - {FOO: GRC, BAR: BLAH}
`
	code, out, stderr := execute(t, input, "serialize", "--serializer", "LCL_PYTHON_SERIALIZER")
	require.Equal(t, exitOK, code, stderr)
	assert.Equal(t, `<?xml version="1.0" encoding="utf-8"?>
<abapGit version="v1.0.0" serializer="LCL_PYTHON_SERIALIZER" serializer_version="v1.0.0">
 <asx:abap xmlns:asx="http://www.sap.com/abapxml" version="1.0">
  <asx:values>
   <SIMPLE_ABAP_STRUCT>
    <FOO>BAR</FOO>
    <BAR>FOO</BAR>
   </SIMPLE_ABAP_STRUCT>
   <SIMPLE_ABAP_STRUCT>
    <FOO>GRC</FOO>
    <BAR>BLAH</BAR>
   </SIMPLE_ABAP_STRUCT>
  </asx:values>
 </asx:abap>
</abapGit>
`, out)
}

func TestSerialize_TypedFields(t *testing.T) {
	input := `
schema: VSEOCLASS
fields:
  - CLSNAME
  - {name: VERSION, type: int}
  - {name: STATE, type: bool}
records:
  - {CLSNAME: ZCL_A, VERSION: 1, STATE: true}
  - {CLSNAME: ZCL_B, STATE: false}
`
	code, out, stderr := execute(t, input, "serialize", "-s", "LCL_OBJECT_CLAS")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, out, "    <VERSION>1</VERSION>\n    <STATE>X</STATE>\n")
	assert.Contains(t, out, "    <CLSNAME>ZCL_B</CLSNAME>\n    <VERSION/>\n    <STATE/>\n")
}

func TestSerialize_Errors(t *testing.T) {
	code, _, stderr := execute(t, "schema: S\nfields: [A]\n", "serialize")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "serializer name is required")

	code, _, stderr = execute(t, "schema: S\nfields: [A]\nrecords:\n  - {B: x}\n", "serialize", "-s", "LCL_X")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "record 1")

	code, _, _ = execute(t, "schema: S\nfields: [{name: A, type: float}]\n", "serialize", "-s", "LCL_X")
	assert.Equal(t, exitFailure, code)
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := execute(t, "")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "usage: adtxml")

	code, _, stderr = execute(t, "", "frobnicate")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, out, _ := execute(t, "", "help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "classify")
}
