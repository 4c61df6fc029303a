package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Goden-Gun/adt-lib/pkg/abapgit"
)

// recordsFile is the YAML input of serialize:
//
//	schema: VSEOCLASS
//	fields: [CLSNAME, {name: VERSION, type: int}, {name: STATE, type: bool}]
//	records:
//	  - {CLSNAME: ZCL_A, VERSION: 1, STATE: true}
type recordsFile struct {
	Schema  string              `yaml:"schema"`
	Fields  []fieldSpec         `yaml:"fields"`
	Records []map[string]string `yaml:"records"`
}

type fieldSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// UnmarshalYAML accepts a bare field name as a string field.
func (f *fieldSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		f.Name = value.Value
		return nil
	}
	type plain fieldSpec
	return value.Decode((*plain)(f))
}

func (f fieldSpec) field() (abapgit.Field, error) {
	out := abapgit.Field{Name: f.Name}
	switch f.Type {
	case "", "string":
		out.Type = abapgit.TypeString
	case "int":
		out.Type = abapgit.TypeInt
	case "bool":
		out.Type = abapgit.TypeBool
	default:
		return abapgit.Field{}, fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
	}
	return out, nil
}

func runSerialize(args []string, stdin io.Reader, stdout io.Writer) (int, error) {
	flags := pflag.NewFlagSet("serialize", pflag.ContinueOnError)
	flags.SetOutput(stdout)
	serializer := flags.StringP("serializer", "s", "", "serializer name written to the abapGit root")
	file := flags.StringP("file", "f", "", "YAML records file (default: stdin)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, nil
		}
		return exitFailure, err
	}
	if *serializer == "" {
		return exitFailure, abapgit.ErrEmptySerializer
	}

	in, err := openInput(*file, stdin)
	if err != nil {
		return exitFailure, err
	}
	defer in.Close()

	var input recordsFile
	if err := yaml.NewDecoder(in).Decode(&input); err != nil {
		return exitFailure, fmt.Errorf("decode records: %w", err)
	}
	records, err := input.build()
	if err != nil {
		return exitFailure, err
	}

	if err := abapgit.WriteDocument(stdout, *serializer, records...); err != nil {
		return exitFailure, err
	}
	return exitOK, nil
}

func (in recordsFile) build() ([]abapgit.Record, error) {
	fields := make([]abapgit.Field, 0, len(in.Fields))
	for _, fs := range in.Fields {
		f, err := fs.field()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	schema, err := abapgit.NewSchema(in.Schema, fields...)
	if err != nil {
		return nil, err
	}

	records := make([]abapgit.Record, 0, len(in.Records))
	for i, texts := range in.Records {
		normalizeFlags(schema, texts)
		r, err := abapgit.ParseRecord(schema, texts)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// normalizeFlags lets YAML booleans stand in for ABAP flags.
func normalizeFlags(schema *abapgit.Schema, texts map[string]string) {
	for name, s := range texts {
		f, ok := schema.Field(name)
		if !ok || f.Type != abapgit.TypeBool {
			continue
		}
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				texts[name] = "X"
			} else {
				texts[name] = ""
			}
		}
	}
}
