package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/Goden-Gun/adt-lib/pkg/adt"
)

func runClassify(args []string, stdin io.Reader, stdout io.Writer) (int, error) {
	flags := pflag.NewFlagSet("classify", pflag.ContinueOnError)
	flags.SetOutput(stdout)
	file := flags.StringP("file", "f", "", "response body to classify (default: stdin)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, nil
		}
		return exitFailure, err
	}

	in, err := openInput(*file, stdin)
	if err != nil {
		return exitFailure, err
	}
	defer in.Close()
	body, err := io.ReadAll(in)
	if err != nil {
		return exitFailure, err
	}

	se, err := adt.ClassifyBytes(body)
	switch {
	case err != nil:
		fmt.Fprintln(stdout, err)
		return exitMalformed, nil
	case se == nil:
		fmt.Fprintln(stdout, "not an error document")
		return exitOK, nil
	}

	d := se.Describe()
	fmt.Fprintf(stdout, "%s: %s\n", d.Kind, d.Message)
	return exitOK, nil
}
