// adtxml works with the two XML dialects adt-lib speaks without a live
// system: it classifies ADT error bodies and serializes records into
// abapGit documents.
//
//	adtxml classify [--file body.xml]
//	adtxml serialize --serializer LCL_OBJECT_CLAS [--file records.yaml]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/Goden-Gun/adt-lib/pkg/bootstrap"
	"github.com/Goden-Gun/adt-lib/pkg/config"
	log "github.com/Goden-Gun/adt-lib/pkg/logger"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitMalformed = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := pflag.NewFlagSet("adtxml", pflag.ContinueOnError)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	level := global.String("log-level", "warn", "log level")
	format := global.String("log-format", "text", "log format: text or json")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	if err := bootstrap.InitLoggerWithOptions(config.LogConfig{Level: *level, Format: *format},
		bootstrap.LoggerOptions{Output: stderr}); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(stderr)
		return exitFailure
	}

	var cmd func([]string, io.Reader, io.Writer) (int, error)
	switch rest[0] {
	case "classify":
		cmd = runClassify
	case "serialize":
		cmd = runSerialize
	case "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		usage(stderr)
		return exitFailure
	}

	code, err := cmd(rest[1:], stdin, stdout)
	if err != nil {
		log.WithError(err).WithField("command", rest[0]).Error("command failed")
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return code
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: adtxml [--log-level LEVEL] [--log-format FORMAT] COMMAND [flags]

commands:
  classify    interpret an ADT error response body
  serialize   write records from YAML as an abapGit document
`)
}

// openInput returns stdin for an empty path or "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}
