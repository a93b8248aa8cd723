// Command jqsand evaluates a sandboxed jq filter against a JSON document
// read from standard input, printing one canonical JSON line per output
// value.
//
// Usage:
//
//	echo '{"a":[1,2,3]}' | jqsand '.a[] | . * 2'
//
// Exit codes: 0 on success, 2 on usage errors, 3 when the filter fails to
// compile, 5 when evaluation faults.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gabrielbryk/jqsand"
	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jqsand", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		nullInput  = fs.Bool("n", false, "use null as the input instead of reading stdin")
		maxSteps   = fs.Int("max-steps", 0, "cap on evaluation steps (0 = default)")
		maxDepth   = fs.Int("max-depth", 0, "cap on evaluation depth (0 = default)")
		maxOutputs = fs.Int("max-outputs", 0, "cap on produced outputs (0 = default)")
		debug      = fs.Bool("debug", false, "log compile and run details to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: jqsand [flags] <filter>")
		fs.PrintDefaults()
		return 2
	}
	source := fs.Arg(0)

	var input any
	if !*nullInput {
		dec := json.NewDecoder(stdin)
		dec.UseNumber()
		if err := dec.Decode(&input); err != nil {
			fmt.Fprintf(stderr, "jqsand: invalid input JSON: %v\n", err)
			return 2
		}
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	f, err := jqsand.Compile(source)
	if err != nil {
		fmt.Fprintf(stderr, "jqsand: %v\n", err)
		return 3
	}

	in := jqsand.New(
		jqsand.WithLimits(jqsand.Limits{
			MaxSteps:   *maxSteps,
			MaxDepth:   *maxDepth,
			MaxOutputs: *maxOutputs,
		}),
		jqsand.WithLogger(logger),
		jqsand.WithDebug(*debug),
	)
	out, err := in.RunFilter(f, input)
	if err != nil {
		fmt.Fprintf(stderr, "jqsand: %v\n", err)
		var fault *types.Error
		if errors.As(err, &fault) {
			return 5
		}
		return 1
	}
	for _, v := range out {
		fmt.Fprintln(stdout, values.Encode(v))
	}
	return 0
}
