// morph - apply declarative mappings to structured data
//
// Usage:
//
//	morph apply -defs defs.yaml -mapping Name [-in file] [flags]
//	morph version
//
// The source is read from file, or stdin when no file is given. The result
// is written to stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/zoobzio/morph"
	"github.com/zoobzio/morph/bson"
	"github.com/zoobzio/morph/json"
	"github.com/zoobzio/morph/manifest"
	"github.com/zoobzio/morph/msgpack"
	"github.com/zoobzio/morph/protobuf"
	"github.com/zoobzio/morph/xml"
	"github.com/zoobzio/morph/yaml"
)

const version = "0.1.0"

var codecs = map[string]func() morph.Codec{
	"json":     json.New,
	"yaml":     yaml.New,
	"msgpack":  msgpack.New,
	"xml":      xml.New,
	"bson":     bson.New,
	"protobuf": protobuf.New,
}

// builtins are the functions available to do expressions.
var builtins = manifest.Funcs{
	"upper": morph.Unary(strings.ToUpper),
	"lower": morph.Unary(strings.ToLower),
	"trim":  morph.Unary(strings.TrimSpace),
	"sqrt":  morph.Unary(math.Sqrt),
	"join": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
		}
		parts, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("join of %T", args[0])
		}
		strs := make([]string, len(parts))
		for i, p := range parts {
			s, err := morph.ToString(p)
			if err != nil {
				return nil, err
			}
			strs[i] = s
		}
		sep, err := morph.ToString(args[1])
		if err != nil {
			return nil, err
		}
		return strings.Join(strs, sep), nil
	},
	"len": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		switch t := args[0].(type) {
		case string:
			return len(t), nil
		case []any:
			return len(t), nil
		case map[string]any:
			return len(t), nil
		}
		return nil, fmt.Errorf("len of %T", args[0])
	},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "apply":
		if err := runApply(os.Args[2:], os.Stdin, os.Stdout, os.Stderr); err != nil {
			fatal("%v", err)
		}
	case "version":
		fmt.Printf("morph %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "morph: unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runApply(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(stderr)
	defs := fs.String("defs", "", "manifest declaring schemas and mappings")
	name := fs.String("mapping", "", "mapping to apply")
	inPath := fs.String("in", "", "source file (default stdin)")
	inFormat := fs.String("in-format", "json", "source format: json, yaml, msgpack, xml, bson, protobuf")
	outFormat := fs.String("out", "json", "output format: json, yaml, msgpack, xml, bson, protobuf")
	implicit := fs.Bool("implicit-nulls", false, "omit absent and null fields from the output")
	validate := fs.Bool("validate", false, "validate the result before writing it")
	debug := fs.Bool("debug", false, "dump the result instance to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *defs == "" || *name == "" {
		return errors.New("apply: -defs and -mapping are required")
	}

	inCodec, ok := codecs[*inFormat]
	if !ok {
		return fmt.Errorf("apply: unknown input format %q", *inFormat)
	}
	outCodec, ok := codecs[*outFormat]
	if !ok {
		return fmt.Errorf("apply: unknown output format %q", *outFormat)
	}

	cat, err := manifest.Load(*defs, manifest.WithFuncs(builtins))
	if err != nil {
		return err
	}
	m, ok := cat.Mapping(*name)
	if !ok {
		return fmt.Errorf("apply: no mapping named %q in %s", *name, *defs)
	}

	path := *inPath
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	input := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	source, err := morph.Decode(inCodec(), data)
	if err != nil {
		return err
	}

	result, err := m.Apply(context.Background(), source)
	if err != nil {
		return err
	}
	if *debug {
		spew.Fdump(stderr, result)
	}
	if *validate {
		if err := result.Validate(); err != nil {
			return err
		}
	}

	var opts []morph.SerializeOption
	if *implicit {
		opts = append(opts, morph.ImplicitNulls())
	}
	out, err := morph.Encode(outCodec(), result, opts...)
	if err != nil {
		return err
	}
	if _, err := stdout.Write(out); err != nil {
		return err
	}
	if *outFormat == "json" {
		_, err = io.WriteString(stdout, "\n")
	}
	return err
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `morph - apply declarative mappings to structured data

Usage:
  morph apply -defs defs.yaml -mapping Name [-in file] [flags]
  morph version

Apply flags:
  -in             source file (default stdin)
  -in-format      json | yaml | msgpack | xml | bson | protobuf (default json)
  -out            json | yaml | msgpack | xml | bson | protobuf (default json)
  -implicit-nulls omit absent and null fields
  -validate       fail when the result does not validate
  -debug          dump the result instance to stderr

Functions available to do expressions: upper, lower, trim, sqrt, join, len.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "morph: "+format+"\n", args...)
	os.Exit(1)
}
