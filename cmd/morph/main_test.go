package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zoobzio/morph"
	"github.com/zoobzio/morph/msgpack"
)

const defs = `
schemas:
  - name: Circle
    fields:
      - {name: id, kind: string}
      - {name: name, kind: string}
      - {name: label, kind: string, required: false}
      - {name: diameter, kind: number}
mappings:
  - name: SquareToCircle
    target: Circle
    fields:
      - {name: id, value: {concat: [{const: from_square}, ":", {str: {get: id}}]}}
      - {name: name, value: {get: name}}
      - {name: label, value: {do: {func: upper, args: [{get: {path: nick, default: anon}}]}}}
      - {name: diameter, value: {expr: "source.width * 2.0"}}
`

func writeDefs(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defs.yaml")
	if err := os.WriteFile(path, []byte(defs), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := runApply(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunApply_JSON(t *testing.T) {
	path := writeDefs(t)

	out, _, err := run(t, `{"id":1,"name":"peggy","nick":"peg","width":50.5}`, "-defs", path, "-mapping", "SquareToCircle")
	if err != nil {
		t.Fatalf("runApply() error: %v", err)
	}
	want := `{"id":"from_square:1","name":"peggy","label":"PEG","diameter":101}` + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunApply_InputFile(t *testing.T) {
	path := writeDefs(t)
	in := filepath.Join(t.TempDir(), "square.json")
	if err := os.WriteFile(in, []byte(`{"id":2,"name":"sue","width":1.5}`), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "", "-defs", path, "-mapping", "SquareToCircle", in)
	if err != nil {
		t.Fatalf("runApply() error: %v", err)
	}
	if !strings.Contains(out, `"id":"from_square:2"`) || !strings.Contains(out, `"diameter":3`) {
		t.Errorf("output = %q", out)
	}
}

func TestRunApply_Formats(t *testing.T) {
	path := writeDefs(t)

	src := morph.NewRecord(3)
	src.Set("id", 3)
	src.Set("name", "peggy")
	src.Set("width", 0.5)
	data, err := msgpack.New().Marshal(src)
	if err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, string(data), "-defs", path, "-mapping", "SquareToCircle", "-in-format", "msgpack", "-out", "yaml")
	if err != nil {
		t.Fatalf("runApply() error: %v", err)
	}
	if !strings.HasPrefix(out, "id: ") || !strings.Contains(out, "label: ANON\n") || !strings.Contains(out, "diameter: 1\n") {
		t.Errorf("output = %q", out)
	}
}

func TestRunApply_Validate(t *testing.T) {
	path := writeDefs(t)
	input := `{"id":1,"name":5,"width":1.0}`

	out, _, err := run(t, input, "-defs", path, "-mapping", "SquareToCircle")
	if err != nil {
		t.Fatalf("runApply() without -validate error: %v", err)
	}
	if !strings.Contains(out, `"name":5`) {
		t.Errorf("output = %q", out)
	}

	if _, _, err := run(t, input, "-defs", path, "-mapping", "SquareToCircle", "-validate"); err == nil {
		t.Error("runApply(-validate) should fail")
	}
}

func TestRunApply_ImplicitNullsAndDebug(t *testing.T) {
	path := writeDefs(t)

	out, stderr, err := run(t, `{"id":1,"name":null,"width":1.0}`,
		"-defs", path, "-mapping", "SquareToCircle", "-implicit-nulls", "-debug")
	if err != nil {
		t.Fatalf("runApply() error: %v", err)
	}
	want := `{"id":"from_square:1","label":"ANON","diameter":2}` + "\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	if !strings.Contains(stderr, "Instance") {
		t.Errorf("debug output = %q", stderr)
	}
}

func TestRunApply_Errors(t *testing.T) {
	path := writeDefs(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"missing defs", "{}", []string{"-mapping", "SquareToCircle"}},
		{"missing mapping", "{}", []string{"-defs", path}},
		{"unknown mapping", "{}", []string{"-defs", path, "-mapping", "Nope"}},
		{"unknown input format", "{}", []string{"-defs", path, "-mapping", "SquareToCircle", "-in-format", "csv"}},
		{"unknown output format", "{}", []string{"-defs", path, "-mapping", "SquareToCircle", "-out", "csv"}},
		{"bad input", "{", []string{"-defs", path, "-mapping", "SquareToCircle"}},
		{"missing input file", "", []string{"-defs", path, "-mapping", "SquareToCircle", "-in", filepath.Join(t.TempDir(), "none.json")}},
		{"apply failure", `{"name":"x"}`, []string{"-defs", path, "-mapping", "SquareToCircle"}},
		{"missing defs file", "{}", []string{"-defs", filepath.Join(t.TempDir(), "none.yaml"), "-mapping", "SquareToCircle"}},
		{"bad flag", "{}", []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.stdin, tt.args...); err == nil {
				t.Error("runApply() should fail")
			}
		})
	}
}

func TestBuiltins(t *testing.T) {
	join, err := builtins["join"]([]any{"a", 1}, "-")
	if err != nil || join != "a-1" {
		t.Errorf("join = %v, %v", join, err)
	}
	n, err := builtins["len"]([]any{1, 2, 3})
	if err != nil || n != 3 {
		t.Errorf("len = %v, %v", n, err)
	}
	if _, err := builtins["len"](42); err == nil {
		t.Error("len(42) should fail")
	}
	if v, _ := builtins["trim"]("  x "); v != "x" {
		t.Errorf("trim = %v", v)
	}
}
