package jqsand_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/gabrielbryk/jqsand"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

type conformanceCase struct {
	Name   string `json:"name"`
	Filter string `json:"filter"`
	Input  any    `json:"input"`
	Output []any  `json:"output"`
	Error  string `json:"error"`
	Limits *struct {
		MaxSteps   int `json:"max_steps"`
		MaxDepth   int `json:"max_depth"`
		MaxOutputs int `json:"max_outputs"`
	} `json:"limits"`
}

func loadSuite(t *testing.T, path string) []conformanceCase {
	t.Helper()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read suite: %v", err)
	}
	jsonDoc, err := yaml.YAMLToJSON(raw)
	if err != nil {
		t.Fatalf("convert suite to JSON: %v", err)
	}

	// Reject malformed suites before running anything, so a typo in the
	// YAML fails with a schema message instead of a confusing case failure.
	schemaPath := filepath.Join("testdata", "suite.schema.json")
	schemaRaw, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaRaw))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("suite.schema.json", schemaDoc); err != nil {
		t.Fatalf("add schema resource: %v", err)
	}
	schema, err := compiler.Compile("suite.schema.json")
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonDoc))
	if err != nil {
		t.Fatalf("parse suite JSON: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		t.Fatalf("suite does not match schema: %v", err)
	}

	var cases []conformanceCase
	if err := json.Unmarshal(jsonDoc, &cases); err != nil {
		t.Fatalf("decode suite: %v", err)
	}
	return cases
}

func TestConformance(t *testing.T) {
	cases := loadSuite(t, filepath.Join("testdata", "conformance.yaml"))

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			var opts []jqsand.Option
			if tc.Limits != nil {
				opts = append(opts, jqsand.WithLimits(jqsand.Limits{
					MaxSteps:   tc.Limits.MaxSteps,
					MaxDepth:   tc.Limits.MaxDepth,
					MaxOutputs: tc.Limits.MaxOutputs,
				}))
			}
			out, err := jqsand.Run(tc.Filter, tc.Input, opts...)

			if tc.Error != "" {
				if err == nil {
					t.Fatalf("Run(%q) = %s, want %s error", tc.Filter, values.Encode(out), tc.Error)
				}
				var fault *jqsand.Error
				if !errors.As(err, &fault) {
					t.Fatalf("Run(%q) error type %T: %v", tc.Filter, err, err)
				}
				if string(fault.Kind) != tc.Error {
					t.Errorf("Run(%q) error kind = %s, want %s", tc.Filter, fault.Kind, tc.Error)
				}
				return
			}

			if err != nil {
				t.Fatalf("Run(%q): %v", tc.Filter, err)
			}
			got := values.Encode(out)
			want := values.Encode(mustNormalize(t, tc.Output))
			if got != want {
				t.Errorf("Run(%q) = %s, want %s", tc.Filter, got, want)
			}
		})
	}
}

func mustNormalize(t *testing.T, v any) any {
	t.Helper()
	n, err := values.Normalize(v)
	if err != nil {
		t.Fatalf("normalize expectation: %v", err)
	}
	return n
}
