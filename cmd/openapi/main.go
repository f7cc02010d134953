// Package main exports the registered Swagger document as YAML and checks
// a revision of it for backward-incompatible changes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "campusnest/docs" // registers the swagger document

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: openapi <export|compat> [flags]")
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "compat":
		err = runCompat(os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "docs/swagger.yaml", "output path, - for stdout")
	_ = fs.Parse(args)

	doc, err := swag.ReadDoc()
	if err != nil {
		return fmt.Errorf("read swagger doc: %w", err)
	}
	raw, err := jsonToYAML([]byte(doc))
	if err != nil {
		return err
	}

	if *out == "-" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	// #nosec G306: generated API docs are public
	return os.WriteFile(*out, raw, 0o644)
}

func runCompat(args []string) error {
	fs := flag.NewFlagSet("compat", flag.ExitOnError)
	basePath := fs.String("base", "", "base swagger.yaml path")
	revisionPath := fs.String("revision", "", "revision swagger.yaml path")
	_ = fs.Parse(args)

	if strings.TrimSpace(*basePath) == "" || strings.TrimSpace(*revisionPath) == "" {
		return errors.New("usage: openapi compat -base <path> -revision <path>")
	}

	base, err := loadSpec(*basePath)
	if err != nil {
		return fmt.Errorf("failed to load base spec: %w", err)
	}
	revision, err := loadSpec(*revisionPath)
	if err != nil {
		return fmt.Errorf("failed to load revision spec: %w", err)
	}

	if issues := compare(base, revision); len(issues) > 0 {
		return fmt.Errorf("backward compatibility check failed:\n- %s", strings.Join(issues, "\n- "))
	}
	fmt.Println("openapi compatibility check passed")
	return nil
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key order.
func jsonToYAML(raw []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("parse swagger doc: %w", err)
	}
	clearStyle(&node)
	return yaml.Marshal(&node)
}

func clearStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode {
		n.Style = 0
	} else if n.Style == yaml.DoubleQuotedStyle && n.Tag == "!!str" {
		// Keep quoting only where the plain form would change the type.
		n.Style = 0
	}
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// spec maps path -> method -> response codes.
type spec map[string]map[string]map[string]struct{}

func loadSpec(path string) (spec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSpec(raw)
}

func parseSpec(raw []byte) (spec, error) {
	var doc struct {
		Paths map[string]map[string]struct {
			Responses map[string]any `yaml:"responses"`
		} `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	out := make(spec, len(doc.Paths))
	for p, methods := range doc.Paths {
		ops := make(map[string]map[string]struct{})
		for method, op := range methods {
			method = strings.ToLower(strings.TrimSpace(method))
			if _, ok := supportedMethods[method]; !ok {
				continue
			}
			codes := make(map[string]struct{}, len(op.Responses))
			for code := range op.Responses {
				codes[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
			}
			ops[method] = codes
		}
		if len(ops) > 0 {
			out[p] = ops
		}
	}
	return out, nil
}

// compare reports operations and success responses that disappeared.
func compare(base, revision spec) []string {
	var issues []string
	for p, ops := range base {
		revOps, ok := revision[p]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path %s", p))
			continue
		}
		for method, codes := range ops {
			revCodes, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation %s %s", strings.ToUpper(method), p))
				continue
			}
			for code := range codes {
				if !strings.HasPrefix(code, "2") {
					continue
				}
				if _, ok := revCodes[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed %s response from %s %s", code, strings.ToUpper(method), p))
				}
			}
		}
	}
	sort.Strings(issues)
	return issues
}
