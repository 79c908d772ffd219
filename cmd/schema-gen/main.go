// Schema Generator
//
// Generates JSON Schema files from Go types so the UI layer can derive its
// validation schemas from the same definitions. Go is the source of truth
// for the shared API types.
//
// Usage:
//
//	go run cmd/schema-gen/main.go [output-dir]
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/handlers"
	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

func main() {
	outputDir := "./shared/schemas"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	groups := []SchemaGroup{
		{
			Name: "audit",
			Types: []any{
				handlers.RunAuditRequest{},
				handlers.RunAuditResponse{},
				handlers.RowIssue{},
				types.AuditResult{},
				types.Discrepancy{},
				types.MissingProductGroup{},
				types.Product{},
			},
			Output: "audit.json",
		},
		{
			Name: "mutations",
			Types: []any{
				handlers.FixRequest{},
				handlers.CreateRequest{},
				handlers.RemoveItemsRequest{},
				audit.ApplyReport{},
				audit.ItemError{},
			},
			Output: "mutations.json",
		},
		{
			Name: "media",
			Types: []any{
				handlers.ReassignImagesRequest{},
				handlers.DeleteMediaRequest{},
				handlers.UpdateAltTextRequest{},
			},
			Output: "media.json",
		},
	}

	reflector := &jsonschema.Reflector{
		ExpandedStruct: false,
		DoNotReference: false,
	}

	for _, group := range groups {
		combined := map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"title":   group.Name,
		}
		defs := map[string]any{}

		for _, t := range group.Types {
			schema := reflector.Reflect(t)
			raw, err := json.Marshal(schema)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal schema for %T: %v\n", t, err)
				os.Exit(1)
			}
			var decoded map[string]any
			if err := json.Unmarshal(raw, &decoded); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to decode schema for %T: %v\n", t, err)
				os.Exit(1)
			}
			name := typeName(t)
			defs[name] = decoded
		}
		combined["$defs"] = defs

		out, err := json.MarshalIndent(combined, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		path := filepath.Join(outputDir, group.Output)
		if err := os.WriteFile(path, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%d types)\n", path, len(group.Types))
	}
}

func typeName(t any) string {
	name := fmt.Sprintf("%T", t)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
