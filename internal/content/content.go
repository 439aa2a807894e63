// Package content provides the default text a workspace receives when it is
// first created, and random names for new shareable workspaces.
package content

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// Generator produces the initial content of a newly created workspace.
type Generator func() string

// Empty starts every workspace blank.
func Empty() string { return "" }

var placeholders = []string{
	"// Start typing. Anyone with this link can edit.\n",
	"package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hello, codepad\")\n}\n",
	"def greet(name):\n    return f\"hello, {name}\"\n\nprint(greet(\"codepad\"))\n",
	"#!/usr/bin/env bash\nset -euo pipefail\n\necho \"hello, codepad\"\n",
	"SELECT name, locked\nFROM workspaces\nORDER BY name;\n",
	"const greet = (name) => `hello, ${name}`;\nconsole.log(greet(\"codepad\"));\n",
}

// Placeholder picks one of the built-in snippets at random.
func Placeholder() string {
	return placeholders[rand.IntN(len(placeholders))]
}

// FromConfig returns the generator named by workspace.default_content.
func FromConfig(kind string) (Generator, error) {
	switch strings.ToLower(kind) {
	case "", "empty":
		return Empty, nil
	case "placeholder":
		return Placeholder, nil
	default:
		return nil, fmt.Errorf("unknown default content generator %q", kind)
	}
}

// NewName returns a short random workspace name suitable for a URL segment.
func NewName() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:10]
}
