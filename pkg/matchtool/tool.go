// Package matchtool builds, runs, and interprets head-to-head engine matches
// driven by external tournament runners such as cutechess-cli and fastchess.
package matchtool

import (
	"errors"
	"fmt"
	"strings"
)

// Tool selects the external tournament runner backend.
type Tool string

const (
	ToolCutechess Tool = "cutechess"
	ToolFastchess Tool = "fastchess"
)

// ErrUnsupportedTool indicates a backend selector this package cannot drive.
var ErrUnsupportedTool = errors.New("unsupported match tool")

// ParseTool normalizes a backend selector and rejects unknown values before
// any process is spawned.
func ParseTool(name string) (Tool, error) {
	switch Tool(strings.ToLower(strings.TrimSpace(name))) {
	case ToolCutechess:
		return ToolCutechess, nil
	case ToolFastchess:
		return ToolFastchess, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTool, name)
	}
}

func (t Tool) String() string {
	return string(t)
}
