package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Note bodies from the editor are stored as Lexical JSON trees.

type lexicalRoot struct {
	Root lexicalNode `json:"root"`
}

type lexicalNode struct {
	Type     string        `json:"type"`
	Children []lexicalNode `json:"children,omitempty"`
	Text     string        `json:"text,omitempty"`
	Tag      string        `json:"tag,omitempty"`
	ListType string        `json:"listType,omitempty"`
	Start    int           `json:"start,omitempty"`
	Checked  bool          `json:"checked,omitempty"`
}

var errNotLexical = errors.New("json document has no lexical root")

func lexicalToText(_ context.Context, data []byte) (string, error) {
	return LexicalToText(data)
}

// LexicalToText flattens a Lexical document into blank-line separated blocks.
func LexicalToText(data []byte) (string, error) {
	var doc lexicalRoot
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse lexical json: %w", err)
	}
	if doc.Root.Type != "root" {
		return "", errNotLexical
	}

	blocks := make([]string, 0, len(doc.Root.Children))
	for _, child := range doc.Root.Children {
		if b := strings.TrimSpace(renderBlock(child, 0)); b != "" {
			blocks = append(blocks, b)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func renderBlock(n lexicalNode, depth int) string {
	switch n.Type {
	case "heading":
		level := 1
		if len(n.Tag) == 2 && n.Tag[0] == 'h' && n.Tag[1] >= '1' && n.Tag[1] <= '6' {
			level = int(n.Tag[1] - '0')
		}
		return strings.Repeat("#", level) + " " + inline(n)
	case "quote":
		return "> " + inline(n)
	case "list":
		return renderList(n, depth)
	case "table":
		rows := make([]string, 0, len(n.Children))
		for _, row := range n.Children {
			cells := make([]string, 0, len(row.Children))
			for _, cell := range row.Children {
				cells = append(cells, strings.TrimSpace(inline(cell)))
			}
			rows = append(rows, strings.Join(cells, " | "))
		}
		return strings.Join(rows, "\n")
	case "horizontalrule":
		return ""
	default:
		return inline(n)
	}
}

func renderList(n lexicalNode, depth int) string {
	index := 1
	if n.Start > 0 {
		index = n.Start
	}

	var lines []string
	for _, item := range n.Children {
		if item.Type != "listitem" {
			continue
		}
		marker := "- "
		switch n.ListType {
		case "number":
			marker = fmt.Sprintf("%d. ", index)
			index++
		case "check":
			marker = "- [ ] "
			if item.Checked {
				marker = "- [x] "
			}
		}

		var text strings.Builder
		var nested []string
		for _, c := range item.Children {
			if c.Type == "list" {
				nested = append(nested, renderList(c, depth+1))
				continue
			}
			text.WriteString(inline(c))
		}
		lines = append(lines, strings.Repeat("  ", depth)+marker+strings.TrimSpace(text.String()))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

func inline(n lexicalNode) string {
	switch n.Type {
	case "text", "code-highlight":
		return n.Text
	case "linebreak":
		return "\n"
	case "tab":
		return " "
	}
	var sb strings.Builder
	for _, c := range n.Children {
		if c.Type == "list" {
			sb.WriteString(renderList(c, 0))
			continue
		}
		sb.WriteString(inline(c))
	}
	return sb.String()
}
