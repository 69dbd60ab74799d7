package compiler

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// lineIndex maps element paths such as "transitions[2].to" to the YAML
// line they were written on. A nil index answers 0 for every path.
type lineIndex map[string]int

func (idx lineIndex) line(path string) int {
	return idx[path]
}

// indexLines walks a YAML node tree and records the line of every mapping
// value and sequence item.
func indexLines(root *yaml.Node) lineIndex {
	idx := lineIndex{}
	var walk func(n *yaml.Node, path string)
	walk = func(n *yaml.Node, path string) {
		if path != "" {
			idx[path] = n.Line
		}
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				key := n.Content[i].Value
				child := key
				if path != "" {
					child = path + "." + key
				}
				walk(n.Content[i+1], child)
				// A key line is more useful than a value line for block values.
				idx[child] = n.Content[i].Line
			}
		case yaml.SequenceNode:
			for i, item := range n.Content {
				walk(item, fmt.Sprintf("%s[%d]", path, i))
			}
		}
	}
	walk(root, "")
	return idx
}
