package ingestion

import (
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
	file     bool
}

// renderTree draws relative paths as an indented directory listing
func renderTree(rootName string, paths []string) string {
	root := &treeNode{name: rootName, children: map[string]*treeNode{}}
	for _, p := range paths {
		node := root
		parts := strings.Split(p, "/")
		for i, part := range parts {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{name: part, children: map[string]*treeNode{}}
				node.children[part] = child
			}
			if i == len(parts)-1 {
				child.file = true
			}
			node = child
		}
	}

	var b strings.Builder
	b.WriteString("Directory structure:\n")
	b.WriteString("└── " + rootName + "/\n")
	writeChildren(&b, root, "    ")
	return b.String()
}

func writeChildren(b *strings.Builder, node *treeNode, prefix string) {
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	// directories before files, each alphabetical
	sort.Slice(names, func(i, j int) bool {
		a, c := node.children[names[i]], node.children[names[j]]
		if a.file != c.file {
			return !a.file
		}
		return names[i] < names[j]
	})

	for i, name := range names {
		child := node.children[name]
		last := i == len(names)-1

		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}

		label := name
		if !child.file {
			label += "/"
		}
		b.WriteString(prefix + connector + label + "\n")
		if !child.file {
			writeChildren(b, child, prefix+next)
		}
	}
}
