package crawler

import (
	"fmt"
	"strings"
)

// RenderTree renders the tree as an indented listing in the style of the
// Unix tree command. Directories carry a trailing slash; error nodes show
// the captured failure message.
func RenderTree(root *TreeNode) string {
	var builder strings.Builder

	switch root.Kind {
	case NodeError:
		builder.WriteString(fmt.Sprintf("%s [error: %s]\n", root.Name, root.Message))
		return builder.String()
	case NodeFile:
		builder.WriteString(root.Name + "\n")
		return builder.String()
	}

	builder.WriteString(root.Name + "/\n")
	renderChildren(root, "", &builder)
	return builder.String()
}

func renderChildren(node *TreeNode, prefix string, builder *strings.Builder) {
	for i, child := range node.Children {
		connector := "├── "
		extension := "│   "
		if i == len(node.Children)-1 {
			connector = "└── "
			extension = "    "
		}

		switch child.Kind {
		case NodeDirectory:
			builder.WriteString(fmt.Sprintf("%s%s%s/\n", prefix, connector, child.Name))
			renderChildren(child, prefix+extension, builder)
		case NodeFile:
			builder.WriteString(fmt.Sprintf("%s%s%s\n", prefix, connector, child.Name))
		case NodeError:
			builder.WriteString(fmt.Sprintf("%s%s%s [error: %s]\n", prefix, connector, child.Name, child.Message))
		}
	}
}
