package workflow

import (
	"fmt"
	"strings"
)

// Mermaid renders the graph as a Mermaid flowchart.
func (e *Engine[S]) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	fmt.Fprintf(&b, "    __start__([start]) --> %s\n", e.entry)

	for _, from := range e.order {
		switch edge := e.edges[from].(type) {
		case DirectEdge:
			fmt.Fprintf(&b, "    %s --> %s\n", from, mermaidNode(edge.To))
		case ConditionalEdge[S]:
			for _, outcome := range edge.Outcomes() {
				fmt.Fprintf(&b, "    %s -.->|%s| %s\n", from, outcome, mermaidNode(edge.Routes[outcome]))
			}
		}
	}
	return b.String()
}

func mermaidNode(name string) string {
	if name == End {
		return "__end__([end])"
	}
	return name
}
