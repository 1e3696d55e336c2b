package ast

import "fmt"

// Span is the 1-based source position a node starts at.
type Span struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (s Span) IsZero() bool { return s.Line == 0 && s.Column == 0 }

func (s Span) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// SetSpan annotates the node with the provided span.
func SetSpan(node Node, span Span) {
	if node == nil {
		return
	}
	if setter, ok := node.(interface{ setSpan(Span) }); ok {
		setter.setSpan(span)
	}
}
