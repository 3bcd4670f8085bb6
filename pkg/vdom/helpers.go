package vdom

import "fmt"

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// If returns the node if condition is true, nil otherwise.
// Nil children are dropped by element constructors.
func If(condition bool, node *Node) *Node {
	if condition {
		return node
	}
	return nil
}

// IfElse returns ifTrue if condition is true, ifFalse otherwise.
func IfElse(condition bool, ifTrue, ifFalse *Node) *Node {
	if condition {
		return ifTrue
	}
	return ifFalse
}

// When returns the result of fn if condition is true, nil otherwise.
// Unlike If, fn only runs when needed.
func When(condition bool, fn func() *Node) *Node {
	if condition {
		return fn()
	}
	return nil
}

// Range maps a slice to nodes.
func Range[T any](items []T, fn func(item T, index int) *Node) []*Node {
	result := make([]*Node, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

// KeyedRange maps a slice to keyed children.
func KeyedRange[T any](items []T, key func(item T) string, fn func(item T, index int) *Node) []KeyedChild {
	result := make([]KeyedChild, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, KeyedChild{Key: key(item), Node: node})
		}
	}
	return result
}

// Repeat creates n nodes.
func Repeat(n int, fn func(i int) *Node) []*Node {
	result := make([]*Node, 0, n)
	for i := 0; i < n; i++ {
		if node := fn(i); node != nil {
			result = append(result, node)
		}
	}
	return result
}
