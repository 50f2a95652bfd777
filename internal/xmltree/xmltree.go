// Package xmltree provides a minimal read-only tree over an XML document
// with path-based child lookup and leaf text extraction. It is the response
// surface the query-protocol client hands to operation decoders; element
// namespaces are ignored, only local names matter.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is a single XML element: a name, accumulated character data, and
// ordered child elements.
type Node struct {
	name     string
	text     string
	children []*Node
}

// Parse decodes an XML document into its root Node.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: malformed document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("xmltree: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("xmltree: empty document")
	}
	return root, nil
}

// Name returns the element's local name.
func (n *Node) Name() string {
	return n.name
}

// Text returns the element's character data with surrounding whitespace
// trimmed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.text)
}

// Find walks the given child-name path and returns the first matching
// element at each step, or nil if any step is missing.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, name := range path {
		var next *Node
		for _, child := range cur.children {
			if child.name == name {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// TextAt returns the trimmed text of the element at the given path, or the
// empty string if the path does not resolve.
func (n *Node) TextAt(path ...string) string {
	found := n.Find(path...)
	if found == nil {
		return ""
	}
	return found.Text()
}

// Each returns all direct children with the given name, in document order.
func (n *Node) Each(name string) []*Node {
	var out []*Node
	for _, child := range n.children {
		if child.name == name {
			out = append(out, child)
		}
	}
	return out
}
