package enex

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Node is one node of a parsed XML document. Exactly one of the two
// concrete types below implements it.
type Node interface {
	node()
}

// Element is an XML element: tag name, attribute map and ordered children.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Children []Node
}

// Text is a character-data node. CDATA sections arrive here unwrapped.
type Text struct {
	Value string
}

func (*Element) node() {}
func (*Text) node()    {}

// parseTree decodes data into an element tree and returns the root element.
// Namespaces are ignored; local tag names are lowercased so lookups stay
// case-insensitive the way the export writers produce them.
func parseTree(data []byte) (*Element, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = true
	decoder.Entity = xml.HTMLEntity

	var root *Element
	var stack []*Element
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			element := &Element{Tag: strings.ToLower(t.Name.Local), Attrs: map[string]string{}}
			for _, attr := range t.Attr {
				element.Attrs[strings.ToLower(attr.Name.Local)] = attr.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &xml.SyntaxError{Msg: "multiple root elements"}
				}
				root = element
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, element)
			}
			stack = append(stack, element)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Text{Value: string(t)})
		}
	}
	if root == nil {
		return nil, &xml.SyntaxError{Msg: "no root element"}
	}
	return root, nil
}

// child returns the first direct child element with the given tag.
func (e *Element) child(tag string) *Element {
	for _, node := range e.Children {
		if element, ok := node.(*Element); ok && element.Tag == tag {
			return element
		}
	}
	return nil
}

// childElements returns all direct child elements with the given tag in
// document order.
func (e *Element) childElements(tag string) []*Element {
	var result []*Element
	for _, node := range e.Children {
		if element, ok := node.(*Element); ok && element.Tag == tag {
			result = append(result, element)
		}
	}
	return result
}

// text concatenates all descendant character data.
func (e *Element) text() string {
	var builder strings.Builder
	var walk func(node Node)
	walk = func(node Node) {
		switch n := node.(type) {
		case *Text:
			builder.WriteString(n.Value)
		case *Element:
			for _, child := range n.Children {
				walk(child)
			}
		}
	}
	for _, child := range e.Children {
		walk(child)
	}
	return builder.String()
}

// childText returns the trimmed text of the first child element with the
// given tag, or "" when the element is absent.
func (e *Element) childText(tag string) string {
	child := e.child(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.text())
}
