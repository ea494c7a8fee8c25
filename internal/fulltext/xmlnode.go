package fulltext

import (
	"encoding/xml"
	"strings"
)

// XMLNode is a generic element tree for schema-light XML parsing. JATS, the
// Elsevier article schema and GROBID TEI share enough shape that walking a
// generic tree beats maintaining three struct hierarchies; retrievers pull
// out the handful of elements they care about by local name.
type XMLNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr
	Children []XMLNode

	// content holds the element's mixed content in document order, so text
	// interleaved with inline markup (<italic>, <xref>) reads back in the
	// original word order.
	content []contentNode
}

// contentNode is one ordered content entry: a run of character data when
// text is non-empty, otherwise an index into Children.
type contentNode struct {
	text  string
	child int
}

// ParseXML decodes an XML document into a node tree.
func ParseXML(data []byte) (*XMLNode, error) {
	var root XMLNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// UnmarshalXML decodes an element with a manual token walk. The stock
// chardata decoding concatenates all of an element's text runs into one
// string, losing their position relative to inline child elements; the walk
// records text and children interleaved as they appear.
func (n *XMLNode) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.XMLName = start.Name
	n.Attrs = start.Attr
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var child XMLNode
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
			n.content = append(n.content, contentNode{child: len(n.Children) - 1})
		case xml.CharData:
			if len(t) > 0 {
				n.content = append(n.content, contentNode{text: string(t)})
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Is reports whether the node's local element name matches.
func (n *XMLNode) Is(local string) bool {
	return n.XMLName.Local == local
}

// Attr returns the value of the named attribute, or "".
func (n *XMLNode) Attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Find returns the first descendant with the given local name, depth first,
// or nil.
func (n *XMLNode) Find(local string) *XMLNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.Is(local) {
			return c
		}
		if found := c.Find(local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns all descendants with the given local name, depth first.
func (n *XMLNode) FindAll(local string) []*XMLNode {
	var out []*XMLNode
	for i := range n.Children {
		c := &n.Children[i]
		if c.Is(local) {
			out = append(out, c)
		}
		out = append(out, c.FindAll(local)...)
	}
	return out
}

// ChildrenNamed returns the direct children with the given local name.
func (n *XMLNode) ChildrenNamed(local string) []*XMLNode {
	var out []*XMLNode
	for i := range n.Children {
		if n.Children[i].Is(local) {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

// FlatText returns the whitespace-normalized text of the node and all its
// descendants.
func (n *XMLNode) FlatText() string {
	var b strings.Builder
	n.collectText(&b, nil)
	return normalizeSpace(b.String())
}

// TextExcluding returns the whitespace-normalized text of the node and its
// descendants, skipping any subtree whose local name is in skip. Used to
// keep a parent section's text from absorbing its nested subsections.
func (n *XMLNode) TextExcluding(skip ...string) string {
	var b strings.Builder
	n.collectText(&b, skip)
	return normalizeSpace(b.String())
}

func (n *XMLNode) collectText(b *strings.Builder, skip []string) {
	for _, cn := range n.content {
		if cn.text != "" {
			b.WriteString(cn.text)
			continue
		}
		c := &n.Children[cn.child]
		if nameIn(c.XMLName.Local, skip) {
			continue
		}
		c.collectText(b, skip)
		// Separates adjacent block elements in markup that carries no
		// whitespace between them.
		b.WriteByte(' ')
	}
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
