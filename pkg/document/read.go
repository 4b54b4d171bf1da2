package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Read parses one document from r and returns its single root element with
// source line numbers attached. The standard decoder handles tokenization and
// namespace resolution; this function only builds the tree.
//
// The semantic vocabularies layered on top (CellML, MathML) need position
// context for their own error reporting, which is why the raw input is held
// in memory long enough to map byte offsets to lines.
func Read(r io.Reader) (*Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	// Offsets of line starts, for offset -> line translation.
	lineStarts := []int{0}
	for i, b := range data {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	lineAt := func(offset int64) int {
		return sort.Search(len(lineStarts), func(i int) bool {
			return int64(lineStarts[i]) > offset
		})
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *Element
	var stack []*Element

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document at line %d: %w", lineAt(offset), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Space: t.Name.Space,
				Name:  t.Name.Local,
				Line:  lineAt(offset),
			}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements (second at line %d)", el.Line)
				}
				root = el
			} else {
				stack[len(stack)-1].AddChild(el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced end tag at line %d", lineAt(offset))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if text := strings.TrimSpace(string(t)); text != "" {
					stack[len(stack)-1].Text += text
				}
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("document ended inside element %q", stack[len(stack)-1].Name)
	}
	return root, nil
}
