package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Write serializes the element tree with two-space indentation and an XML
// declaration. Attributes are written in stored order; namespace prefixes are
// not reconstructed, so callers that care about namespaces attach the xmlns
// attributes themselves.
func Write(w io.Writer, root *Element) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write document header: %w", err)
	}
	return writeElement(w, root, 0)
}

func writeElement(w io.Writer, e *Element, depth int) error {
	indent := strings.Repeat("  ", depth)

	var b strings.Builder
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		name := a.Name
		if a.Space == "xmlns" {
			name = "xmlns:" + a.Name
		} else if a.Space != "" {
			// Resolved-namespace attributes come back out under a prefix the
			// reader understands on round-trip.
			name = prefixFor(a.Space) + ":" + a.Name
		}
		b.WriteString(" " + name + `="` + escape(a.Value) + `"`)
	}

	if len(e.Children) == 0 && e.Text == "" {
		b.WriteString("/>\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	if len(e.Children) == 0 {
		b.WriteString(">" + escape(e.Text) + "</" + e.Name + ">\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString(">\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := writeElement(w, c, depth+1); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, indent+"</"+e.Name+">\n")
	return err
}

// wellKnownPrefixes maps namespace URIs of qualified attributes to the prefix
// used on output.
var wellKnownPrefixes = map[string]string{
	"http://www.cellml.org/cellml/2.0#": "cellml",
	"cellml":                            "cellml",
}

func prefixFor(space string) string {
	if p, ok := wellKnownPrefixes[space]; ok {
		return p
	}
	return "ns"
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
