package mathml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-cellml/pkg/document"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
)

func acceptAll(string) error { return nil }

func plainNumbers(value float64, unitsName string) (*expr.Number, error) {
	return &expr.Number{Value: value, Units: unitsName}, nil
}

func parseMathString(t *testing.T, body string) *document.Element {
	t.Helper()
	doc := `<math xmlns="http://www.w3.org/1998/Math/MathML" xmlns:cellml="http://www.cellml.org/cellml/2.0#">` + body + `</math>`
	root, err := document.Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return root
}

// TestParseApply_Simple verifies a plain assignment equation
func TestParseApply_Simple(t *testing.T) {
	math := parseMathString(t, `
		<apply><eq/>
			<ci>y</ci>
			<apply><times/><ci>k</ci><ci>x</ci></apply>
		</apply>`)

	eqs, err := ParseMath(math, acceptAll, plainNumbers)
	if err != nil {
		t.Fatalf("ParseMath failed: %v", err)
	}
	if len(eqs) != 1 {
		t.Fatalf("equations = %d, want 1", len(eqs))
	}

	eq := eqs[0]
	if eq.IsDerivative() {
		t.Error("Expected a plain equation")
	}
	if eq.Target() != "y" {
		t.Errorf("target = %q, want y", eq.Target())
	}
	if got := eq.RHS.String(); got != "(k * x)" {
		t.Errorf("RHS = %s", got)
	}
}

// TestParseApply_Derivative verifies diff/bvar decoding
func TestParseApply_Derivative(t *testing.T) {
	math := parseMathString(t, `
		<apply><eq/>
			<apply><diff/><bvar><ci>t</ci></bvar><ci>V</ci></apply>
			<cn cellml:units="volt_per_second">1</cn>
		</apply>`)

	eqs, err := ParseMath(math, acceptAll, plainNumbers)
	if err != nil {
		t.Fatalf("ParseMath failed: %v", err)
	}
	eq := eqs[0]
	if !eq.IsDerivative() {
		t.Fatal("Expected a derivative equation")
	}
	lhs := eq.LHS.(*expr.DerivLHS)
	if lhs.Name != "V" || lhs.Wrt != "t" {
		t.Errorf("LHS = d(%s)/d(%s), want d(V)/d(t)", lhs.Name, lhs.Wrt)
	}
	n, ok := eq.RHS.(*expr.Number)
	if !ok || n.Value != 1 || n.Units != "volt_per_second" {
		t.Errorf("RHS = %#v", eq.RHS)
	}
}

// TestParseApply_ResolverRejection verifies unknown ci names propagate as errors
func TestParseApply_ResolverRejection(t *testing.T) {
	math := parseMathString(t, `<apply><eq/><ci>ghost</ci><cn>1</cn></apply>`)

	resolve := func(name string) error {
		return fmt.Errorf("unknown variable %q", name)
	}
	if _, err := ParseMath(math, resolve, plainNumbers); err == nil {
		t.Fatal("Expected resolver error to propagate")
	} else if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error does not name the variable: %v", err)
	}
}

// TestParseApply_HigherOrderRejected verifies degree elements are unsupported
func TestParseApply_HigherOrderRejected(t *testing.T) {
	math := parseMathString(t, `
		<apply><eq/>
			<apply><diff/><bvar><ci>t</ci></bvar><ci>V</ci></apply>
			<apply><diff/><bvar><ci>t</ci><degree><cn>2</cn></degree></bvar><ci>W</ci></apply>
		</apply>`)

	if _, err := ParseMath(math, acceptAll, plainNumbers); err == nil {
		t.Fatal("Expected error for higher-order derivative")
	}
}

// TestParseApply_UnsupportedOperator verifies unknown operators fail
func TestParseApply_UnsupportedOperator(t *testing.T) {
	math := parseMathString(t, `
		<apply><eq/><ci>y</ci><apply><selector/><ci>x</ci></apply></apply>`)

	if _, err := ParseMath(math, acceptAll, plainNumbers); err == nil {
		t.Fatal("Expected error for unsupported operator")
	}
}

// TestParseApply_NaryFold verifies n-ary plus folds into nested binaries
func TestParseApply_NaryFold(t *testing.T) {
	math := parseMathString(t, `
		<apply><eq/><ci>s</ci>
			<apply><plus/><ci>a</ci><ci>b</ci><ci>c</ci></apply>
		</apply>`)

	eqs, err := ParseMath(math, acceptAll, plainNumbers)
	if err != nil {
		t.Fatalf("ParseMath failed: %v", err)
	}
	if got := eqs[0].RHS.String(); got != "((a + b) + c)" {
		t.Errorf("RHS = %s, want ((a + b) + c)", got)
	}
}

// TestWriteMath_RoundTrip verifies parse(write(eq)) preserves structure
func TestWriteMath_RoundTrip(t *testing.T) {
	original := &expr.Equation{
		LHS: &expr.DerivLHS{Name: "V", Wrt: "t"},
		RHS: &expr.Binary{
			Op: expr.OpDiv,
			X: &expr.Binary{
				Op: expr.OpSub,
				X:  &expr.Neg{X: &expr.Var{Name: "I"}},
				Y:  &expr.Number{Value: 2.5, Units: "ampere"},
			},
			Y: &expr.Var{Name: "C"},
		},
	}

	identity := func(s string) string { return s }
	math := WriteMath([]*expr.Equation{original}, identity, identity, "t")

	// Serialize through the document writer and read back, so attribute
	// namespace handling is exercised too.
	var buf strings.Builder
	if err := document.Write(&buf, math); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	reread, err := document.Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	eqs, err := ParseMath(reread, acceptAll, plainNumbers)
	if err != nil {
		t.Fatalf("ParseMath failed: %v", err)
	}
	if len(eqs) != 1 {
		t.Fatalf("equations = %d, want 1", len(eqs))
	}
	got := eqs[0]
	if got.String() != original.String() {
		t.Errorf("round-trip changed equation:\n  got  %s\n  want %s", got, original)
	}
	if !expr.Equal(got.RHS, original.RHS) {
		t.Error("round-trip RHS not structurally equal")
	}
}
