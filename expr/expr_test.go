package expr

import (
	"reflect"
	"testing"
)

func TestMember(t *testing.T) {
	m := M("Endpoint", "Name")
	if m.Name() != "Endpoint.Name" || m.Leaf() != "Name" || !m.Nested() {
		t.Errorf("unexpected member %+v", m)
	}
	if M("Name").Nested() {
		t.Error("single element path should not be nested")
	}
	if (Member{}).Leaf() != "" {
		t.Error("empty member should have empty leaf")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		expr     Expr
		expected string
	}{
		{Equal(M("Name"), "Alice"), `(x.Name == "Alice")`},
		{Less(M("Balance"), 100), `(x.Balance < 100)`},
		{Negate(HasPrefix(M("Nickname"), "C")), `!x.Nickname.StartsWith("C")`},
		{In(M("LastName"), ListOf("Apple", "Peach")), `["Apple", "Peach"].Contains(x.LastName)`},
		{AndAll(Greater(M("A"), 1), LessOrEqual(M("A"), 5)), `((x.A > 1) && (x.A <= 5))`},
		{OrAny(Equal(M("A"), 1), NotEqual(M("B"), 2)), `((x.A == 1) || (x.B != 2))`},
		{Has(M("Roles"), "RoleC"), `x.Roles.Contains("RoleC")`},
		{HasSuffix(M("Name"), "y"), `x.Name.EndsWith("y")`},
		{Binary{Op: Eq, Left: M("A")}, `(x.A == <nil>)`},
	}
	for _, tt := range tests {
		if got := tt.expr.String(); got != tt.expected {
			t.Errorf("String() = %s, want %s", got, tt.expected)
		}
	}
}

func TestLift(t *testing.T) {
	b := Equal(5, M("A"))
	if _, ok := b.Left.(Constant); !ok {
		t.Errorf("expected constant left, got %T", b.Left)
	}
	if _, ok := b.Right.(Member); !ok {
		t.Errorf("expected member right, got %T", b.Right)
	}
}

func TestFold(t *testing.T) {
	if c, ok := AndAll().(Constant); !ok || c.Value != true {
		t.Errorf("AndAll() = %v", AndAll())
	}
	if c, ok := OrAny().(Constant); !ok || c.Value != false {
		t.Errorf("OrAny() = %v", OrAny())
	}
	single := Equal(M("A"), 1)
	if !reflect.DeepEqual(AndAll(single), Expr(single)) {
		t.Error("AndAll of one expression should return it unchanged")
	}
}

func TestBinaryOp(t *testing.T) {
	flips := map[BinaryOp]BinaryOp{Lt: Gt, Le: Ge, Gt: Lt, Ge: Le, Eq: Eq, Ne: Ne}
	for op, want := range flips {
		if got := op.Flip(); got != want {
			t.Errorf("%s.Flip() = %s, want %s", op, got, want)
		}
	}
	if And.IsComparison() || Or.IsComparison() || !Ne.IsComparison() {
		t.Error("IsComparison misclassified operators")
	}
	if BinaryOp(42).String() != "BinaryOp(42)" {
		t.Errorf("String() = %s", BinaryOp(42).String())
	}
	if Method(9).String() != "Method(9)" {
		t.Errorf("String() = %s", Method(9).String())
	}
}
