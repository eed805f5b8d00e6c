package validate

import "testing"

func TestURLRule(t *testing.T) {
	if err := URL.Check("homepage", "https://example.com"); err != nil {
		t.Errorf("expected valid URL to pass, got %v", err)
	}
	err := URL.Check("homepage", "test.com")
	if err == nil {
		t.Fatal("expected bare host without scheme to fail")
	}
	if err.Error() != "homepage does not include a valid domain" {
		t.Errorf("unexpected message: %v", err)
	}
	if err := URL.Check("homepage", ""); err != nil {
		t.Error("expected empty value to pass any rule")
	}
}

func TestProtocolRule(t *testing.T) {
	if err := Protocol.Check("link", "https://example.com"); err != nil {
		t.Errorf("expected valid protocol to pass, got %v", err)
	}
	err := Protocol.Check("link", "example.com")
	if err == nil {
		t.Fatal("expected missing protocol to fail")
	}
	if err.Error() != "link does not include a valid link protocol" {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestNoneRuleAlwaysPasses(t *testing.T) {
	if err := None.Check("col", "anything at all"); err != nil {
		t.Errorf("none rule rejected a value: %v", err)
	}
}

func TestSchemaColumnIdentifierFallsBackToIndex(t *testing.T) {
	s := New([]Rule{URL}, nil)
	if got := s.ColumnIdentifier(0); got != "1" {
		t.Errorf("ColumnIdentifier(0) = %q, want %q", got, "1")
	}

	named := New([]Rule{URL}, []string{"homepage"})
	if got := named.ColumnIdentifier(0); got != "homepage" {
		t.Errorf("ColumnIdentifier(0) = %q, want %q", got, "homepage")
	}
}

func TestSchemaShorterThanRowLeavesExcessUnvalidated(t *testing.T) {
	s := New([]Rule{URL}, nil)
	if s.RuleFor(3) != None {
		t.Error("expected columns beyond schema length to default to None")
	}
}
