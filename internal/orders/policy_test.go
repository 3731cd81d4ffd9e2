package orders

import (
	"testing"
	"time"
)

func TestRefundPolicy_DefaultRule(t *testing.T) {
	policy, err := CompileRefundPolicy("")
	if err != nil {
		t.Fatalf("CompileRefundPolicy: %v", err)
	}
	if policy.Rule() != DefaultRefundRule {
		t.Errorf("Rule = %q, want the default", policy.Rule())
	}

	now := time.Now()
	cases := []struct {
		desc  string
		order Order
		want  bool
	}{
		{"delivered recently", Order{Status: "delivered", OrderedAt: now.AddDate(0, 0, -10)}, true},
		{"in transit", Order{Status: "in_transit", OrderedAt: now.AddDate(0, 0, -4)}, true},
		{"still processing", Order{Status: "processing", OrderedAt: now.AddDate(0, 0, -1)}, false},
		{"outside the window", Order{Status: "delivered", OrderedAt: now.AddDate(0, 0, -80)}, false},
		{"exactly at the window edge", Order{Status: "delivered", OrderedAt: now.AddDate(0, 0, -60)}, true},
	}
	for _, tc := range cases {
		got, err := policy.Eligible(&tc.order)
		if err != nil {
			t.Errorf("%s: Eligible: %v", tc.desc, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: Eligible = %v, want %v", tc.desc, got, tc.want)
		}
	}
}

func TestRefundPolicy_CustomRule(t *testing.T) {
	policy, err := CompileRefundPolicy(`status == "delivered" && total < 100.0`)
	if err != nil {
		t.Fatalf("CompileRefundPolicy: %v", err)
	}

	ok, err := policy.Eligible(&Order{Status: "delivered", Total: 89.99, OrderedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("cheap delivered order should be eligible under the custom rule")
	}

	ok, err = policy.Eligible(&Order{Status: "delivered", Total: 250, OrderedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expensive order should be ineligible under the custom rule")
	}
}

func TestCompileRefundPolicy_Invalid(t *testing.T) {
	for _, rule := range []string{
		"status ==",       // syntax error
		"days_since + 1",  // not a boolean
		"nonexistent_var", // unknown attribute
	} {
		if _, err := CompileRefundPolicy(rule); err == nil {
			t.Errorf("CompileRefundPolicy(%q) succeeded, want error", rule)
		}
	}
}
