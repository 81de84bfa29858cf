package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type emptyView struct{}

func (emptyView) ListOrganizations() []Organization            { return nil }
func (emptyView) ListUsers() []User                            { return nil }
func (emptyView) ListEvents() []Event                          { return nil }
func (emptyView) ListTables() []Table                          { return nil }
func (emptyView) ListSales() []Sale                            { return nil }
func (emptyView) FindOrganization(string) (Organization, bool) { return Organization{}, false }
func (emptyView) FindEvent(string) (Event, bool)               { return Event{}, false }
func (emptyView) FindTable(string) (Table, bool)               { return Table{}, false }

// fixedRule reports the same violations for every evaluation.
type fixedRule struct {
	name       string
	violations []Violation
	err        error
}

func (r fixedRule) Name() string { return r.name }

func (r fixedRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{Violations: append([]Violation(nil), r.violations...)}, nil
}

var (
	duplicateNumber = Violation{
		Rule:     "table_number_unique",
		Severity: SeverityBlock,
		Message:  `table number "A-1" already used by tbl-2 in event evt-1`,
		Entity:   EntityTable,
		EntityID: "tbl-1",
	}
	overCapacity = Violation{
		Rule:     "entry_capacity",
		Severity: SeverityWarn,
		Message:  "sale sale-1 admitted 6 people, table tbl-1 seats 4",
		Entity:   EntitySale,
		EntityID: "sale-1",
	}
	auditOnly = Violation{Rule: "audit", Severity: SeverityLog, Entity: EntitySale, EntityID: "sale-1"}
)

func TestResultMerge(t *testing.T) {
	cases := []struct {
		name     string
		parts    []Result
		count    int
		blocking bool
	}{
		{"empty", nil, 0, false},
		{"warn only", []Result{{Violations: []Violation{overCapacity}}}, 1, false},
		{"log only", []Result{{Violations: []Violation{auditOnly}}, {}}, 1, false},
		{"warn then block", []Result{{Violations: []Violation{overCapacity}}, {Violations: []Violation{duplicateNumber}}}, 2, true},
		{"block with empty tail", []Result{{Violations: []Violation{duplicateNumber}}, {}}, 1, true},
	}
	for _, tc := range cases {
		var res Result
		for _, p := range tc.parts {
			res.Merge(p)
		}
		if len(res.Violations) != tc.count || res.HasBlocking() != tc.blocking {
			t.Fatalf("%s: got %d violations, blocking=%v", tc.name, len(res.Violations), res.HasBlocking())
		}
	}
}

func TestRuleViolationErrorNamesFirstBlockingRule(t *testing.T) {
	err := error(RuleViolationError{Result: Result{Violations: []Violation{overCapacity, duplicateNumber}}})
	if !strings.Contains(err.Error(), "table_number_unique") || strings.Contains(err.Error(), "entry_capacity") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var rv RuleViolationError
	if !errors.As(err, &rv) || len(rv.Result.Violations) != 2 {
		t.Fatalf("expected result carried by error, got %+v", rv)
	}
	if (RuleViolationError{}).Error() != "transaction blocked by rules" {
		t.Fatalf("unexpected fallback message")
	}
}

func TestRulesEngineEvaluatesInRegistrationOrder(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "entry_capacity", violations: []Violation{overCapacity}})
	engine.Register(fixedRule{name: "table_number_unique", violations: []Violation{duplicateNumber}})
	engine.Register(fixedRule{name: "sale_qr_unique"})

	if names := engine.Rules(); len(names) != 3 || names[0].Name() != "entry_capacity" {
		t.Fatalf("unexpected registration order %v", names)
	}
	res, err := engine.Evaluate(context.Background(), emptyView{}, []Change{{Entity: EntitySale, Action: ActionUpdate}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 || res.Violations[0].Rule != "entry_capacity" || res.Violations[1].Rule != "table_number_unique" {
		t.Fatalf("unexpected violations %+v", res.Violations)
	}
	if !res.HasBlocking() {
		t.Fatalf("duplicate table number must block")
	}
}

func TestRulesEngineStopsOnRuleError(t *testing.T) {
	boom := errors.New("view unavailable")
	engine := NewRulesEngine()
	engine.Register(fixedRule{name: "entry_capacity", violations: []Violation{overCapacity}})
	engine.Register(fixedRule{name: "broken", err: boom})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected rule error, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("partial results must be discarded, got %+v", res.Violations)
	}
}
