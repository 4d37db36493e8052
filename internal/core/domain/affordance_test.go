package domain

import "testing"

func sampleAffordances() []Affordance {
	return []Affordance{
		ViewAffordance("detail"),
		ViewAffordance("history"),
		ActionAffordance("approve", CapApprove),
		ActionAffordance("reject", CapReject),
		ActionAffordance("delete", CapDelete),
	}
}

func TestFilterAffordances_ViewerSeesOnlyReads(t *testing.T) {
	visible, constrained := FilterAffordances(RoleViewer, sampleAffordances())
	if !constrained {
		t.Fatalf("viewer filtering should report constrained")
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 view affordances, got %d", len(visible))
	}
	for _, a := range visible {
		if a.Kind != AffordanceView {
			t.Fatalf("viewer should not see action %q", a.Name)
		}
	}
}

func TestFilterAffordances_SuperadminSeesEverything(t *testing.T) {
	in := sampleAffordances()
	visible, constrained := FilterAffordances(RoleSuperadmin, in)
	if constrained {
		t.Fatalf("superadmin must not be constrained")
	}
	if len(visible) != len(in) {
		t.Fatalf("expected %d affordances, got %d", len(in), len(visible))
	}
}

func TestFilterAffordances_PartialCapabilitySet(t *testing.T) {
	// Responsable approves and rejects but cannot delete.
	visible, constrained := FilterAffordances(RoleResponsable, sampleAffordances())
	if !constrained {
		t.Fatalf("responsable lacks delete, should be constrained")
	}
	names := make(map[string]bool, len(visible))
	for _, a := range visible {
		names[a.Name] = true
	}
	if !names["approve"] || !names["reject"] {
		t.Fatalf("responsable should keep approve and reject, got %v", names)
	}
	if names["delete"] {
		t.Fatalf("responsable should not see delete")
	}
}

func TestFilterAffordances_ClassifiesByTagNotName(t *testing.T) {
	// An affordance named like an action but tagged as a view stays visible:
	// classification is by the construction-time tag only.
	in := []Affordance{ViewAffordance("approve")}
	visible, constrained := FilterAffordances(RoleViewer, in)
	if constrained || len(visible) != 1 {
		t.Fatalf("view affordance named approve must pass: visible=%d constrained=%v", len(visible), constrained)
	}
}

func TestFilterAffordances_UnknownRoleGetsReadsOnly(t *testing.T) {
	visible, constrained := FilterAffordances("auditor", sampleAffordances())
	if !constrained {
		t.Fatalf("unknown role should be constrained")
	}
	for _, a := range visible {
		if a.Kind != AffordanceView {
			t.Fatalf("unknown role should not see action %q", a.Name)
		}
	}
}
