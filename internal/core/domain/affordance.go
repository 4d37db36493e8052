package domain

// AffordanceKind tags a control as mutating or read-only. The tag is attached
// at construction time; the read-only filter never inspects labels, icons, or
// any other presentation detail to classify a control.
type AffordanceKind int

const (
	// AffordanceView is a read affordance, always visible.
	AffordanceView AffordanceKind = iota
	// AffordanceAction is a mutating affordance, visible only when the active
	// role holds its capability.
	AffordanceAction
)

// Affordance is a single control offered to the dashboard for one entity:
// a button, menu entry, or editable column.
type Affordance struct {
	Name       string         `json:"name"`
	Kind       AffordanceKind `json:"-"`
	Capability Capability     `json:"-"`
}

// ViewAffordance builds a read affordance.
func ViewAffordance(name string) Affordance {
	return Affordance{Name: name, Kind: AffordanceView}
}

// ActionAffordance builds a mutating affordance gated by a capability.
func ActionAffordance(name string, cap Capability) Affordance {
	return Affordance{Name: name, Kind: AffordanceAction, Capability: cap}
}

// FilterAffordances produces the affordance set visible to role. View
// affordances pass through untouched; action affordances are dropped when the
// role lacks their capability. constrained reports whether anything was
// suppressed, so the caller can surface an informational read-only banner.
// No application state is mutated.
func FilterAffordances(role string, affordances []Affordance) (visible []Affordance, constrained bool) {
	visible = make([]Affordance, 0, len(affordances))
	for _, a := range affordances {
		if a.Kind == AffordanceAction && !HasPermission(role, a.Capability) {
			constrained = true
			continue
		}
		visible = append(visible, a)
	}
	return visible, constrained
}
