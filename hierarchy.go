package guardkit

// RankUnknown is the rank reported for empty or unlisted role names.
// It sorts strictly below every defined rank, so unknown roles fail
// every minimum-rank comparison against a defined role.
const RankUnknown = -1

// Hierarchy is a static total order over role names, from lowest to
// highest privilege. It is fixed at construction time and every method
// is a pure function over the compiled table, so rank comparisons are
// testable without a database and safe for concurrent use.
type Hierarchy struct {
	order []string
	ranks map[string]int
}

// NewHierarchy creates a Hierarchy from role names ordered lowest to
// highest privilege. Names are normalized the same way role names are
// everywhere else (trim, lowercase, whitespace to underscores).
//
// Example:
//
//	h := guardkit.NewHierarchy("customer", "employee", "owner", "admin")
func NewHierarchy(rolesLowToHigh ...string) *Hierarchy {
	h := &Hierarchy{
		order: make([]string, 0, len(rolesLowToHigh)),
		ranks: make(map[string]int, len(rolesLowToHigh)),
	}
	for _, name := range rolesLowToHigh {
		name = NormalizeName(name)
		if name == "" {
			continue
		}
		if _, exists := h.ranks[name]; exists {
			continue
		}
		h.ranks[name] = len(h.order)
		h.order = append(h.order, name)
	}
	return h
}

// DefaultHierarchy returns the standard four-level ordering used by the
// sample application: customer < employee < owner < admin.
func DefaultHierarchy() *Hierarchy {
	return NewHierarchy("customer", "employee", "owner", "admin")
}

// Rank returns the position of role in the table, or RankUnknown if the
// role is empty or not part of the hierarchy.
func (h *Hierarchy) Rank(role string) int {
	if role == "" {
		return RankUnknown
	}
	if rank, ok := h.ranks[role]; ok {
		return rank
	}
	return RankUnknown
}

// Contains reports whether role is part of the hierarchy table.
func (h *Hierarchy) Contains(role string) bool {
	_, ok := h.ranks[role]
	return ok
}

// Roles returns the role names ordered lowest to highest privilege.
func (h *Hierarchy) Roles() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Top returns the highest-privilege role name, or empty string for an
// empty hierarchy. The top role receives the implicit all-permissions
// bypass in RequireAllPermissions.
func (h *Hierarchy) Top() string {
	if len(h.order) == 0 {
		return ""
	}
	return h.order[len(h.order)-1]
}

// IsAtLeast reports whether role ranks at or above minimum. Empty
// arguments always fail. Unknown names compare at RankUnknown, so an
// unknown role still satisfies an unknown minimum but never a defined
// one.
func (h *Hierarchy) IsAtLeast(role, minimum string) bool {
	if role == "" || minimum == "" {
		return false
	}
	return h.Rank(role) >= h.Rank(minimum)
}

// CanManage reports whether manager may administer target. The top role
// manages every role unconditionally, including itself and unknown
// roles. Every other role manages strictly lower ranks only, so a role
// can never manage a peer or itself. Empty arguments always fail.
func (h *Hierarchy) CanManage(manager, target string) bool {
	if manager == "" || target == "" {
		return false
	}
	if manager == h.Top() {
		return true
	}
	return h.Rank(manager) > h.Rank(target)
}
