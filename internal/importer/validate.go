package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/wbs"
	"github.com/shopspring/decimal"
)

// ValidateImportDocument checks references, hierarchy and pricing before
// conversion. Returns every error found rather than stopping at the first.
func ValidateImportDocument(doc *ImportDocument) []error {
	var errs []error

	errs = append(errs, validateProject(&doc.Project)...)

	nodes := make(map[string]*NodeImport, len(doc.Wbs))
	errs = append(errs, validateNodes(doc.Wbs, nodes)...)

	if doc.Budget != nil {
		errs = append(errs, validateBudget(doc.Budget, nodes)...)
	}
	return errs
}

func validateProject(p *ProjectImport) []error {
	project := domain.Project{ShortID: strings.ToUpper(strings.TrimSpace(p.ShortID))}
	var errs []error
	if err := project.ValidateShortID(); err != nil {
		errs = append(errs, fmt.Errorf("project.short_id: %w", err))
	}
	if p.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}
	return errs
}

func validateNodes(nodes []NodeImport, byRef map[string]*NodeImport) []error {
	var errs []error

	for i := range nodes {
		n := &nodes[i]
		prefix := fmt.Sprintf("wbs[%d]", i)
		if n.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
			continue
		}
		if _, dup := byRef[n.Ref]; dup {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, n.Ref))
			continue
		}
		byRef[n.Ref] = n
		if !domain.ValidWbsTypes[n.Type] {
			errs = append(errs, fmt.Errorf("%s.type: invalid type %q", prefix, n.Type))
		}
		if n.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		errs = append(errs, validateDecimal(prefix+".quantity", n.Quantity, true)...)
	}

	for i := range nodes {
		n := &nodes[i]
		prefix := fmt.Sprintf("wbs[%d]", i)
		if n.ParentRef == nil || *n.ParentRef == "" {
			if domain.WbsType(n.Type) != domain.WbsPhase {
				errs = append(errs, fmt.Errorf("%s: root node %q must be %s, got %s", prefix, n.Ref, domain.WbsPhase, n.Type))
			}
			continue
		}
		parent, ok := byRef[*n.ParentRef]
		if !ok {
			errs = append(errs, fmt.Errorf("%s.parent_ref: ref %q not found in wbs", prefix, *n.ParentRef))
			continue
		}
		if !wbs.ValidateChildType(domain.WbsType(parent.Type), domain.WbsType(n.Type)) {
			errs = append(errs, fmt.Errorf("%s: %s %q does not admit %s children", prefix, parent.Type, parent.Ref, n.Type))
		}
	}

	errs = append(errs, validateExplicitCodes(nodes, byRef)...)
	return errs
}

// validateExplicitCodes checks that explicit codes are unique and sit under
// their parent's explicit code. Generated codes are valid by construction.
func validateExplicitCodes(nodes []NodeImport, byRef map[string]*NodeImport) []error {
	var errs []error
	seen := make(map[string]string)
	for i := range nodes {
		n := &nodes[i]
		if n.Code == "" {
			continue
		}
		prefix := fmt.Sprintf("wbs[%d].code", i)
		if other, dup := seen[n.Code]; dup {
			errs = append(errs, fmt.Errorf("%s: code %q already used by %q", prefix, n.Code, other))
		}
		seen[n.Code] = n.Ref
		if want := wbs.DepthOfType(domain.WbsType(n.Type)); want != 0 && wbs.DepthOfCode(n.Code) != want {
			errs = append(errs, fmt.Errorf("%s: code %q has the wrong depth for %s", prefix, n.Code, n.Type))
		}
	}
	return errs
}

func validateBudget(b *BudgetImport, nodes map[string]*NodeImport) []error {
	var errs []error
	if b.VersionCode == "" {
		errs = append(errs, fmt.Errorf("budget.version_code is required"))
	}
	if !domain.ValidVersionTypes[b.VersionType] {
		errs = append(errs, fmt.Errorf("budget.version_type: invalid type %q", b.VersionType))
	}

	priced := make(map[string]bool, len(b.Lines))
	for i, l := range b.Lines {
		prefix := fmt.Sprintf("budget.lines[%d]", i)
		n, ok := nodes[l.NodeRef]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%s.node_ref: ref %q not found in wbs", prefix, l.NodeRef))
		case domain.WbsType(n.Type) != domain.WbsTask:
			errs = append(errs, fmt.Errorf("%s.node_ref: %q is a %s; only TASK nodes are priced", prefix, l.NodeRef, n.Type))
		case priced[l.NodeRef]:
			errs = append(errs, fmt.Errorf("%s.node_ref: %q is priced twice", prefix, l.NodeRef))
		}
		priced[l.NodeRef] = true
		errs = append(errs, validateDecimal(prefix+".quantity", l.Quantity, false)...)
		errs = append(errs, validateDecimal(prefix+".unit_price", l.UnitPrice, false)...)
		errs = append(errs, validateDecimal(prefix+".indirect_pct", l.IndirectPct, true)...)
	}
	return errs
}

func validateDecimal(field, value string, optional bool) []error {
	if value == "" {
		if optional {
			return nil
		}
		return []error{fmt.Errorf("%s is required", field)}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid decimal %q", field, value)}
	}
	if d.IsNegative() {
		return []error{fmt.Errorf("%s: must not be negative, got %s", field, value)}
	}
	return nil
}
