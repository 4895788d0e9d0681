// Package wbs holds the structural rules of the work breakdown tree: code
// generation and the PHASE → ACTIVITY → TASK type hierarchy.
package wbs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/obra/internal/domain"
)

var allowedChildren = map[domain.WbsType][]domain.WbsType{
	domain.WbsPhase:    {domain.WbsActivity},
	domain.WbsActivity: {domain.WbsTask},
	domain.WbsTask:     {},
}

var typeDepth = map[domain.WbsType]int{
	domain.WbsPhase:    1,
	domain.WbsActivity: 2,
	domain.WbsTask:     3,
}

// GenerateCode returns sequence as a string for a root node, otherwise
// parentCode + "." + sequence.
func GenerateCode(parentCode string, sequence int) string {
	if parentCode == "" {
		return strconv.Itoa(sequence)
	}
	return parentCode + "." + strconv.Itoa(sequence)
}

// AllowedChildTypes returns the node types that may be attached under parent.
func AllowedChildTypes(parent domain.WbsType) []domain.WbsType {
	children := allowedChildren[parent]
	out := make([]domain.WbsType, len(children))
	copy(out, children)
	return out
}

// ValidateChildType reports whether child may be attached under parent.
func ValidateChildType(parent, child domain.WbsType) bool {
	for _, t := range allowedChildren[parent] {
		if t == child {
			return true
		}
	}
	return false
}

// DepthOfType returns the tree depth a node of type t lives at, or 0 for an
// unknown type.
func DepthOfType(t domain.WbsType) int {
	return typeDepth[t]
}

// DepthOfCode returns the number of dot-delimited segments in code.
// Empty codes and codes with empty or non-numeric segments have depth 0.
func DepthOfCode(code string) int {
	if code == "" {
		return 0
	}
	segments := strings.Split(code, ".")
	for _, s := range segments {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0
		}
	}
	return len(segments)
}

// NextSequence returns the next free sibling sequence given the codes of the
// existing siblings: one past the highest last segment.
func NextSequence(siblingCodes []string) int {
	max := 0
	for _, code := range siblingCodes {
		last := code
		if i := strings.LastIndex(code, "."); i >= 0 {
			last = code[i+1:]
		}
		if n, err := strconv.Atoi(last); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// ValidateNode checks a node against its parent before it is created.
// parent is nil for a root node.
func ValidateNode(parent *domain.WbsNode, node *domain.WbsNode) error {
	if !domain.ValidWbsTypes[string(node.Type)] {
		return fmt.Errorf("%w: unknown node type %q", domain.ErrInvalidHierarchy, node.Type)
	}
	if parent == nil {
		if node.Type != domain.WbsPhase {
			return fmt.Errorf("%w: root node must be %s, got %s", domain.ErrInvalidHierarchy, domain.WbsPhase, node.Type)
		}
	} else {
		if parent.ProjectID != node.ProjectID {
			return fmt.Errorf("%w: parent %s belongs to another project", domain.ErrInvalidHierarchy, parent.Code)
		}
		if !parent.Active {
			return fmt.Errorf("%w: parent %s is inactive", domain.ErrInvalidHierarchy, parent.Code)
		}
		if !ValidateChildType(parent.Type, node.Type) {
			return fmt.Errorf("%w: %s does not admit %s children", domain.ErrInvalidHierarchy, parent.Type, node.Type)
		}
		if !strings.HasPrefix(node.Code, parent.Code+".") {
			return fmt.Errorf("%w: code %q is not under parent code %q", domain.ErrInvalidHierarchy, node.Code, parent.Code)
		}
	}
	if got, want := DepthOfCode(node.Code), DepthOfType(node.Type); got != want {
		return fmt.Errorf("%w: code %q has depth %d, %s requires %d", domain.ErrInvalidHierarchy, node.Code, got, node.Type, want)
	}
	return nil
}
