package formatter

import (
	"fmt"

	"github.com/alexanderramin/obra/internal/domain"
	"github.com/alexanderramin/obra/internal/service"
)

// FormatWbsTree renders a project's WBS as a tree with type and quantity
// badges.
func FormatWbsTree(project *domain.Project, entries []service.TreeEntry) string {
	if len(entries) == 0 {
		return RenderBox(project.DisplayID()+" WBS", Dim("No WBS nodes."))
	}

	items := make([]TreeItem, len(entries))
	for i, e := range entries {
		items[i] = TreeItem{
			Code:     e.Node.Code,
			Title:    e.Node.Name,
			Level:    e.Depth,
			IsLast:   isLastSibling(entries, i),
			Inactive: !e.Node.Active,
			Detail:   nodeDetail(e.Node),
		}
	}
	return RenderBox(project.DisplayID()+" WBS", RenderTree(items))
}

func nodeDetail(n *domain.WbsNode) string {
	if n.Type != domain.WbsTask {
		return string(n.Type)
	}
	if n.Unit == "" {
		return fmt.Sprintf("%s %s", n.Type, Quantity(n.Quantity))
	}
	return fmt.Sprintf("%s %s %s", n.Type, Quantity(n.Quantity), n.Unit)
}

// isLastSibling reports whether no later entry shares entry i's depth before
// the listing climbs above it.
func isLastSibling(entries []service.TreeEntry, i int) bool {
	depth := entries[i].Depth
	for j := i + 1; j < len(entries); j++ {
		switch {
		case entries[j].Depth == depth:
			return false
		case entries[j].Depth < depth:
			return true
		}
	}
	return true
}
