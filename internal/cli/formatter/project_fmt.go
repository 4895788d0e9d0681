package formatter

import (
	"github.com/alexanderramin/obra/internal/domain"
)

// FormatProjectList renders the project registry inside a bordered box.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "CLIENT", "STATUS"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		client := p.Client
		if client == "" {
			client = Dim("--")
		}
		rows = append(rows, []string{
			p.DisplayID(),
			Bold(p.Name),
			client,
			ProjectStatusPill(p.Status),
		})
	}
	return RenderBox("Projects", RenderTable(headers, rows))
}
