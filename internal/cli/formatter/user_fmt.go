package formatter

import "github.com/alexanderramin/pdptrack/internal/domain"

func FormatUserList(users []*domain.User) string {
	headers := []string{"ID", "NAME", "EMAIL"}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{Dim(u.ID), Bold(u.Name), u.Email})
	}
	return RenderTable(headers, rows)
}
