package postgres

import (
	"fmt"
	"strings"

	"github.com/phrazzld/readlist-api/internal/store"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildWhere renders filter as a WHERE clause over reading_items aliased as
// i, with positional arguments starting at $1. A zero filter yields "".
func buildWhere(filter store.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conds = append(conds, "i.status = "+next(filter.Status.String()))
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		conds = append(conds,
			"EXISTS (SELECT 1 FROM reading_item_tags t WHERE t.item_id = i.id AND t.tag = "+next(tag)+")")
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		p := next("%" + likeEscaper.Replace(q) + "%")
		conds = append(conds, fmt.Sprintf(
			"(i.title ILIKE %[1]s OR i.author ILIKE %[1]s OR i.notes ILIKE %[1]s"+
				" OR EXISTS (SELECT 1 FROM reading_item_tags t WHERE t.item_id = i.id AND t.tag ILIKE %[1]s))", p))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
