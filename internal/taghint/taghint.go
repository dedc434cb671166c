package taghint

import (
	"context"
	"fmt"
	"strings"

	"fknsrs.biz/p/sorm"
	"fknsrs.biz/p/sorm/qsorm"
	sb "fknsrs.biz/p/sqlbuilder"

	"fknsrs.biz/p/covertape/internal/tagutil"
	"fknsrs.biz/p/covertape/models"
)

const MaxSuggestions = 4

// Prefix extracts the active completion prefix from partial free-text input:
// whatever the user is currently typing after the last comma, normalised.
// Returns the empty string when there is nothing to complete.
func Prefix(partial string) string {
	segments := strings.Split(partial, ",")

	cleaned := tagutil.Clean(segments[len(segments)-1])
	if len(cleaned) == 0 {
		return ""
	}

	return cleaned[0]
}

// Suggest returns up to MaxSuggestions tag names starting with the active
// prefix of partial, ordered by name then rank. Empty input yields an empty
// list, never an error. Names are returned exactly as stored.
func Suggest(ctx context.Context, db sorm.Querier, partial string) ([]string, error) {
	prefix := Prefix(partial)
	if prefix == "" {
		return nil, nil
	}

	// Half-open prefix range scan: [prefix, prefix+U+FFFD).
	condition := sb.BooleanOperator(
		"and",
		sb.BinaryOperator(">=", models.TagTable.C("Name"), sb.Bind(prefix)),
		sb.BinaryOperator("<", models.TagTable.C("Name"), sb.Bind(prefix+"�")),
	)

	orders := []sb.AsOrderingTerm{
		sb.OrderAsc(models.TagTable.C("Name")),
		sb.OrderDesc(models.TagTable.C("Rank")),
	}

	var tags []models.Tag
	if err := qsorm.FindWhere(ctx, db, &tags, condition, orders, sb.OffsetLimit(nil, sb.Bind(MaxSuggestions))); err != nil {
		return nil, fmt.Errorf("taghint.Suggest: %w", err)
	}

	var names []string

	seen := make(map[string]bool)

	for _, tag := range tags {
		if seen[tag.Name] {
			continue
		}

		seen[tag.Name] = true
		names = append(names, tag.Name)
	}

	return names, nil
}
