package videoquery

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"fknsrs.biz/p/sorm"
	"fknsrs.biz/p/sorm/qsorm"
	sb "fknsrs.biz/p/sqlbuilder"

	"fknsrs.biz/p/covertape/internal/tagutil"
	"fknsrs.biz/p/covertape/models"
)

const DefaultPageSize = 6

var (
	// ErrBadDescriptor means a serialised query descriptor failed
	// validation during reconstruction.
	ErrBadDescriptor = fmt.Errorf("videoquery: bad query descriptor")
)

// Query is a structured, serialisable description of a video listing: a set
// of suffixed tag tokens that must all be present, plus pagination. It can be
// handed to a client and reconstructed later without re-parsing free text,
// and is never evaluated as code.
type Query struct {
	Terms  []string
	Offset int
	Limit  int
}

// Build constructs a query from already-cleaned search tags, suffixing the
// original and cover sets with their category markers.
func Build(origTags, coverTags []string) *Query {
	var terms []string

	terms = append(terms, tagutil.Suffix(origTags, tagutil.SuffixOriginal)...)
	terms = append(terms, tagutil.Suffix(coverTags, tagutil.SuffixCover)...)

	return &Query{Terms: terms, Limit: DefaultPageSize}
}

// Encode serialises the filter terms for round-tripping through a request
// parameter. Offset and limit are supplied separately by the caller on
// reconstruction.
func (q *Query) Encode() string {
	v := url.Values{}

	for _, term := range q.Terms {
		v.Add("t", term)
	}

	return v.Encode()
}

// Decode reconstructs a query from its serialised form, validating every
// term: a category suffix is required, and quote characters are rejected
// outright since terms are matched against the JSON-encoded tag column.
func Decode(s string) (*Query, error) {
	v, err := url.ParseQuery(s)
	if err != nil {
		return nil, fmt.Errorf("videoquery.Decode: could not parse descriptor: %w", ErrBadDescriptor)
	}

	q := Query{Limit: DefaultPageSize}

	for _, term := range v["t"] {
		if !validTerm(term) {
			return nil, fmt.Errorf("videoquery.Decode: invalid term %q: %w", term, ErrBadDescriptor)
		}

		q.Terms = append(q.Terms, term)
	}

	return &q, nil
}

func validTerm(term string) bool {
	if !strings.HasSuffix(term, tagutil.SuffixOriginal) && !strings.HasSuffix(term, tagutil.SuffixCover) {
		return false
	}

	if len(term) == 2 {
		return false
	}

	return !strings.ContainsAny(term, "\"\\")
}

// Condition builds the filter expression: every term must be a member of the
// video's tag set. Tags are stored as a JSON array of strings, so membership
// is an instr match on the quoted token; normalised tokens cannot contain
// quotes, which makes the match exact. No terms means no condition.
func (q *Query) Condition() sb.AsExpr {
	if len(q.Terms) == 0 {
		return nil
	}

	var a []sb.AsExpr

	for _, term := range q.Terms {
		a = append(a, sb.Ne(
			sb.Func("instr", models.VideoTable.C("Tags"), sb.Bind(`"`+term+`"`)),
			sb.Literal("0"),
		))
	}

	if len(a) == 1 {
		return a[0]
	}

	return sb.BooleanOperator("and", a...)
}

// Orders is rank descending with creation time as a deterministic tie-break.
func (q *Query) Orders() []sb.AsOrderingTerm {
	return []sb.AsOrderingTerm{
		sb.OrderDesc(models.VideoTable.C("Rank")),
		sb.OrderDesc(models.VideoTable.C("CreatedAt")),
	}
}

func (q *Query) OffsetLimit() *sb.OffsetLimitClause {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if q.Offset > 0 {
		return sb.OffsetLimit(sb.Bind(q.Offset), sb.Bind(limit))
	}

	return sb.OffsetLimit(nil, sb.Bind(limit))
}

// Find runs the query.
func Find(ctx context.Context, db sorm.Querier, q *Query) ([]models.Video, error) {
	var videos []models.Video

	if err := qsorm.FindWhere(ctx, db, &videos, q.Condition(), q.Orders(), q.OffsetLimit()); err != nil {
		return nil, fmt.Errorf("videoquery.Find: %w", err)
	}

	return videos, nil
}
