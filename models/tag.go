package models

import (
	"time"

	"fknsrs.biz/p/covertape/internal/sqlbuilderutil"
	"fknsrs.biz/p/covertape/internal/sqltypes"
)

var (
	TagTable *sqlbuilderutil.Table
)

func init() {
	TagTable = sqlbuilderutil.MustMakeTable(Tag{})
}

// Tag is created lazily the first time a token is seen and never deleted.
// Name is the canonical lowercase token, without any category suffix. Rank
// orders suggestions but nothing bumps it yet; Vids is a reserved reverse
// index that nothing writes to.
type Tag struct {
	ID        int `sql:",table:tags"`
	CreatedAt time.Time
	Name      string
	Rank      int
	Vids      sqltypes.JSONStringSlice
}
