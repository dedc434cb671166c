package models

import (
	"time"

	"fknsrs.biz/p/covertape/internal/sqlbuilderutil"
	"fknsrs.biz/p/covertape/internal/sqltypes"
)

var (
	VideoTable *sqlbuilderutil.Table
)

func init() {
	VideoTable = sqlbuilderutil.MustMakeTable(Video{})
}

// Video is a single board entry. URL is the canonical embed URL, which is
// also the natural key used for merge-on-resubmission. Tags holds the full
// category-suffixed token set.
type Video struct {
	ID        int `sql:",table:videos"`
	CreatedAt time.Time
	URL       string
	Author    string
	Title     string
	Rank      int
	Tags      sqltypes.JSONStringSlice
}
