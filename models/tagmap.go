package models

import (
	"time"

	"fknsrs.biz/p/covertape/internal/sqlbuilderutil"
)

var (
	TagMapTable *sqlbuilderutil.Table
)

func init() {
	TagMapTable = sqlbuilderutil.MustMakeTable(TagMap{})
}

// TagMap is an append-only join record between a video and a tag, written
// once when the tag is first attached. TagID is nullable so a row can still
// be recorded if the tag lookup loses a race. At most one row exists per
// (video, tag name) pair.
type TagMap struct {
	ID        int `sql:",table:tag_maps"`
	CreatedAt time.Time
	VideoID   int
	TagID     *int
	TagName   string
}
