package ptr

import (
	"time"
)

func String(v string) *string     { return &v }
func Int(v int) *int              { return &v }
func Time(v time.Time) *time.Time { return &v }
