package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are idempotent so Up can run unconditionally at startup and in
// tests. The uniqueness constraints on videos.url, tags.name, and
// tag_maps(video_id, tag_name) are load-bearing: they turn the
// check-then-act sequences in the store into per-key atomic create-or-get
// operations.
var statements = []string{
	`create table if not exists videos (
		id integer primary key autoincrement,
		created_at timestamp not null,
		url text not null,
		author text not null default '',
		title text not null default '',
		rank integer not null default 0,
		tags text not null default '[]'
	)`,
	`create unique index if not exists videos_url on videos (url)`,
	`create index if not exists videos_rank on videos (rank desc)`,
	`create table if not exists tags (
		id integer primary key autoincrement,
		created_at timestamp not null,
		name text not null,
		rank integer not null default 0,
		vids text not null default '[]'
	)`,
	`create unique index if not exists tags_name on tags (name)`,
	`create table if not exists tag_maps (
		id integer primary key autoincrement,
		created_at timestamp not null,
		video_id integer not null references videos (id),
		tag_id integer references tags (id),
		tag_name text not null
	)`,
	`create unique index if not exists tag_maps_video_tag on tag_maps (video_id, tag_name)`,
}

func Up(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate.Up: could not apply statement: %w", err)
		}
	}

	return nil
}
