package videostore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fknsrs.biz/p/sorm"
	"github.com/mattn/go-sqlite3"

	"fknsrs.biz/p/covertape/internal/ctxclock"
	"fknsrs.biz/p/covertape/internal/ctxdb"
	"fknsrs.biz/p/covertape/internal/dbsavepoint"
	"fknsrs.biz/p/covertape/internal/ptr"
	"fknsrs.biz/p/covertape/internal/sqltypes"
	"fknsrs.biz/p/covertape/internal/tagutil"
	"fknsrs.biz/p/covertape/models"
)

var (
	ErrNotFound = fmt.Errorf("videostore: video not found")
)

// FindByURL locates a video by its exact canonical URL.
func FindByURL(ctx context.Context, db sorm.Querier, url string) (*models.Video, error) {
	var video models.Video

	if err := sorm.FindFirstWhere(ctx, db, &video, "where url = ?", url); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("videostore.FindByURL: %q: %w", url, ErrNotFound)
		}

		return nil, fmt.Errorf("videostore.FindByURL: %w", err)
	}

	return &video, nil
}

// CreateOrMerge records a submission. If a video with the same canonical URL
// already exists, the tag delta is appended to it instead of creating a
// duplicate; otherwise a new video is created with rank zero. Newly attached
// tags are indexed either way. The whole operation runs under a single
// savepoint-backed transaction, so a concurrent submission of the same URL
// resolves through the uniqueness constraint rather than duplicating rows.
func CreateOrMerge(ctx context.Context, embedURL, author, title string, allTags []string) (*models.Video, error) {
	var video *models.Video

	if err := ctxdb.UsingSavepoint(ctx, "create_or_merge_video", func(ctx context.Context, sp *dbsavepoint.Savepoint) error {
		existing, err := FindByURL(ctx, sp, embedURL)
		if err == nil {
			video = existing
			return mergeTags(ctx, sp, existing, allTags)
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		v := models.Video{
			CreatedAt: now(ctx),
			URL:       embedURL,
			Author:    author,
			Title:     title,
			Rank:      0,
			Tags:      sqltypes.JSONStringSlice(allTags),
		}

		if err := sorm.CreateRecord(ctx, sp.Tx(), &v); err != nil {
			if !isUniqueViolation(err) {
				return err
			}

			// Lost a same-URL race; merge into the winner instead.
			winner, err := FindByURL(ctx, sp, embedURL)
			if err != nil {
				return err
			}

			video = winner
			return mergeTags(ctx, sp, winner, allTags)
		}

		if len(allTags) > 0 {
			if err := indexNewTags(ctx, sp, &v, allTags); err != nil {
				return err
			}
		}

		video = &v
		return nil
	}); err != nil {
		return nil, fmt.Errorf("videostore.CreateOrMerge: %w", err)
	}

	return video, nil
}

// UpdateTags appends the delta between allTags and the video's current tag
// set, indexing any newly attached tags. Returns ErrNotFound when no video
// matches the URL.
func UpdateTags(ctx context.Context, url string, allTags []string) (*models.Video, error) {
	var video *models.Video

	if err := ctxdb.UsingSavepoint(ctx, "update_video_tags", func(ctx context.Context, sp *dbsavepoint.Savepoint) error {
		existing, err := FindByURL(ctx, sp, url)
		if err != nil {
			return err
		}

		video = existing
		return mergeTags(ctx, sp, existing, allTags)
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("videostore.UpdateTags: %w", err)
	}

	return video, nil
}

// IncrementRank adds delta, which may be negative, to the video's rank.
func IncrementRank(ctx context.Context, url string, delta int) (*models.Video, error) {
	var video *models.Video

	if err := ctxdb.UsingSavepoint(ctx, "increment_video_rank", func(ctx context.Context, sp *dbsavepoint.Savepoint) error {
		existing, err := FindByURL(ctx, sp, url)
		if err != nil {
			return err
		}

		existing.Rank += delta

		if err := sorm.SaveRecord(ctx, sp.Tx(), existing); err != nil {
			return err
		}

		video = existing
		return nil
	}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("videostore.IncrementRank: %w", err)
	}

	return video, nil
}

func mergeTags(ctx context.Context, sp *dbsavepoint.Savepoint, video *models.Video, allTags []string) error {
	newTags := tagutil.Difference(allTags, video.Tags)
	if len(newTags) == 0 {
		return nil
	}

	video.Tags = append(video.Tags, newTags...)

	if err := sorm.SaveRecord(ctx, sp.Tx(), video); err != nil {
		return err
	}

	return indexNewTags(ctx, sp, video, newTags)
}

// indexNewTags lazily creates a tag row for each token not seen before and
// records one tag map row per newly attached token. The existing-tag lookup
// is a single snapshot taken before the loop; races against that snapshot
// are absorbed per token with a nested savepoint and a fallback lookup.
func indexNewTags(ctx context.Context, sp *dbsavepoint.Savepoint, video *models.Video, newTags []string) error {
	names := make([]string, len(newTags))
	for i, token := range newTags {
		names[i] = tagutil.TrimCategory(token)
	}

	existing, err := snapshotTags(ctx, sp, names)
	if err != nil {
		return err
	}

	for i, token := range newTags {
		token, name := token, names[i]

		if err := ctxdb.UsingSavepoint(ctx, fmt.Sprintf("index_tag_%d", i), func(ctx context.Context, sp *dbsavepoint.Savepoint) error {
			tag, ok := existing[name]
			if !ok {
				created := models.Tag{CreatedAt: now(ctx), Name: name, Rank: 0}

				if err := sorm.CreateRecord(ctx, sp.Tx(), &created); err != nil {
					if !isUniqueViolation(err) {
						return err
					}

					// Another submission created this tag between the
					// snapshot and now.
					var found models.Tag
					if err := sorm.FindFirstWhere(ctx, sp, &found, "where name = ?", name); err != nil {
						return err
					}

					created = found
				}

				tag = &created
				existing[name] = tag
			}

			tagMap := models.TagMap{
				CreatedAt: now(ctx),
				VideoID:   video.ID,
				TagID:     ptr.Int(tag.ID),
				TagName:   token,
			}

			if err := sorm.CreateRecord(ctx, sp.Tx(), &tagMap); err != nil {
				if isUniqueViolation(err) {
					// Already mapped; the pair is unique by construction.
					return nil
				}

				return err
			}

			return nil
		}); err != nil {
			return fmt.Errorf("videostore.indexNewTags: token %q: %w", token, err)
		}
	}

	return nil
}

func snapshotTags(ctx context.Context, sp *dbsavepoint.Savepoint, names []string) (map[string]*models.Tag, error) {
	m := make(map[string]*models.Tag, len(names))

	if len(names) == 0 {
		return m, nil
	}

	placeholders := make([]string, len(names))
	parameters := make([]interface{}, len(names))

	for i, name := range names {
		placeholders[i] = "?"
		parameters[i] = name
	}

	var tags []models.Tag
	if err := sorm.FindWhere(ctx, sp, &tags, fmt.Sprintf("where name in (%s)", strings.Join(placeholders, ", ")), parameters...); err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("videostore.snapshotTags: %w", err)
	}

	for i := range tags {
		m[tags[i].Name] = &tags[i]
	}

	return m, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}

	return false
}

func now(ctx context.Context) time.Time {
	if t, err := ctxclock.Now(ctx); err == nil {
		return t
	}

	return time.Now()
}
