package handlers

import (
	"net/http"

	"fknsrs.biz/p/covertape/internal/adminauth"
	"fknsrs.biz/p/covertape/internal/ctxconfig"
	"fknsrs.biz/p/covertape/internal/ctxdb"
	"fknsrs.biz/p/covertape/internal/ctxtemplate"
	"fknsrs.biz/p/covertape/internal/tagutil"
	"fknsrs.biz/p/covertape/internal/videoquery"
	"fknsrs.biz/p/covertape/models"
)

const (
	messageDefault  = "Enter search terms to find cover videos! Here are our most popular:"
	messageFound    = "Here are some songs for you, based on your rad query!"
	messageFallback = "So... we couldn't find anything based on your search, but here are some consolation songs:"
)

// messages maps the short codes carried in the "m" redirect parameter to
// human-readable text.
var messages = map[string]string{
	"add":        "Your cover has been added. Thanks for contributing!",
	"urlfail":    "Something went wrong, and your video was not added. Please include http:// or https:// in your URL. Thanks!",
	"tagfail":    "Something went wrong, and your video was not added. Give it at least one tag. Thanks!",
	"hostfail":   "Something went wrong, and your video was not added. Use Youtube or Vimeo!! Thanks!",
	"activefail": "Something went wrong, and your video was not added. Make sure your video is still active. Thanks!",
	"catchfail":  "Something went wrong, and your video was not added. Catchall! Thanks!",
}

type indexVideo struct {
	models.Video
	TagString string
}

func Index(rw http.ResponseWriter, r *http.Request) {
	cfg := ctxconfig.GetConfig(r.Context())

	if !adminauth.Allowed(r, cfg.AdminEmail) {
		adminauth.RedirectToLogin(rw, r, cfg.LoginURL)
		return
	}

	origSearch := tagutil.Clean(r.URL.Query().Get("orig_search"))
	coverSearch := tagutil.Clean(r.URL.Query().Get("cover_search"))

	query := videoquery.Build(origSearch, coverSearch)

	videos, err := videoquery.Find(r.Context(), ctxdb.GetDB(r.Context()), query)
	if err != nil {
		panic(err)
	}

	var message string
	switch {
	case len(query.Terms) == 0:
		message = messageDefault
	case len(videos) > 0:
		message = messageFound
	default:
		// nothing matched; show the most popular videos instead, but
		// keep the original descriptor so scrolling continues the
		// search the visitor actually asked for
		message = messageFallback

		videos, err = videoquery.Find(r.Context(), ctxdb.GetDB(r.Context()), videoquery.Build(nil, nil))
		if err != nil {
			panic(err)
		}
	}

	if m := r.URL.Query().Get("m"); m != "" {
		if s, ok := messages[m]; ok {
			message = s
		}
	}

	indexVideos := make([]indexVideo, len(videos))
	for i, video := range videos {
		indexVideos[i] = indexVideo{Video: video, TagString: tagutil.Render(video.Tags)}
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, "page_index", map[string]interface{}{
		"Message":     message,
		"Videos":      indexVideos,
		"Query":       query.Encode(),
		"OrigSearch":  r.URL.Query().Get("orig_search"),
		"CoverSearch": r.URL.Query().Get("cover_search"),
		"Nickname":    adminauth.Nickname(r),
	}); err != nil {
		panic(err)
	}
}
