package httpcache

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.etcd.io/bbolt"
)

type cachedResponse struct {
	FetchedAt  time.Time
	URL        string
	Status     string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *cachedResponse) makeResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:        r.Status,
		StatusCode:    r.StatusCode,
		Header:        r.Header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

type Storage interface {
	Fetch(u *url.URL) (*cachedResponse, error)
	Save(u *url.URL, res *http.Response) (*cachedResponse, error)
}

var bucketName = []byte("responses")

type BBoltStorage struct {
	db *bbolt.DB
}

func NewBBoltStorage(db *bbolt.DB) *BBoltStorage {
	return &BBoltStorage{db: db}
}

func makeKey(u *url.URL) []byte {
	h := sha1.Sum([]byte(u.String()))
	return []byte(u.Host + "/" + hex.EncodeToString(h[:]))
}

func (s *BBoltStorage) Fetch(u *url.URL) (*cachedResponse, error) {
	var d []byte

	if err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}

		if v := b.Get(makeKey(u)); v != nil {
			d = append(d, v...)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	if d == nil {
		return nil, nil
	}

	var r cachedResponse
	if err := gob.NewDecoder(bytes.NewReader(d)).Decode(&r); err != nil {
		return nil, err
	}

	return &r, nil
}

func (s *BBoltStorage) Save(u *url.URL, res *http.Response) (*cachedResponse, error) {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	r := cachedResponse{
		FetchedAt:  time.Now(),
		URL:        u.String(),
		Status:     res.Status,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}

	buf := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}

		return b.Put(makeKey(u), buf.Bytes())
	}); err != nil {
		return nil, err
	}

	return &r, nil
}

// Transport is a caching http.RoundTripper for outbound provider calls:
// liveness checks and oEmbed lookups. Successful GET responses are kept in a
// bbolt bucket so repeated submissions of the same link do not hammer the
// provider.
type Transport struct {
	transport http.RoundTripper
	storage   Storage
	maxAge    time.Duration
}

func NewTransport(transport http.RoundTripper, storage Storage, maxAge time.Duration) *Transport {
	if transport == nil {
		transport = http.DefaultTransport
	}

	if maxAge == 0 {
		maxAge = time.Hour
	}

	return &Transport{
		transport: transport,
		storage:   storage,
		maxAge:    maxAge,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.transport.RoundTrip(req)
	}

	if cr, err := t.storage.Fetch(req.URL); err == nil && cr != nil && time.Since(cr.FetchedAt) < t.maxAge {
		return cr.makeResponse(req), nil
	}

	res, err := t.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Only successful responses are worth keeping; failures should be
	// re-checked on the next submission.
	if res.StatusCode != http.StatusOK {
		return res, nil
	}

	cr, err := t.storage.Save(req.URL, res)
	if err != nil {
		return nil, err
	}

	return cr.makeResponse(req), nil
}
