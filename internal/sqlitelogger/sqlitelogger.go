package sqlitelogger

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"time"
	"unicode"

	proxy "github.com/shogo82148/go-sql-proxy"
	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/covertape/internal/ctxclock"
	"fknsrs.biz/p/covertape/internal/ctxlogger"
	"fknsrs.biz/p/covertape/internal/stackutil"
)

// Options controls which statements get logged and how much of the call
// stack is attached to each entry.
type Options struct {
	// SlowerThan suppresses statements that complete faster than this;
	// zero logs everything.
	SlowerThan time.Duration
	// HidePackages removes stack frames whose function lives in any of
	// these packages.
	HidePackages []string
}

type stats struct {
	start time.Time
	query string
	args  []driver.NamedValue
	stack []runtime.Frame
}

func (o *Options) collect(ctx context.Context, stmt *proxy.Stmt, args []driver.NamedValue) (interface{}, error) {
	now, err := ctxclock.Now(ctx)
	if err != nil {
		return nil, err
	}

	s := &stats{start: now, stack: stackutil.GetStack(100, 1)}

	if stmt != nil {
		s.query = stmt.QueryString
		s.args = args
	}

	return s, nil
}

var whitespace = regexp.MustCompile(`\s+`)

func (o *Options) log(ctx context.Context, qctx interface{}, upperError error, message string) error {
	if upperError != nil {
		return upperError
	}

	s, ok := qctx.(*stats)
	if !ok || s == nil {
		return nil
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return err
	}

	duration := now.Sub(s.start)
	if o.SlowerThan != 0 && duration < o.SlowerThan {
		return nil
	}

	fields := logrus.Fields{
		"sql.start":    s.start.Format(time.RFC3339),
		"sql.duration": duration,
	}

	if s.query != "" {
		fields["sql.content"] = strings.TrimSpace(whitespace.ReplaceAllString(s.query, " "))
	}

	for i, arg := range s.args {
		fields[fmt.Sprintf("sql.args.%02d", i)] = formatArg(arg.Value)
	}

	index := 0
loop:
	for _, frame := range s.stack {
		for _, packageName := range o.HidePackages {
			if strings.HasPrefix(frame.Function, packageName+".") {
				continue loop
			}
		}

		fields[fmt.Sprintf("sql.stack.%02d", index)] = stackutil.FormatStackFrame(frame)
		index++
	}

	ctxlogger.GetLogger(ctx).WithFields(fields).Info(message)

	return nil
}

// New wraps a driver so every statement, and each transaction boundary, is
// timed and reported through the request logger.
func New(wrapped driver.Driver, options *Options) driver.Driver {
	if options == nil {
		options = &Options{}
	}

	return proxy.NewProxyContext(wrapped, &proxy.HooksContext{
		PreExec: func(ctx context.Context, stmt *proxy.Stmt, args []driver.NamedValue) (interface{}, error) {
			return options.collect(ctx, stmt, args)
		},
		PostExec: func(ctx context.Context, qctx interface{}, stmt *proxy.Stmt, args []driver.NamedValue, _ driver.Result, err error) error {
			return options.log(ctx, qctx, err, "sql exec")
		},
		PreQuery: func(ctx context.Context, stmt *proxy.Stmt, args []driver.NamedValue) (interface{}, error) {
			return options.collect(ctx, stmt, args)
		},
		PostQuery: func(ctx context.Context, qctx interface{}, stmt *proxy.Stmt, args []driver.NamedValue, _ driver.Rows, err error) error {
			return options.log(ctx, qctx, err, "sql query")
		},
		PreBegin: func(ctx context.Context, conn *proxy.Conn) (interface{}, error) {
			return options.collect(ctx, nil, nil)
		},
		PostBegin: func(ctx context.Context, qctx interface{}, conn *proxy.Conn, err error) error {
			return options.log(ctx, qctx, err, "sql tx begin")
		},
		PreCommit: func(ctx context.Context, tx *proxy.Tx) (interface{}, error) {
			return options.collect(ctx, nil, nil)
		},
		PostCommit: func(ctx context.Context, qctx interface{}, tx *proxy.Tx, err error) error {
			return options.log(ctx, qctx, err, "sql tx commit")
		},
		PreRollback: func(ctx context.Context, tx *proxy.Tx) (interface{}, error) {
			return options.collect(ctx, nil, nil)
		},
		PostRollback: func(ctx context.Context, qctx interface{}, tx *proxy.Tx, err error) error {
			return options.log(ctx, qctx, err, "sql tx rollback")
		},
	})
}

func formatArg(value driver.Value) string {
	switch e := value.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return e.Format(time.RFC3339Nano)
	case []byte:
		s := string(e)
		if r, ok := printable(s); !ok {
			return fmt.Sprintf("[%d bytes of binary data (%q)]", len(s), r)
		}
		return s
	case string:
		if r, ok := printable(e); !ok {
			return fmt.Sprintf("[%d bytes of binary data (%q)]", len(e), r)
		}
		return e
	default:
		return fmt.Sprintf("%v", e)
	}
}

func printable(s string) (rune, bool) {
	for _, r := range s {
		if unicode.IsControl(r) {
			return r, false
		}

		if unicode.IsPrint(r) {
			continue
		}

		if r > unicode.MaxASCII {
			return r, false
		}
	}

	return 0, true
}
