package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
	"github.com/induohouse/induoweb/internal/search"
)

type commandKind int

const (
	cmdEdit commandKind = iota
	cmdNext
	cmdPrev
	cmdPage
	cmdRetry
	cmdFlush
	cmdURL
	cmdQuit
)

type command struct {
	kind  commandKind
	field domain.FilterField
	value string
	page  int // zero-based
}

var fieldNames = func() map[string]domain.FilterField {
	m := make(map[string]domain.FilterField, len(domain.FilterFields))
	for _, f := range domain.FilterFields {
		m[strings.ToLower(string(f))] = f
	}
	return m
}()

// parseCommand reads one browse line. "field=value" edits a filter field;
// the value is kept raw so a half-typed number is still an edit.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if name, value, ok := strings.Cut(line, "="); ok {
		field, known := fieldNames[strings.ToLower(strings.TrimSpace(name))]
		if !known {
			return command{}, fmt.Errorf("unknown field %q", name)
		}
		return command{kind: cmdEdit, field: field, value: value}, nil
	}

	word, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(word) {
	case "n", "next":
		return command{kind: cmdNext}, nil
	case "p", "prev":
		return command{kind: cmdPrev}, nil
	case "page":
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n < 1 {
			return command{}, fmt.Errorf("page wants a number from 1, got %q", rest)
		}
		return command{kind: cmdPage, page: n - 1}, nil
	case "r", "retry":
		return command{kind: cmdRetry}, nil
	case "", "flush":
		return command{kind: cmdFlush}, nil
	case "url":
		return command{kind: cmdURL}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", word)
}

// console serializes output from the read loop and debounced searches.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) result(res search.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if res.Err != nil {
		fmt.Fprintf(c.w, "%s (%s: retry)\n", res.Message, listings.MsgRetry)
		return
	}
	if err := printPage(c.w, res.Page); err != nil {
		fmt.Fprintf(c.w, "print failed: %v\n", err)
	}
}

func (a *app) browse(ctx context.Context, args []string) error {
	seed, err := parseFilter(flag.NewFlagSet("browse", flag.ContinueOnError), args, a.cfg.PageSize)
	if err != nil {
		return err
	}
	out := &console{w: a.out}
	return runBrowse(ctx, a.listings(), seed, a.in, out, a.logger.Debug)
}

func runBrowse(ctx context.Context, searcher search.Searcher, seed domain.Filter, in io.Reader, out *console, debug func(string, ...any)) error {
	s := search.NewSession(ctx, searcher, seed,
		search.OnResult(out.result),
		search.OnURL(func(u string) { debug("url replaced", "url", u) }),
		search.OnScroll(func(page int) { out.printf("--- strona %d ---\n", page+1) }),
		search.OnStale(func() { debug("discarded stale result") }),
		search.OnInvalid(func(field domain.FilterField, err error) {
			out.printf("%s: %v\n", field, err)
		}),
	)
	defer s.Stop()

	s.Fetch(ctx)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cmd, err := parseCommand(sc.Text())
		if err != nil {
			out.printf("%v\n", err)
			continue
		}
		switch cmd.kind {
		case cmdEdit:
			s.Input(ctx, cmd.field, cmd.value)
		case cmdNext:
			err = s.Next(ctx)
		case cmdPrev:
			err = s.Prev(ctx)
		case cmdPage:
			err = s.GoTo(ctx, cmd.page)
		case cmdRetry:
			s.Retry(ctx)
		case cmdFlush:
			s.Flush()
		case cmdURL:
			out.printf("%s\n", s.URL())
		case cmdQuit:
			return nil
		}
		if err != nil {
			out.printf("%v\n", err)
		}
	}
	// Edits typed just before EOF still count.
	s.Flush()
	return sc.Err()
}
