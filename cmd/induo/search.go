package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/induohouse/induoweb/internal/domain"
	"github.com/induohouse/induoweb/internal/listings"
)

// filterFlags registers one string flag per filter field, named as in URLs.
func filterFlags(fs *flag.FlagSet) map[domain.FilterField]*string {
	vals := make(map[domain.FilterField]*string, len(domain.FilterFields))
	for _, field := range domain.FilterFields {
		vals[field] = fs.String(string(field), "", "filter by "+string(field))
	}
	return vals
}

func parseFilter(fs *flag.FlagSet, args []string, pageSize int) (domain.Filter, error) {
	vals := filterFlags(fs)
	page := fs.Int("page", 0, "zero-based page")
	size := fs.Int("size", pageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return domain.Filter{}, err
	}

	f := domain.Filter{Page: *page, Size: *size}
	for _, field := range domain.FilterFields {
		if err := f.Set(field, *vals[field]); err != nil {
			return domain.Filter{}, err
		}
	}
	return f.Normalized(), nil
}

func (a *app) search(ctx context.Context, args []string) error {
	f, err := parseFilter(flag.NewFlagSet("search", flag.ContinueOnError), args, a.cfg.PageSize)
	if err != nil {
		return err
	}
	page, err := a.listings().Search(ctx, f)
	if err != nil {
		return errors.New(listings.UserMessage(err, listings.MsgLoadFailed))
	}
	return printPage(a.out, page)
}

// printPage writes the listings as an aligned table with a page footer.
func printPage(w io.Writer, page *domain.PageResult) error {
	if page.Empty() {
		_, err := fmt.Fprintln(w, listings.MsgNoResults)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCITY\tTYPE\tPRICE\tAREA\tROOMS")
	for _, l := range page.Content {
		rooms := "-"
		if l.Rooms != nil {
			rooms = strconv.Itoa(*l.Rooms)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s m²\t%s\n",
			l.ID, l.Title, l.City, l.PropertyType.Label(),
			domain.FormatPrice(l.Price), strconv.FormatFloat(l.Area, 'f', -1, 64), rooms)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "strona %d z %d (%d ogłoszeń)\n",
		page.CurrentPage+1, max(page.TotalPages, 1), page.TotalElements)
	return err
}
