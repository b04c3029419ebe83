package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/induohouse/induoweb/internal/favorites"
	"github.com/induohouse/induoweb/internal/kvstore/kvopen"
)

func (a *app) fav(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("want list, toggle, add, remove, clear or watch")
	}

	kv, closeKV, err := kvopen.Open(a.cfg)
	if err != nil {
		return fmt.Errorf("open favorites store: %w", err)
	}
	defer func() {
		if err := closeKV(); err != nil {
			a.logger.Error("failed to close favorites store", "error", err)
		}
	}()

	// The terminal is a single visitor, stored under the unscoped key.
	store := favorites.New(kv, favorites.StorageKey, favorites.WithLogger(a.logger))
	return runFav(ctx, store, args, a.out)
}

func runFav(ctx context.Context, store *favorites.Store, args []string, out io.Writer) error {
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		return printIDs(out, store.List(ctx))
	case "clear":
		store.ClearAll(ctx)
		_, err := fmt.Fprintln(out, "wyczyszczono ulubione")
		return err
	case "watch":
		ch, err := store.Watch(ctx)
		if err != nil {
			return err
		}
		for ids := range ch {
			if err := printIDs(out, ids); err != nil {
				return err
			}
		}
		return nil
	}

	if len(rest) != 1 {
		return fmt.Errorf("%s wants one listing id", sub)
	}
	id, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid listing id %q", rest[0])
	}

	switch sub {
	case "toggle":
		state := "usunięto"
		if store.Toggle(ctx, id) {
			state = "dodano"
		}
		_, err = fmt.Fprintf(out, "%d: %s\n", id, state)
	case "add":
		store.Add(ctx, id)
	case "remove":
		store.Remove(ctx, id)
	default:
		return fmt.Errorf("unknown fav command %q", sub)
	}
	return err
}

func printIDs(out io.Writer, ids []int64) error {
	if len(ids) == 0 {
		_, err := fmt.Fprintln(out, "brak ulubionych")
		return err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(out, id); err != nil {
			return err
		}
	}
	return nil
}
