package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/moviehunt/querycache/catalog"
)

// runQuery executes query --repeat times against the cached catalog, then
// prints the last result with render (or as JSON). The database is closed
// on return, whether or not the query failed.
func runQuery[T any](cmd *cobra.Command, ctx *commandContext, query func(context.Context, *catalog.Service) (T, error), render func(T) string) (err error) {
	defer func() {
		if closeErr := ctx.close(); err == nil {
			err = closeErr
		}
	}()

	svc, err := ctx.ensureService(cmd.Context())
	if err != nil {
		return err
	}

	repeat := ctx.opts.repeat
	if repeat < 1 {
		repeat = 1
	}

	var result T
	for i := 0; i < repeat; i++ {
		before := svc.Memoizer().Stats()
		start := time.Now()

		result, err = query(cmd.Context(), svc)
		if err != nil {
			return err
		}

		servedBy := "cache"
		if svc.Memoizer().Stats().Misses > before.Misses {
			servedBy = "database"
		}
		ctx.logger.WithFields(logrus.Fields{
			"run":       i + 1,
			"elapsed":   time.Since(start),
			"served_by": servedBy,
		}).Debug("query finished")
	}

	out := cmd.OutOrStdout()
	if ctx.opts.json {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, render(result))
	}

	if ctx.opts.stats {
		fmt.Fprintln(out, renderStats(svc.Memoizer().Stats()))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
