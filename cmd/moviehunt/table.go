package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/moviehunt/querycache/cache"
	"github.com/moviehunt/querycache/catalog"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderFilms(films []catalog.Film) string {
	if len(films) == 0 {
		return "No films found"
	}

	rows := make([][]string, 0, len(films))
	for i, f := range films {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			f.Title,
			strconv.Itoa(f.ReleaseYear),
			fmt.Sprintf("%.1f", f.VoteAverage),
			strconv.Itoa(f.VoteCount),
			f.Slug,
		})
	}
	return renderTable(
		[]string{"#", "Title", "Year", "Rating", "Votes", "Slug"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderFilm(f catalog.Film) string {
	rows := [][]string{
		{"Title", f.Title},
		{"Original title", f.OriginalTitle},
		{"Director", f.Director},
		{"Released", f.ReleaseDate.Format("2006-01-02")},
		{"Rating", fmt.Sprintf("%.1f (%d votes)", f.VoteAverage, f.VoteCount)},
		{"Slug", f.Slug},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func renderProviders(region string, providers []catalog.StreamingProvider) string {
	if len(providers) == 0 {
		return fmt.Sprintf("No providers in %s", region)
	}

	rows := make([][]string, 0, len(providers))
	for _, p := range providers {
		rows = append(rows, []string{p.Provider, string(p.Kind), p.Region})
	}
	return renderTable([]string{"Provider", "Kind", "Region"}, rows, nil)
}

func renderStats(s cache.Stats) string {
	rows := [][]string{
		{"Hits", strconv.FormatUint(s.Hits, 10)},
		{"Misses", strconv.FormatUint(s.Misses, 10)},
		{"Producer errors", strconv.FormatUint(s.ProducerErrors, 10)},
		{"Invalidations", strconv.FormatUint(s.Invalidations, 10)},
		{"Entries", strconv.Itoa(s.Entries)},
		{"Hit rate", fmt.Sprintf("%.0f%%", s.HitRate()*100)},
	}
	return renderTable([]string{"Cache", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
