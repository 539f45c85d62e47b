// Copyright (c) 2025 The gptsql Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"gptsql/cli/internal/sqlexec"
)

// renderTable lays out a row set as aligned plain text: header, separator,
// then one line per row. It also returns the byte offset just past each line
// so callers can cut at a line boundary; offsets[1] ends the header block and
// offsets[2+i] ends row i.
func renderTable(res *sqlexec.Result) (string, []int) {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	header := make([]string, len(res.Columns))
	seps := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = cell(c)
		seps[i] = strings.Repeat("-", max(utf8.RuneCountInString(header[i]), 3))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(seps, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	out := b.String()
	offsets := make([]int, 0, len(res.Rows)+2)
	for i, c := range out {
		if c == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return out, offsets
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	s := fmt.Sprint(v)
	// Tabs and newlines would break the column layout.
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}

func rowCount(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
