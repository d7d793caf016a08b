package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableSpec describes one rounded table. Rows shorter than the header are
// padded; an empty footer is omitted.
type tableSpec struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	footer  []string
	// maxWidth caps text columns so long CD-TEXT does not wrap the terminal.
	maxWidth int
}

func (s tableSpec) row(values []string) table.Row {
	r := make(table.Row, len(s.headers))
	for i := range r {
		if i < len(values) {
			r[i] = values[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

func (s tableSpec) render() string {
	if len(s.headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(s.row(s.headers))
	for _, values := range s.rows {
		tw.AppendRow(s.row(values))
	}
	if len(s.footer) > 0 {
		tw.AppendFooter(s.row(s.footer))
	}

	configs := make([]table.ColumnConfig, 0, len(s.headers))
	for i := range s.headers {
		cc := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			AlignFooter: text.AlignLeft,
		}
		if i < len(s.aligns) && s.aligns[i] == alignRight {
			cc.Align = text.AlignRight
			cc.AlignFooter = text.AlignRight
		} else if s.maxWidth > 0 {
			cc.WidthMax = s.maxWidth
		}
		configs = append(configs, cc)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return tableSpec{headers: headers, rows: rows, aligns: aligns}.render()
}
