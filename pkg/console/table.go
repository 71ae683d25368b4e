package console

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Field is one labelled value in a summary table.
type Field struct {
	Name  string
	Value string
}

// Summary renders fields as a borderless two-column table.
func (p *Printer) Summary(fields []Field) {
	writeTable(p.out, []string{"field", "value"}, fieldRows(fields))
}

func fieldRows(fields []Field) [][]string {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		rows = append(rows, []string{f.Name, f.Value})
	}
	return rows
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(header)
	_ = table.Bulk(rows)
	_ = table.Render()
}
