package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	SkippedMessage   = "Не час постити — виходимо"
	PublishedMessage = "Опубліковано"
)

// Printer writes human-facing status lines.
type Printer struct {
	out     io.Writer
	skipped *color.Color
	ok      *color.Color
	failed  *color.Color
	detail  *color.Color
}

// New returns a Printer; colors follow fatih/color terminal detection unless plain is set.
func New(out io.Writer, plain bool) *Printer {
	p := &Printer{
		out:     out,
		skipped: color.New(color.FgYellow),
		ok:      color.New(color.FgGreen, color.Bold),
		failed:  color.New(color.FgRed, color.Bold),
		detail:  color.New(color.Faint),
	}
	if plain {
		for _, c := range []*color.Color{p.skipped, p.ok, p.failed, p.detail} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) Skipped() {
	p.skipped.Fprintln(p.out, SkippedMessage)
}

// Published prints the success line, followed by where the post went when known.
func (p *Printer) Published(title, where string) {
	p.ok.Fprintln(p.out, PublishedMessage)
	if title != "" {
		p.detail.Fprintf(p.out, "  %s\n", title)
	}
	if where != "" {
		p.detail.Fprintf(p.out, "  → %s\n", where)
	}
}

func (p *Printer) Failed(err error) {
	p.failed.Fprintln(p.out, fmt.Sprintf("Помилка: %v", err))
}
