// Package prompt asks for the unknown specimen's mutant genes when they were
// not given on the command line.
package prompt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-runewidth"
	"github.com/spboyer/tissuerank/internal/genes"
	"golang.org/x/term"
)

const listWidth = 72

// AskGenes runs an interactive form listing the available genes and returns
// the normalized list the user entered.
func AskGenes(in io.Reader, out io.Writer, set *genes.Set) ([]string, error) {
	var raw string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Available genes (%d)", set.Len())).
				Description(wrapSymbols(set.Symbols(), listWidth)),
			huh.NewInput().
				Title("Mutant genes").
				Description("Comma-separated gene symbols found in the specimen").
				Placeholder("APC, KRAS, TP53").
				Value(&raw).
				Validate(func(s string) error {
					_, err := Validate(s, set)
					return err
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("gene prompt failed: %w", err)
	}
	return Validate(raw, set)
}

// Validate parses raw and checks every gene against set.
func Validate(raw string, set *genes.Set) ([]string, error) {
	list := genes.ParseList(raw)
	if len(list) == 0 {
		return nil, genes.ErrNoGenes
	}
	for _, g := range list {
		if !set.Contains(g) {
			return nil, &genes.UnknownGeneError{Gene: g}
		}
	}
	return list, nil
}

// wrapSymbols joins symbols with commas, breaking lines before width.
func wrapSymbols(symbols []string, width int) string {
	var b strings.Builder
	line := 0
	for i, s := range symbols {
		item := s
		if i < len(symbols)-1 {
			item += ","
		}
		w := runewidth.StringWidth(item)
		if line > 0 && line+1+w > width {
			b.WriteString("\n")
			line = 0
		} else if line > 0 {
			b.WriteString(" ")
			line++
		}
		b.WriteString(item)
		line += w
	}
	return b.String()
}
