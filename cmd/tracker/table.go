package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/driver"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/store"
	"github.com/akriti-kesarwani/crypto-price--tracker/cmd/tracker/internal/view"
	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

// tableCmd holds the flags for the 'table' subcommand.
type tableCmd struct {
	ticks int
	seed  int64
	style string
	width int
	raw   bool
}

func (*tableCmd) Name() string     { return "table" }
func (*tableCmd) Synopsis() string { return "print the price table after a number of update ticks" }
func (*tableCmd) Usage() string {
	return `tracker table [-ticks N] [-seed S] [-style auto|dark|light|notty] [-width W] [-raw]

  Seeds the five assets, applies N price updates back to back and prints the table.
`
}

func (c *tableCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.ticks, "ticks", 0, "number of update ticks to apply before printing")
	f.Int64Var(&c.seed, "seed", 0, "random seed, 0 picks one from the clock")
	f.StringVar(&c.style, "style", "auto", "glamour style: auto, dark, light or notty")
	f.IntVar(&c.width, "width", 120, "word wrap width")
	f.BoolVar(&c.raw, "raw", false, "print the markdown source instead of rendering it")
}

func (c *tableCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticks < 0 {
		fmt.Fprintln(os.Stderr, "Error: -ticks must not be negative")
		return subcommands.ExitUsageError
	}

	md, err := tableMarkdown(c.ticks, c.seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building table: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.raw {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}

	if err := printMarkdown(os.Stdout, md, c.style, c.width); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering table: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// tableMarkdown runs ticks driver updates on a fresh store without waiting for the timer.
func tableMarkdown(ticks int, seed int64) (string, error) {
	s, err := store.New(models.SeedAssets())
	if err != nil {
		return "", err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := driver.RealRand{Rand: rand.New(rand.NewSource(seed))}

	d := driver.NewDriver(zap.NewNop(), s, rnd, driver.RealClock{})
	for i := 0; i < ticks; i++ {
		d.Tick()
	}

	title := "Crypto Prices"
	if ticks > 0 {
		title = fmt.Sprintf("Crypto Prices after %d updates", ticks)
	}
	return view.Markdown(title, view.BuildRows(s.Assets(), view.Options{})), nil
}

func printMarkdown(w io.Writer, md, style string, width int) error {
	styleOpt := glamour.WithAutoStyle()
	if style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return err
	}

	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
