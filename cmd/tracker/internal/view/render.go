package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/table.html
var templates embed.FS

var page = template.Must(template.New("table.html").Funcs(template.FuncMap{
	"changeClass": func(c Change) string {
		if c.Positive {
			return "up"
		}
		return "down"
	},
}).ParseFS(templates, "templates/table.html"))

// Page is the data behind the HTML table.
type Page struct {
	Title     string
	Rows      []Row
	WSPath    string
	TablePath string
}

func RenderHTML(w io.Writer, p Page) error {
	if err := page.Execute(w, p); err != nil {
		return fmt.Errorf("render table page: %w", err)
	}
	return nil
}

// Markdown renders rows as a pipe table, without the chart column.
func Markdown(title string, rows []Row) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString("| # | Name | Price | 1h % | 24h % | 7d % | Market Cap | Volume (24h) | Circulating Supply | Max Supply |\n")
	b.WriteString("|---:|:---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %d | %s (%s) | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Rank, r.Name, r.Symbol, r.Price,
			r.Change1h.Text, r.Change24h.Text, r.Change7d.Text,
			r.MarketCap, r.Volume24h, r.CirculatingSupply, r.MaxSupply)
	}
	return b.String()
}
