package view

import (
	"strings"

	"github.com/akriti-kesarwani/crypto-price--tracker/pkg/models"
)

const (
	DefaultLogoBase = "/crypto-icons/"
	chartPoints     = 20

	// sparkline box, matches the svg in templates/table.html
	chartWidth  = 120
	chartHeight = 40
)

type Options struct {
	LogoBase string
	Rand     Rand // sparkline source, nil disables charts
}

// Change is a formatted percentage with its sign class.
type Change struct {
	Text     string `json:"text"`
	Positive bool   `json:"positive"`
}

// Row is one rendered table line.
type Row struct {
	Rank              int       `json:"rank"`
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Symbol            string    `json:"symbol"`
	LogoURL           string    `json:"logo_url"`
	Price             string    `json:"price"`
	Change1h          Change    `json:"change_1h"`
	Change24h         Change    `json:"change_24h"`
	Change7d          Change    `json:"change_7d"`
	MarketCap         string    `json:"market_cap"`
	Volume24h         string    `json:"volume_24h"`
	CirculatingSupply string    `json:"circulating_supply"`
	MaxSupply         string    `json:"max_supply"`
	Chart             Sparkline `json:"chart"`
	ChartPoints       string    `json:"chart_points"`
}

// BuildRows formats assets in the order given.
func BuildRows(assets []models.Asset, opts Options) []Row {
	base := opts.LogoBase
	if base == "" {
		base = DefaultLogoBase
	}

	rows := make([]Row, len(assets))
	for i, a := range assets {
		rows[i] = Row{
			Rank:              i + 1,
			ID:                a.ID,
			Name:              a.Name,
			Symbol:            a.Symbol,
			LogoURL:           logoURL(base, a.Logo),
			Price:             FormatPrice(a.Price),
			Change1h:          change(a.Change1h),
			Change24h:         change(a.Change24h),
			Change7d:          change(a.Change7d),
			MarketCap:         FormatBillions(a.MarketCap),
			Volume24h:         FormatBillions(a.Volume24h),
			CirculatingSupply: FormatMillions(a.CirculatingSupply),
			MaxSupply:         formatMaxSupply(a.MaxSupply),
		}
		if opts.Rand != nil {
			rows[i].Chart = MockChart(opts.Rand, chartPoints)
			rows[i].ChartPoints = rows[i].Chart.Points(chartWidth, chartHeight)
		}
	}
	return rows
}

func change(v float64) Change {
	return Change{Text: FormatPercent(v), Positive: v >= 0}
}

func formatMaxSupply(m models.MaxSupply) string {
	v, ok := m.Value()
	if !ok {
		return "∞"
	}
	return FormatMillions(v)
}

// logoURL leaves absolute references alone.
func logoURL(base, logo string) string {
	if logo == "" || strings.HasPrefix(logo, "/") || strings.Contains(logo, "://") {
		return logo
	}
	return strings.TrimSuffix(base, "/") + "/" + logo
}
