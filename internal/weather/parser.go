package weather

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"weatherplugin/internal/types"
)

// ErrPageStructure means the page lacks the city heading, which is the one
// element a forecast page must have. An empty heading still parses, with an
// empty CityName. Every other element is optional.
var ErrPageStructure = errors.New("forecast page structure not recognised")

// Page selectors.
const (
	selCity        = "h1.c-submenu__location"
	selSummary     = ".c-city-weather-current .current-abstract"
	selMetricItems = ".c-city-weather-current .current-basic .current-basic___item"
	selForecastRow = ".city-forecast-tabs__row"
	selRowDate     = ".date-bg .date"
	selRowIcon     = ".date-bg .icon"
	selRowTemps    = ".tmp-cont .temp"
)

// Parser extracts a WeatherReport from a forecast page.
type Parser struct {
	catalog *Catalog
}

// NewParser creates a Parser labelling conditions with catalog. A nil
// catalog selects DefaultCatalog.
func NewParser(catalog *Catalog) *Parser {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Parser{catalog: catalog}
}

// Parse reads the city, the current conditions, and up to
// types.MaxForecastDays forecast rows in document order.
func (p *Parser) Parse(doc *goquery.Document) (*types.WeatherReport, error) {
	city := doc.Find(selCity).First()
	if city.Length() == 0 {
		return nil, ErrPageStructure
	}

	report := &types.WeatherReport{
		CityName: strippedText(city, ""),
		Current:  types.CurrentConditions{Summary: UnknownLabel},
	}

	if summary := doc.Find(selSummary).First(); summary.Length() > 0 {
		report.Current.Summary = strippedText(summary, "")
	}

	doc.Find(selMetricItems).Each(func(_ int, item *goquery.Selection) {
		if label, value, ok := SplitMetric(strippedText(item, " ")); ok {
			report.Current.Metrics.Set(label, value)
		}
	})

	doc.Find(selForecastRow).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= types.MaxForecastDays {
			return false
		}
		report.Forecast = append(report.Forecast, p.parseRow(row))
		return true
	})

	return report, nil
}

func (p *Parser) parseRow(row *goquery.Selection) types.DailyForecast {
	day := types.DailyForecast{
		Date:      strippedText(row.Find(selRowDate).First(), ""),
		Condition: UnknownLabel,
	}

	if src, ok := row.Find(selRowIcon).First().Attr("src"); ok {
		day.Condition = p.catalog.Label(IconCode(src))
	}

	var temps []string
	row.Find(selRowTemps).Each(func(_ int, s *goquery.Selection) {
		temps = append(temps, strippedText(s, ""))
	})
	if len(temps) >= 2 {
		high, low := temps[0], temps[len(temps)-1]
		day.High, day.Low = &high, &low
	}
	return day
}

// SplitMetric splits a current-conditions item such as "45% 湿度" into label
// and value. The item must have exactly two space-separated tokens, value
// first.
func SplitMetric(text string) (label, value string, ok bool) {
	parts := strings.Split(text, " ")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[1], parts[0], true
}

// IconCode extracts the weather code from an icon URL: the last path segment
// with everything from its last '.' removed. "/img/101.png" yields "101".
func IconCode(src string) string {
	name := src[strings.LastIndex(src, "/")+1:]
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[:dot]
	}
	return name
}

// strippedText collects the text nodes under sel, trims each, drops empty
// ones, and joins the rest with sep.
func strippedText(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
