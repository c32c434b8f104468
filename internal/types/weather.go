package types

// CityRecord is the best geocoding match for a free-text location.
type CityRecord struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Adm1         string `json:"adm1,omitempty"`
	Adm2         string `json:"adm2,omitempty"`
	Country      string `json:"country,omitempty"`
	ForecastLink string `json:"fx_link"`
}

// Metric is a single labelled reading from the current-conditions block,
// e.g. {Label: "湿度", Value: "45%"}.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// OrderedMetrics keeps metrics in first-seen order. Setting an existing label
// replaces its value without moving it.
type OrderedMetrics struct {
	items []Metric
	index map[string]int
}

// Set records value under label.
func (m *OrderedMetrics) Set(label, value string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[label]; ok {
		m.items[i].Value = value
		return
	}
	m.index[label] = len(m.items)
	m.items = append(m.items, Metric{Label: label, Value: value})
}

// Get returns the value stored under label.
func (m *OrderedMetrics) Get(label string) (string, bool) {
	i, ok := m.index[label]
	if !ok {
		return "", false
	}
	return m.items[i].Value, true
}

// Len returns the number of distinct labels.
func (m *OrderedMetrics) Len() int {
	return len(m.items)
}

// All returns a copy of the metrics in insertion order.
func (m *OrderedMetrics) All() []Metric {
	out := make([]Metric, len(m.items))
	copy(out, m.items)
	return out
}

// CurrentConditions is the "right now" block of a forecast page.
type CurrentConditions struct {
	Summary string
	Metrics OrderedMetrics
}

// DailyForecast is one row of the multi-day forecast table. High and Low are
// nil when the row carried fewer than two temperature readings.
type DailyForecast struct {
	Date      string  `json:"date"`
	Condition string  `json:"condition"`
	High      *string `json:"high,omitempty"`
	Low       *string `json:"low,omitempty"`
}

// MaxForecastDays bounds the forecast set extracted from a page.
const MaxForecastDays = 7

// WeatherReport is the structured result of one query.
type WeatherReport struct {
	CityName string
	Current  CurrentConditions
	Forecast []DailyForecast
}
