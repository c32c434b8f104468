package weather

import (
	"strings"

	"weatherplugin/internal/types"
)

// ComposeReport renders report as the text handed to the agent. Metrics whose
// value is "0" are left out, but the details header is written whenever the
// report holds any metric at all.
func ComposeReport(report types.WeatherReport) string {
	var b strings.Builder

	b.WriteString("您查询的位置是：")
	b.WriteString(report.CityName)
	b.WriteString("\n\n当前天气: ")
	b.WriteString(report.Current.Summary)
	b.WriteString("\n")

	if report.Current.Metrics.Len() > 0 {
		b.WriteString("详细参数：\n")
		for _, m := range report.Current.Metrics.All() {
			if m.Value == "0" {
				continue
			}
			b.WriteString("  · ")
			b.WriteString(m.Label)
			b.WriteString(": ")
			b.WriteString(m.Value)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n未来7天预报：\n")
	for _, day := range report.Forecast {
		b.WriteString(day.Date)
		b.WriteString(": ")
		b.WriteString(day.Condition)
		b.WriteString("，气温 ")
		b.WriteString(deref(day.Low))
		b.WriteString("~")
		b.WriteString(deref(day.High))
		b.WriteString("\n")
	}

	b.WriteString("\n（如需某一天的具体天气，请告诉我日期）")
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
