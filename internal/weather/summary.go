package weather

import (
	"strings"

	"github.com/i474232898/date-planner/internal/common"
	"github.com/i474232898/date-planner/pkg/local"
)

var (
	summaryCurrent = local.NewTextSet(
		"🌡️ Current: %s°C (feels like %s°C)\n",
		local.NewTrans(local.Jpn, "🌡️ 現在の気温: %s°C (体感 %s°C)\n"),
	)
	summaryConditions = local.NewTextSet(
		"☁️ Conditions: %s\n",
		local.NewTrans(local.Jpn, "☁️ 天気: %s\n"),
	)
	summaryWind = local.NewTextSet(
		"💨 Wind: %s km/h\n",
		local.NewTrans(local.Jpn, "💨 風速: %s km/h\n"),
	)
	summaryHumidity = local.NewTextSet(
		"💧 Humidity: %s%%\n",
		local.NewTrans(local.Jpn, "💧 湿度: %s%%\n"),
	)
	summaryForecast = local.NewTextSet(
		"\n📅 Forecast:\n",
		local.NewTrans(local.Jpn, "\n📅 予報:\n"),
	)
	summaryHighLow = local.NewTextSet(
		"High %s°C / Low %s°C",
		local.NewTrans(local.Jpn, "最高 %s°C / 最低 %s°C"),
	)
	summaryRain = local.NewTextSet(
		" (%s%% chance of rain)",
		local.NewTrans(local.Jpn, " (降水確率 %s%%)"),
	)
)

// Summary renders the snapshot as the plain-text block embedded in prompts.
func Summary(s Snapshot, lang local.Language) string {
	n := common.FormatNumber
	var b strings.Builder

	b.WriteString("📍 " + strings.Join([]string{s.Location.Name, s.Location.Region, s.Location.Country}, ", ") + "\n")
	b.WriteString(summaryCurrent.Format(lang, n(s.Current.TempC), n(s.Current.FeelsLikeC)))
	b.WriteString(summaryConditions.Format(lang, s.Current.Condition))
	b.WriteString(summaryWind.Format(lang, n(s.Current.WindKph)))
	b.WriteString(summaryHumidity.Format(lang, n(s.Current.Humidity)))

	if len(s.Forecast) > 0 {
		b.WriteString(summaryForecast.Text(lang))
		for _, day := range s.Forecast {
			b.WriteString(day.Date + ": " + day.Condition + ", ")
			b.WriteString(summaryHighLow.Format(lang, n(day.MaxTempC), n(day.MinTempC)))
			if day.RainChance > 0 {
				b.WriteString(summaryRain.Format(lang, n(day.RainChance)))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
