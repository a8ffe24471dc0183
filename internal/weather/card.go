package weather

// ExtractCard builds the card for dayIndex. Day 0, and any index the forecast
// does not cover, use current conditions.
func ExtractCard(s Snapshot, dayIndex int) Card {
	if dayIndex > 0 && dayIndex < len(s.Forecast) {
		day := s.Forecast[dayIndex]
		precip := day.RainChance
		if precip == 0 {
			precip = day.SnowChance
		}
		return Card{
			Location:      s.Location.Label(),
			DayIndex:      dayIndex,
			Date:          day.Date,
			Temperature:   day.AvgTempC,
			FeelsLike:     day.AvgTempC,
			Condition:     day.Condition,
			Category:      Classify(day.Condition),
			Icon:          day.Icon,
			Humidity:      day.AvgHumidity,
			WindKph:       day.MaxWindKph,
			Precipitation: precip,
		}
	}

	card := Card{
		Location:    s.Location.Label(),
		Temperature: s.Current.TempC,
		FeelsLike:   s.Current.FeelsLikeC,
		Condition:   s.Current.Condition,
		Category:    Classify(s.Current.Condition),
		Icon:        s.Current.Icon,
		Humidity:    s.Current.Humidity,
		WindKph:     s.Current.WindKph,
	}
	if len(s.Forecast) > 0 {
		card.Date = s.Forecast[0].Date
	}
	return card
}
