package weather

import (
	"math"
	"sort"
	"time"
)

// Sample is a single intra-day reading, e.g. one 3-hour forecast step.
type Sample struct {
	Time       time.Time
	TempC      float64
	Humidity   float64
	WindKph    float64
	RainChance float64
	SnowChance float64
	Condition  string
	Icon       string
}

// AggregateDay folds samples from one day into a ForecastDay.
// Temperatures and humidity are averaged, extremes kept, chances take the
// maximum, and the condition is selected by majority (first seen wins ties).
func AggregateDay(date string, samples []Sample) ForecastDay {
	day := ForecastDay{Date: date}
	if len(samples) == 0 {
		return day
	}

	var (
		sumTemp     float64
		sumHumidity float64
	)
	day.MaxTempC = math.Inf(-1)
	day.MinTempC = math.Inf(1)

	conditionCounts := make(map[string]int)
	var order []string
	icons := make(map[string]string)

	for _, s := range samples {
		sumTemp += s.TempC
		sumHumidity += s.Humidity
		day.MaxTempC = math.Max(day.MaxTempC, s.TempC)
		day.MinTempC = math.Min(day.MinTempC, s.TempC)
		day.MaxWindKph = math.Max(day.MaxWindKph, s.WindKph)
		day.RainChance = math.Max(day.RainChance, s.RainChance)
		day.SnowChance = math.Max(day.SnowChance, s.SnowChance)

		if _, seen := conditionCounts[s.Condition]; !seen {
			order = append(order, s.Condition)
			icons[s.Condition] = s.Icon
		}
		conditionCounts[s.Condition]++
	}

	n := float64(len(samples))
	day.AvgTempC = round1(sumTemp / n)
	day.AvgHumidity = math.Round(sumHumidity / n)

	bestCount := 0
	for _, cond := range order {
		if conditionCounts[cond] > bestCount {
			bestCount = conditionCounts[cond]
			day.Condition = cond
			day.Icon = icons[cond]
		}
	}

	return day
}

// AggregateByDay buckets samples by calendar day in loc and aggregates each
// bucket, returning days in ascending order.
func AggregateByDay(samples []Sample, loc *time.Location) []ForecastDay {
	if loc == nil {
		loc = time.UTC
	}

	buckets := make(map[string][]Sample)
	for _, s := range samples {
		k := s.Time.In(loc).Format("2006-01-02")
		buckets[k] = append(buckets[k], s)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]ForecastDay, 0, len(keys))
	for _, k := range keys {
		days = append(days, AggregateDay(k, buckets[k]))
	}
	return days
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
