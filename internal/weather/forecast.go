package weather

import "time"

// HourlySlots is how many 3-hour forecast slots the hourly strip shows.
const HourlySlots = 8

// ForecastDays is how many days the daily summary covers.
const ForecastDays = 5

// HourlyWeather is one slot of the hourly strip.
type HourlyWeather struct {
	Time        time.Time
	Label       string // "15:00"
	Temperature float64
	Condition   string
	Description string
}

// DailySummary folds one day of 3-hour slots into a single row.
type DailySummary struct {
	Date        string // "2006-01-02"
	Label       string // "Today", "Mon", "Tue", ...
	Temperature float64
	MinTemp     float64
	MaxTemp     float64
	Condition   string
	Description string
	WindSpeed   float64
	Humidity    int
}

// Hourly returns the first HourlySlots entries formatted for the hourly
// strip.
func Hourly(entries []ForecastEntry) []HourlyWeather {
	n := min(len(entries), HourlySlots)
	out := make([]HourlyWeather, 0, n)
	for _, e := range entries[:n] {
		out = append(out, HourlyWeather{
			Time:        e.Time,
			Label:       e.Time.Format("15:04"),
			Temperature: e.Temperature,
			Condition:   e.Condition,
			Description: e.Description,
		})
	}
	return out
}

// Daily groups 3-hour forecast entries by calendar date and summarises the
// next ForecastDays days starting from today. Each day's representative
// conditions come from the noon slot, falling back to the day's first entry
// (the last forecast day usually has no noon slot yet). Days with no
// entries at all are skipped.
func Daily(entries []ForecastEntry, today time.Time) []DailySummary {
	byDate := make(map[string][]ForecastEntry)
	for _, e := range entries {
		date := e.Time.Format("2006-01-02")
		byDate[date] = append(byDate[date], e)
	}

	out := make([]DailySummary, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		day := today.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		dayEntries := byDate[date]
		if len(dayEntries) == 0 {
			continue
		}

		minTemp := dayEntries[0].Temperature
		maxTemp := dayEntries[0].Temperature
		for _, e := range dayEntries[1:] {
			minTemp = min(minTemp, e.Temperature)
			maxTemp = max(maxTemp, e.Temperature)
		}

		rep := dayEntries[0]
		for _, e := range dayEntries {
			if e.Time.Hour() == 12 {
				rep = e
				break
			}
		}

		label := "Today"
		if i > 0 {
			label = day.Weekday().String()[:3]
		}

		out = append(out, DailySummary{
			Date:        date,
			Label:       label,
			Temperature: rep.Temperature,
			MinTemp:     minTemp,
			MaxTemp:     maxTemp,
			Condition:   rep.Condition,
			Description: rep.Description,
			WindSpeed:   rep.WindSpeed,
			Humidity:    rep.Humidity,
		})
	}
	return out
}
