package weather

import "time"

// Observation is the current conditions at a location. Temperatures are
// degrees Celsius, wind speed m/s, pressure hPa.
type Observation struct {
	City        string
	Temperature float64
	FeelsLike   float64
	TempMin     float64
	TempMax     float64
	Humidity    int
	Pressure    float64
	WindSpeed   float64
	Condition   string // e.g. "Clouds"
	Description string // e.g. "scattered clouds"
	Icon        string
}

// ForecastEntry is one 3-hour interval slot of the forecast feed.
type ForecastEntry struct {
	Time        time.Time
	Temperature float64
	Humidity    int
	WindSpeed   float64
	Condition   string
	Description string
	Icon        string
}

// Place is a geocoding result.
type Place struct {
	Name    string
	Lat     float64
	Lon     float64
	Country string
	State   string
}

// Wire formats below; the exported types above are what callers see.

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []weatherCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type weatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type forecastResponse struct {
	List []forecastItem `json:"list"`
}

type forecastItem struct {
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []weatherCondition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type geoResponseItem struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}
