package weather

// Category is the normalized high-level weather condition derived from a
// provider condition code.
type Category string

const (
	CategoryThunderstorm Category = "thunderstorm"
	CategoryDrizzle      Category = "drizzle"
	CategoryRain         Category = "rain"
	CategorySnow         Category = "snow"
	CategoryAtmosphere   Category = "atmosphere" // mist, fog, haze
	CategoryClear        Category = "clear"
	CategoryClouds       Category = "clouds"
	CategoryUnknown      Category = "unknown"
)

// Categorize maps an OpenWeatherMap condition id onto a Category.
// The ranges are fixed; the 400s and anything outside 200-899 are Unknown.
func Categorize(code int) Category {
	switch {
	case code >= 200 && code < 300:
		return CategoryThunderstorm
	case code >= 300 && code < 400:
		return CategoryDrizzle
	case code >= 500 && code < 600:
		return CategoryRain
	case code >= 600 && code < 700:
		return CategorySnow
	case code >= 700 && code < 800:
		return CategoryAtmosphere
	case code == 800:
		return CategoryClear
	case code > 800 && code < 900:
		return CategoryClouds
	default:
		return CategoryUnknown
	}
}

// Emoji returns the marker glyph shown for the category.
func (c Category) Emoji() string {
	switch c {
	case CategoryThunderstorm:
		return "⛈️"
	case CategoryDrizzle:
		return "🌧️"
	case CategoryRain:
		return "☔"
	case CategorySnow:
		return "❄️"
	case CategoryAtmosphere:
		return "🌫️"
	case CategoryClear:
		return "☀️"
	case CategoryClouds:
		return "☁️"
	default:
		return "❓"
	}
}

// Observation is a point-in-time reading for one coordinate. It is never
// cached across searches.
type Observation struct {
	TemperatureC int      `json:"temperatureC"`
	Code         int      `json:"code"`
	Category     Category `json:"category"`
	Description  string   `json:"description"`
	Emoji        string   `json:"emoji"`
}

// NewObservation builds an Observation from raw provider values. The
// temperature is truncated toward zero.
func NewObservation(tempC float64, code int, description string) Observation {
	cat := Categorize(code)
	return Observation{
		TemperatureC: int(tempC),
		Code:         code,
		Category:     cat,
		Description:  description,
		Emoji:        cat.Emoji(),
	}
}
