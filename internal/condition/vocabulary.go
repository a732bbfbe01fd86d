// Package condition holds the canonical weather-condition vocabulary and maps
// free-text condition phrases onto it.
package condition

import (
	"fmt"
	"slices"
	"strings"
)

// iconURLFormat points at the OpenWeatherMap icon set the vocabulary uses.
const iconURLFormat = "https://openweathermap.org/img/wn/%s.png"

// Condition is one canonical entry: a main group, a description and an icon code.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// String renders the canonical "Main (description)" label.
func (c Condition) String() string {
	return c.Main + " (" + c.Description + ")"
}

// IconURL returns the icon image URL for the condition.
func (c Condition) IconURL() string {
	return fmt.Sprintf(iconURLFormat, c.Icon)
}

var vocabulary = []Condition{
	{"Thunderstorm", "thunderstorm with light rain", "11d"},
	{"Thunderstorm", "thunderstorm with rain", "11d"},
	{"Thunderstorm", "thunderstorm with heavy rain", "11d"},
	{"Thunderstorm", "light thunderstorm", "11d"},
	{"Thunderstorm", "thunderstorm", "11d"},
	{"Thunderstorm", "heavy thunderstorm", "11d"},
	{"Thunderstorm", "ragged thunderstorm", "11d"},
	{"Thunderstorm", "thunderstorm with light drizzle", "11d"},
	{"Thunderstorm", "thunderstorm with drizzle", "11d"},
	{"Thunderstorm", "thunderstorm with heavy drizzle", "11d"},
	{"Drizzle", "light intensity drizzle", "09d"},
	{"Drizzle", "drizzle", "09d"},
	{"Drizzle", "heavy intensity drizzle", "09d"},
	{"Drizzle", "light intensity drizzle rain", "09d"},
	{"Drizzle", "drizzle rain", "09d"},
	{"Drizzle", "heavy intensity drizzle rain", "09d"},
	{"Drizzle", "shower rain and drizzle", "09d"},
	{"Drizzle", "heavy shower rain and drizzle", "09d"},
	{"Drizzle", "shower drizzle", "09d"},
	{"Rain", "light rain", "10d"},
	{"Rain", "moderate rain", "10d"},
	{"Rain", "heavy intensity rain", "10d"},
	{"Rain", "very heavy rain", "10d"},
	{"Rain", "extreme rain", "10d"},
	{"Rain", "freezing rain", "13d"},
	{"Rain", "light intensity shower rain", "09d"},
	{"Rain", "shower rain", "09d"},
	{"Rain", "heavy intensity shower rain", "09d"},
	{"Rain", "ragged shower rain", "09d"},
	{"Snow", "light snow", "13d"},
	{"Snow", "snow", "13d"},
	{"Snow", "heavy snow", "13d"},
	{"Snow", "sleet", "13d"},
	{"Snow", "light shower sleet", "13d"},
	{"Snow", "shower sleet", "13d"},
	{"Snow", "light rain and snow", "13d"},
	{"Snow", "rain and snow", "13d"},
	{"Snow", "light shower snow", "13d"},
	{"Snow", "shower snow", "13d"},
	{"Snow", "heavy shower snow", "13d"},
	{"Mist", "mist", "50d"},
	{"Smoke", "smoke", "50d"},
	{"Haze", "haze", "50d"},
	{"Dust", "sand/dust whirls", "50d"},
	{"Fog", "fog", "50d"},
	{"Sand", "sand", "50d"},
	{"Dust", "dust", "50d"},
	{"Ash", "volcanic ash", "50d"},
	{"Squall", "squalls", "50d"},
	{"Tornado", "tornado", "50d"},
	{"Clear", "clear sky", "01d"},
	{"Clouds", "few clouds: 11-25%", "02d"},
	{"Clouds", "scattered clouds: 25-50%", "03d"},
	{"Clouds", "broken clouds: 51-84%", "04d"},
	{"Clouds", "overcast clouds: 85-100%", "04d"},
}

// All returns a copy of the vocabulary in its canonical order.
func All() []Condition {
	return slices.Clone(vocabulary)
}

// Labels returns every "Main (description)" label, sorted.
func Labels() []string {
	labels := make([]string, 0, len(vocabulary))
	for _, c := range vocabulary {
		labels = append(labels, c.String())
	}
	slices.Sort(labels)
	return labels
}

// MainGroups returns the distinct main groups, sorted.
func MainGroups() []string {
	seen := make(map[string]struct{}, len(vocabulary))
	groups := make([]string, 0, len(vocabulary))
	for _, c := range vocabulary {
		if _, ok := seen[c.Main]; ok {
			continue
		}
		seen[c.Main] = struct{}{}
		groups = append(groups, c.Main)
	}
	slices.Sort(groups)
	return groups
}

// ByDescription looks up an entry by description, ignoring case.
func ByDescription(description string) (Condition, bool) {
	description = strings.TrimSpace(description)
	for _, c := range vocabulary {
		if strings.EqualFold(c.Description, description) {
			return c, true
		}
	}
	return Condition{}, false
}

// ByLabel looks up an entry by its "Main (description)" label, ignoring case.
func ByLabel(label string) (Condition, bool) {
	label = strings.TrimSpace(label)
	for _, c := range vocabulary {
		if strings.EqualFold(c.String(), label) {
			return c, true
		}
	}
	return Condition{}, false
}

// ByMain returns the entries of a main group, ignoring case, in vocabulary order.
func ByMain(main string) []Condition {
	var out []Condition
	for _, c := range vocabulary {
		if strings.EqualFold(c.Main, main) {
			out = append(out, c)
		}
	}
	return out
}
