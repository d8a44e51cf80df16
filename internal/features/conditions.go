package features

import (
	"strconv"
	"strings"
)

// conditionNames maps the numeric class labels of the weather-condition model
// to display names.
var conditionNames = map[int]string{
	0:  "Cloudy",
	1:  "Rainy",
	2:  "Snowy",
	3:  "Thunderstorm",
	4:  "Foggy",
	5:  "Drizzle",
	6:  "Overcast",
	7:  "Windy",
	8:  "Partly Cloudy",
	9:  "Sunny",
	10: "Hot",
	11: "Cold",
	12: "Humid",
	13: "Dry",
	14: "Stormy",
	15: "Dusty",
	16: "Freezing",
	17: "Mild",
	18: "Windstorm",
	19: "Blizzard",
	20: "Heavy Rain",
	21: "Light Rain",
	22: "Hurricane",
}

// ConditionName returns the display name for a class label such as "9" or
// "9.0". The second return value is false when the label is not a known
// condition code.
func ConditionName(label string) (string, bool) {
	label = strings.TrimSpace(label)
	code, err := strconv.Atoi(label)
	if err != nil {
		f, ferr := strconv.ParseFloat(label, 64)
		if ferr != nil || f != float64(int(f)) {
			return "", false
		}
		code = int(f)
	}
	name, ok := conditionNames[code]
	return name, ok
}
