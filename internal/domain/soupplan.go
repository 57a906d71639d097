package domain

import "time"

// Weekdays the bakery serves soup on, in display order.
var SoupDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

type SoupDay struct {
	Day  string `bson:"day" json:"day"`
	Soup string `bson:"soup" json:"soup"`
}

// SoupPlan is the weekly soup menu. A single current plan exists at a time.
type SoupPlan struct {
	Days      []SoupDay `bson:"days" json:"days"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func ValidSoupDay(day string) bool {
	for _, d := range SoupDays {
		if d == day {
			return true
		}
	}
	return false
}
