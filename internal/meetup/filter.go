package meetup

import "time"

// Filters are conjunctive predicates applied client-side over the full
// upcoming-meetup list; no pagination, no server-side filtering.
type Filters struct {
	VehicleType   string
	Exclusivity   string // "public" or "private"; anything else matches all
	AvailableOnly bool
	WeekendOnly   bool
	EligibleOnly  bool
}

// ApplyFilters keeps the meetups matching every active predicate.
// ownedTypes are the vehicle types in the caller's garage, used by the
// eligibility predicate.
func ApplyFilters(meetups []Meetup, f Filters, ownedTypes []string) []Meetup {
	var out []Meetup
	for _, m := range meetups {
		if !matches(m, f, ownedTypes) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func matches(m Meetup, f Filters, ownedTypes []string) bool {
	if f.VehicleType != "" && f.VehicleType != "all" && !contains(m.VehicleTypes, f.VehicleType) {
		return false
	}
	if f.Exclusivity == "public" && m.IsPrivate {
		return false
	}
	if f.Exclusivity == "private" && !m.IsPrivate {
		return false
	}
	if f.AvailableOnly && len(m.Participants) >= m.ParticipationLimit {
		return false
	}
	if f.WeekendOnly && !onWeekend(m.Date) {
		return false
	}
	if f.EligibleOnly && !Eligible(m, ownedTypes) {
		return false
	}
	return true
}

// Eligible reports whether a caller owning vehicles of the given types can
// bring one: an empty allowed set admits every type, but a caller with no
// vehicles at all is never eligible.
func Eligible(m Meetup, ownedTypes []string) bool {
	if len(ownedTypes) == 0 {
		return false
	}
	if len(m.VehicleTypes) == 0 {
		return true
	}
	for _, owned := range ownedTypes {
		if contains(m.VehicleTypes, owned) {
			return true
		}
	}
	return false
}

// onWeekend checks the start instant's day of week in local time.
func onWeekend(date int64) bool {
	wd := time.Unix(date, 0).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
