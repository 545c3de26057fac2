package profile

type Socials struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
}

// Statistics are denormalized display counters. They mirror the lengths of
// the id lists below and are updated in the same transaction as their
// source list, never independently.
type Statistics struct {
	VehiclesOwned  int `json:"vehicles_owned"`
	EventsAttended int `json:"events_attended"`
	EventsHosted   int `json:"events_hosted"`
}

type UserProfile struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Description      string     `json:"description"`
	Socials          Socials    `json:"socials"`
	Statistics       Statistics `json:"statistics"`
	VehicleIDs       []string   `json:"vehicle_ids"`
	EventHostedIDs   []string   `json:"event_hosted_ids"`
	EventAttendedIDs []string   `json:"event_attended_ids"`
	CreatedAt        int64      `json:"created_at"`
	LastActive       int64      `json:"last_active"`
}

type ProfileUpdate struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Socials     *Socials `json:"socials"`
}
