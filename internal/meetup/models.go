package meetup

type Venue struct {
	GoogleMapLink string `json:"google_map_link"`
	Address       string `json:"address"`
	Country       string `json:"country"`
	Pincode       string `json:"pincode"`
}

type ParticipantVehicle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Participant is embedded in the meetup document, one entry per joined
// user. The join flow only ever produces status "confirmed".
type Participant struct {
	UserID   string               `json:"user_id"`
	Username string               `json:"username"`
	Status   string               `json:"status"`
	Vehicles []ParticipantVehicle `json:"vehicles"`
	JoinedAt int64                `json:"joined_at"`
}

type Meetup struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title" validate:"required"`
	Description        string        `json:"description"`
	Date               int64         `json:"date" validate:"required,gt=0"`
	Duration           string        `json:"duration"`
	Venue              Venue         `json:"venue"`
	Organizer          string        `json:"organizer"`
	Rules              string        `json:"rules"`
	Cost               float64       `json:"cost" validate:"gte=0"`
	ParticipationLimit int           `json:"participation_limit" validate:"required,gte=1"`
	IsPrivate          bool          `json:"is_private"`
	Tags               []string      `json:"tags" validate:"max=5"`
	VehicleTypes       []string      `json:"vehicle_types" validate:"dive,oneof=car bike truck bicycle boat plane"`
	Participants       []Participant `json:"participants"`
	CreatedAt          int64         `json:"created_at"`
	UpdatedAt          int64         `json:"updated_at"`
}

// MeetupUpdate is the partial-update payload. Nil fields leave the stored
// value untouched; non-nil slices replace the stored slice wholesale.
type MeetupUpdate struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	Date               *int64   `json:"date"`
	Duration           *string  `json:"duration"`
	Venue              *Venue   `json:"venue"`
	Rules              *string  `json:"rules"`
	Cost               *float64 `json:"cost"`
	ParticipationLimit *int     `json:"participation_limit"`
	IsPrivate          *bool    `json:"is_private"`
	Tags               []string `json:"tags"`
	VehicleTypes       []string `json:"vehicle_types"`
}

// IsFull reports whether the participant list has reached the limit.
func (m Meetup) IsFull() bool {
	return m.ParticipationLimit > 0 && len(m.Participants) >= m.ParticipationLimit
}

func (m Meetup) hasParticipant(userID string) bool {
	for _, p := range m.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// RideOption is the projection of a caller's vehicle offered during the
// join flow.
type RideOption struct {
	ID     string   `json:"id"`
	Make   string   `json:"make"`
	Model  string   `json:"model"`
	Trim   string   `json:"trim"`
	Type   string   `json:"type"`
	Year   int      `json:"year"`
	Images []string `json:"images"`
}
