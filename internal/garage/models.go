package garage

import "strings"

// MaxImages caps the images kept per vehicle; excess input is truncated.
const MaxImages = 5

var VehicleTypes = []string{"car", "bike", "truck", "bicycle", "boat", "plane"}

type Vehicle struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"owner_id"`
	OwnerName      string   `json:"owner_name"`
	Make           string   `json:"make" validate:"required"`
	Model          string   `json:"model" validate:"required"`
	Trim           string   `json:"trim"`
	Year           int      `json:"year" validate:"omitempty,gte=1886"`
	Type           string   `json:"type" validate:"required,oneof=car bike truck bicycle boat plane"`
	Category       string   `json:"category"`
	Power          int      `json:"power,omitempty"`
	Torque         int      `json:"torque,omitempty"`
	Speed          float64  `json:"speed,omitempty"`
	IsModified     bool     `json:"is_modified"`
	ModDescription string   `json:"mod_description,omitempty"`
	Images         []string `json:"images"`
	Description    string   `json:"description"`
	CreatedAt      int64    `json:"created_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

// VehicleUpdate is the partial-update payload. Nil fields leave the stored
// value untouched; a non-nil Images slice replaces the stored set.
type VehicleUpdate struct {
	Make           *string  `json:"make"`
	Model          *string  `json:"model"`
	Trim           *string  `json:"trim"`
	Year           *int     `json:"year"`
	Type           *string  `json:"type" validate:"omitempty,oneof=car bike truck bicycle boat plane"`
	Category       *string  `json:"category"`
	Power          *int     `json:"power"`
	Torque         *int     `json:"torque"`
	Speed          *float64 `json:"speed"`
	IsModified     *bool    `json:"is_modified"`
	ModDescription *string  `json:"mod_description"`
	Images         []string `json:"images"`
	Description    *string  `json:"description"`
}

// DisplayName is the denormalized "make model trim" label embedded in
// meetup participant records.
func (v Vehicle) DisplayName() string {
	return strings.TrimSpace(v.Make + " " + v.Model + " " + v.Trim)
}
