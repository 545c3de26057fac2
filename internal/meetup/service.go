package meetup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prtkgoswami/gears-connect/internal/cache"
	"github.com/prtkgoswami/gears-connect/internal/db"
)

var (
	ErrMeetupFull         = errors.New("meetup is full")
	ErrAlreadyJoined      = errors.New("user already joined this meetup")
	ErrNoVehiclesSelected = errors.New("at least one vehicle must be selected")
	ErrNotOrganizer       = errors.New("only the organizer can modify this meetup")
	ErrLimitBelowCount    = errors.New("participation limit cannot drop below current participant count")
)

// Broadcaster fans a meetup event out to live watchers of that meetup.
type Broadcaster interface {
	Broadcast(meetupID string, payload []byte)
}

type Service struct {
	db     db.Querier
	cache  *cache.Cache
	stream Broadcaster
}

func NewService(db db.Querier, c *cache.Cache, stream Broadcaster) *Service {
	return &Service{db: db, cache: c, stream: stream}
}

const meetupColumns = `id, title, description, date, duration, venue, organizer, rules, cost,
	       participation_limit, is_private, tags, vehicle_types, participants, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeetup(row rowScanner) (Meetup, error) {
	var m Meetup
	var venueRaw, participantsRaw []byte
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Date, &m.Duration, &venueRaw, &m.Organizer, &m.Rules, &m.Cost,
		&m.ParticipationLimit, &m.IsPrivate, &m.Tags, &m.VehicleTypes, &participantsRaw, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Meetup{}, err
	}
	if len(venueRaw) > 0 {
		if err := json.Unmarshal(venueRaw, &m.Venue); err != nil {
			return Meetup{}, err
		}
	}
	m.Participants = []Participant{}
	if len(participantsRaw) > 0 {
		if err := json.Unmarshal(participantsRaw, &m.Participants); err != nil {
			return Meetup{}, err
		}
	}
	return m, nil
}

// ListMeetups returns every upcoming meetup; filtering happens after full
// retrieval via ApplyFilters.
func (s *Service) ListMeetups(ctx context.Context) ([]Meetup, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+meetupColumns+`
		FROM meetups WHERE date >= $1
		ORDER BY date
	`, time.Now().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetups []Meetup
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}
		meetups = append(meetups, m)
	}
	return meetups, nil
}

func (s *Service) GetMeetup(ctx context.Context, id string) (Meetup, error) {
	var m Meetup
	if s.cache.Get(ctx, cache.MeetupKey(id), &m) {
		return m, nil
	}

	m, err := scanMeetup(s.db.QueryRow(ctx, `
		SELECT `+meetupColumns+`
		FROM meetups WHERE id=$1
	`, id))
	if err != nil {
		return Meetup{}, err
	}

	s.cache.Set(ctx, cache.MeetupKey(id), m)
	return m, nil
}

// CreateMeetup persists the meetup with an empty participant list and
// updates the organizer's hosted list and counter in the same transaction.
func (s *Service) CreateMeetup(ctx context.Context, input Meetup, organizerID string) (Meetup, error) {
	now := time.Now().Unix()
	input.ID = uuid.NewString()
	input.Organizer = organizerID
	input.Participants = []Participant{}
	input.CreatedAt = now
	input.UpdatedAt = now

	venueRaw, err := json.Marshal(input.Venue)
	if err != nil {
		return Meetup{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Meetup{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO meetups (id, title, description, date, duration, venue, organizer, rules, cost,
		                     participation_limit, is_private, tags, vehicle_types, participants, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,'[]',$14,$15)
	`, input.ID, input.Title, input.Description, input.Date, input.Duration, venueRaw, input.Organizer, input.Rules, input.Cost,
		input.ParticipationLimit, input.IsPrivate, input.Tags, input.VehicleTypes, input.CreatedAt, input.UpdatedAt)
	if err != nil {
		return Meetup{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET events_hosted = events_hosted + 1,
		    event_hosted_ids = array_append(event_hosted_ids, $2)
		WHERE id=$1
	`, organizerID, input.ID)
	if err != nil {
		return Meetup{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Meetup{}, err
	}

	s.cache.Invalidate(ctx, cache.UserKey(organizerID))
	return input, nil
}

// UpdateMeetup merges the patch and refreshes updated_at. Lowering the
// participation limit below the current participant count is rejected so
// the capacity invariant cannot be violated retroactively.
func (s *Service) UpdateMeetup(ctx context.Context, id, callerID string, patch MeetupUpdate) (Meetup, error) {
	s.cache.Invalidate(ctx, cache.MeetupKey(id))

	m, err := s.GetMeetup(ctx, id)
	if err != nil {
		return Meetup{}, err
	}
	if m.Organizer != callerID {
		return Meetup{}, ErrNotOrganizer
	}

	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Date != nil {
		m.Date = *patch.Date
	}
	if patch.Duration != nil {
		m.Duration = *patch.Duration
	}
	if patch.Venue != nil {
		m.Venue = *patch.Venue
	}
	if patch.Rules != nil {
		m.Rules = *patch.Rules
	}
	if patch.Cost != nil {
		m.Cost = *patch.Cost
	}
	if patch.ParticipationLimit != nil {
		if *patch.ParticipationLimit < len(m.Participants) {
			return Meetup{}, ErrLimitBelowCount
		}
		m.ParticipationLimit = *patch.ParticipationLimit
	}
	if patch.IsPrivate != nil {
		m.IsPrivate = *patch.IsPrivate
	}
	if patch.Tags != nil {
		m.Tags = patch.Tags
	}
	if patch.VehicleTypes != nil {
		m.VehicleTypes = patch.VehicleTypes
	}
	m.UpdatedAt = time.Now().Unix()

	venueRaw, err := json.Marshal(m.Venue)
	if err != nil {
		return Meetup{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE meetups
		SET title=$2, description=$3, date=$4, duration=$5, venue=$6, rules=$7, cost=$8,
		    participation_limit=$9, is_private=$10, tags=$11, vehicle_types=$12, updated_at=$13
		WHERE id=$1
	`, m.ID, m.Title, m.Description, m.Date, m.Duration, venueRaw, m.Rules, m.Cost,
		m.ParticipationLimit, m.IsPrivate, m.Tags, m.VehicleTypes, m.UpdatedAt)
	if err != nil {
		return Meetup{}, err
	}

	s.cache.Invalidate(ctx, cache.MeetupKey(id))
	s.broadcast(id, "meetup_updated", map[string]any{"meetup_id": id})
	return m, nil
}

// DeleteMeetup removes the meetup as a compensating-action workflow:
// every participant's attended list and counter and the organizer's
// hosted list and counter are corrected in the same transaction, so no
// dangling references survive the delete.
func (s *Service) DeleteMeetup(ctx context.Context, id, callerID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var organizer string
	var participantsRaw []byte
	if err := tx.QueryRow(ctx, `
		SELECT organizer, participants FROM meetups WHERE id=$1 FOR UPDATE
	`, id).Scan(&organizer, &participantsRaw); err != nil {
		return err
	}
	if organizer != callerID {
		return ErrNotOrganizer
	}

	var participants []Participant
	if len(participantsRaw) > 0 {
		if err := json.Unmarshal(participantsRaw, &participants); err != nil {
			return err
		}
	}

	touched := []string{cache.MeetupKey(id), cache.UserKey(organizer)}
	seen := map[string]bool{}
	for _, p := range participants {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET events_attended = GREATEST(events_attended - 1, 0),
			    event_attended_ids = array_remove(event_attended_ids, $2)
			WHERE id=$1
		`, p.UserID, id)
		if err != nil {
			return err
		}
		touched = append(touched, cache.UserKey(p.UserID))
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET events_hosted = GREATEST(events_hosted - 1, 0),
		    event_hosted_ids = array_remove(event_hosted_ids, $2)
		WHERE id=$1
	`, organizer, id)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM meetups WHERE id=$1`, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, touched...)
	s.broadcast(id, "meetup_deleted", map[string]any{"meetup_id": id})
	return nil
}

// JoinMeetup re-reads the participant list under the row lock and checks
// capacity and duplicate joins against that authoritative count before
// appending. The participant append and the joiner's attended-statistics
// update commit in the same transaction.
func (s *Service) JoinMeetup(ctx context.Context, meetupID, userID, username string, vehicleIDs []string) (Meetup, error) {
	if len(vehicleIDs) == 0 {
		return Meetup{}, ErrNoVehiclesSelected
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Meetup{}, err
	}
	defer tx.Rollback(ctx)

	m, err := scanMeetup(tx.QueryRow(ctx, `
		SELECT `+meetupColumns+`
		FROM meetups WHERE id=$1 FOR UPDATE
	`, meetupID))
	if err != nil {
		return Meetup{}, err
	}

	if m.IsFull() {
		return Meetup{}, ErrMeetupFull
	}
	if m.hasParticipant(userID) {
		return Meetup{}, ErrAlreadyJoined
	}

	rides, err := s.ownedRides(ctx, tx, userID, vehicleIDs)
	if err != nil {
		return Meetup{}, err
	}
	if len(rides) == 0 {
		return Meetup{}, ErrNoVehiclesSelected
	}

	participant := Participant{
		UserID:   userID,
		Username: username,
		Status:   "confirmed",
		Vehicles: rides,
		JoinedAt: time.Now().Unix(),
	}
	m.Participants = append(m.Participants, participant)
	m.UpdatedAt = time.Now().Unix()

	participantsRaw, err := json.Marshal(m.Participants)
	if err != nil {
		return Meetup{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE meetups SET participants=$2, updated_at=$3 WHERE id=$1
	`, meetupID, participantsRaw, m.UpdatedAt)
	if err != nil {
		return Meetup{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET events_attended = events_attended + 1,
		    event_attended_ids = array_append(event_attended_ids, $2)
		WHERE id=$1
	`, userID, meetupID)
	if err != nil {
		return Meetup{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Meetup{}, err
	}

	s.cache.Invalidate(ctx, cache.MeetupKey(meetupID), cache.UserKey(userID))
	s.broadcast(meetupID, "participant_joined", map[string]any{
		"meetup_id":         meetupID,
		"user_id":           userID,
		"username":          username,
		"participant_count": len(m.Participants),
	})
	return m, nil
}

// ownedRides resolves the selected vehicle ids into denormalized
// participant entries, restricted to vehicles the caller actually owns.
func (s *Service) ownedRides(ctx context.Context, tx pgx.Tx, userID string, vehicleIDs []string) ([]ParticipantVehicle, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, make, model, trim FROM vehicles
		WHERE id = ANY($1) AND owner_id=$2
	`, vehicleIDs, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []ParticipantVehicle
	for rows.Next() {
		var id, make, model, trim string
		if err := rows.Scan(&id, &make, &model, &trim); err != nil {
			return nil, err
		}
		rides = append(rides, ParticipantVehicle{ID: id, Name: rideName(make, model, trim)})
	}
	return rides, nil
}

func rideName(make, model, trim string) string {
	return strings.TrimSpace(make + " " + model + " " + trim)
}

// ListEligibleVehicles returns the caller's vehicles whose type the
// meetup admits; an empty allowed set admits every vehicle.
func (s *Service) ListEligibleVehicles(ctx context.Context, meetupID, userID string) ([]RideOption, error) {
	m, err := s.GetMeetup(ctx, meetupID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, make, model, trim, type, year, images FROM vehicles
		WHERE owner_id=$1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []RideOption
	for rows.Next() {
		var r RideOption
		if err := rows.Scan(&r.ID, &r.Make, &r.Model, &r.Trim, &r.Type, &r.Year, &r.Images); err != nil {
			return nil, err
		}
		if len(m.VehicleTypes) == 0 || contains(m.VehicleTypes, r.Type) {
			options = append(options, r)
		}
	}
	return options, nil
}

// VehicleTypesOwned lists the distinct vehicle types in a user's garage,
// feeding the eligibility filter.
func (s *Service) VehicleTypesOwned(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT type FROM vehicles WHERE owner_id=$1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func (s *Service) broadcast(meetupID, event string, payload map[string]any) {
	if s.stream == nil {
		return
	}
	payload["event"] = event
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.stream.Broadcast(meetupID, raw)
}
