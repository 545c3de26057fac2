package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prtkgoswami/gears-connect/internal/cache"
	"github.com/prtkgoswami/gears-connect/internal/db"
)

type Service struct {
	db    db.Querier
	cache *cache.Cache
}

func NewService(db db.Querier, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

func (s *Service) GetProfile(ctx context.Context, id string) (UserProfile, error) {
	var profile UserProfile
	if s.cache.Get(ctx, cache.UserKey(id), &profile) {
		return profile, nil
	}

	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, description, socials,
		       vehicles_owned, events_attended, events_hosted,
		       vehicle_ids, event_hosted_ids, event_attended_ids,
		       created_at, last_active
		FROM users WHERE id=$1
	`, id)

	var socialsRaw []byte
	if err := row.Scan(&profile.ID, &profile.Name, &profile.Email, &profile.Description, &socialsRaw,
		&profile.Statistics.VehiclesOwned, &profile.Statistics.EventsAttended, &profile.Statistics.EventsHosted,
		&profile.VehicleIDs, &profile.EventHostedIDs, &profile.EventAttendedIDs,
		&profile.CreatedAt, &profile.LastActive); err != nil {
		return UserProfile{}, err
	}
	if len(socialsRaw) > 0 {
		if err := json.Unmarshal(socialsRaw, &profile.Socials); err != nil {
			return UserProfile{}, err
		}
	}

	s.cache.Set(ctx, cache.UserKey(id), profile)
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, patch ProfileUpdate) (UserProfile, error) {
	s.cache.Invalidate(ctx, cache.UserKey(id))

	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return UserProfile{}, err
	}
	if patch.Name != "" {
		profile.Name = patch.Name
	}
	if patch.Description != "" {
		profile.Description = patch.Description
	}
	if patch.Socials != nil {
		profile.Socials = *patch.Socials
	}
	profile.LastActive = time.Now().Unix()

	socialsRaw, err := json.Marshal(profile.Socials)
	if err != nil {
		return UserProfile{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET name=$2, description=$3, socials=$4, last_active=$5
		WHERE id=$1
	`, profile.ID, profile.Name, profile.Description, socialsRaw, profile.LastActive)
	if err != nil {
		return UserProfile{}, err
	}

	s.cache.Invalidate(ctx, cache.UserKey(id))
	return profile, nil
}
