package garage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/prtkgoswami/gears-connect/internal/cache"
	"github.com/prtkgoswami/gears-connect/internal/db"
)

var ErrNotOwner = errors.New("vehicle belongs to another user")

// ImageCleaner removes uploaded images by their public URLs. Cleanup is
// fire-and-forget relative to the vehicle mutation that triggered it.
type ImageCleaner interface {
	DeleteByURLs(ctx context.Context, urls []string) error
}

type Service struct {
	db     db.Querier
	cache  *cache.Cache
	images ImageCleaner
}

func NewService(db db.Querier, c *cache.Cache, images ImageCleaner) *Service {
	return &Service{db: db, cache: c, images: images}
}

func (s *Service) ListVehicles(ctx context.Context, ownerID string) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, owner_name, make, model, trim, year, type, category,
		       power, torque, speed, is_modified, mod_description, images, description,
		       created_at, updated_at
		FROM vehicles WHERE owner_id=$1
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.OwnerName, &v.Make, &v.Model, &v.Trim, &v.Year, &v.Type, &v.Category,
			&v.Power, &v.Torque, &v.Speed, &v.IsModified, &v.ModDescription, &v.Images, &v.Description,
			&v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

func (s *Service) GetVehicle(ctx context.Context, id string) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, owner_name, make, model, trim, year, type, category,
		       power, torque, speed, is_modified, mod_description, images, description,
		       created_at, updated_at
		FROM vehicles WHERE id=$1
	`, id)
	var v Vehicle
	if err := row.Scan(&v.ID, &v.OwnerID, &v.OwnerName, &v.Make, &v.Model, &v.Trim, &v.Year, &v.Type, &v.Category,
		&v.Power, &v.Torque, &v.Speed, &v.IsModified, &v.ModDescription, &v.Images, &v.Description,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// CreateVehicle inserts the vehicle and maintains the owner's vehicle_ids
// and vehicles_owned counter in the same transaction.
func (s *Service) CreateVehicle(ctx context.Context, input Vehicle) (Vehicle, error) {
	input.ID = uuid.NewString()
	input.CreatedAt = time.Now().Unix()
	input.UpdatedAt = input.CreatedAt
	input.Images = capImages(input.Images)
	stripNonMotorized(&input)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Vehicle{}, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `SELECT name FROM users WHERE id=$1`, input.OwnerID).Scan(&input.OwnerName); err != nil {
		return Vehicle{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO vehicles (id, owner_id, owner_name, make, model, trim, year, type, category,
		                      power, torque, speed, is_modified, mod_description, images, description,
		                      created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, input.ID, input.OwnerID, input.OwnerName, input.Make, input.Model, input.Trim, input.Year, input.Type, input.Category,
		input.Power, input.Torque, input.Speed, input.IsModified, input.ModDescription, input.Images, input.Description,
		input.CreatedAt, input.UpdatedAt)
	if err != nil {
		return Vehicle{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET vehicles_owned = vehicles_owned + 1,
		    vehicle_ids = array_append(vehicle_ids, $2)
		WHERE id=$1
	`, input.OwnerID, input.ID)
	if err != nil {
		return Vehicle{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Vehicle{}, err
	}

	s.cache.Invalidate(ctx, cache.UserKey(input.OwnerID))
	return input, nil
}

// UpdateVehicle merges the patch and refreshes updated_at. Image URLs
// present before the update but absent from the patched set are submitted
// for blob deletion after the record update; that cleanup never blocks or
// rolls back the update.
func (s *Service) UpdateVehicle(ctx context.Context, id, callerID string, patch VehicleUpdate) (Vehicle, error) {
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if v.OwnerID != callerID {
		return Vehicle{}, ErrNotOwner
	}

	previousImages := v.Images

	if patch.Make != nil {
		v.Make = *patch.Make
	}
	if patch.Model != nil {
		v.Model = *patch.Model
	}
	if patch.Trim != nil {
		v.Trim = *patch.Trim
	}
	if patch.Year != nil {
		v.Year = *patch.Year
	}
	if patch.Type != nil {
		v.Type = *patch.Type
	}
	if patch.Category != nil {
		v.Category = *patch.Category
	}
	if patch.Power != nil {
		v.Power = *patch.Power
	}
	if patch.Torque != nil {
		v.Torque = *patch.Torque
	}
	if patch.Speed != nil {
		v.Speed = *patch.Speed
	}
	if patch.IsModified != nil {
		v.IsModified = *patch.IsModified
	}
	if patch.ModDescription != nil {
		v.ModDescription = *patch.ModDescription
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.Images != nil {
		v.Images = capImages(patch.Images)
	}
	stripNonMotorized(&v)
	v.UpdatedAt = time.Now().Unix()

	_, err = s.db.Exec(ctx, `
		UPDATE vehicles
		SET make=$2, model=$3, trim=$4, year=$5, type=$6, category=$7,
		    power=$8, torque=$9, speed=$10, is_modified=$11, mod_description=$12,
		    images=$13, description=$14, updated_at=$15
		WHERE id=$1
	`, v.ID, v.Make, v.Model, v.Trim, v.Year, v.Type, v.Category,
		v.Power, v.Torque, v.Speed, v.IsModified, v.ModDescription,
		v.Images, v.Description, v.UpdatedAt)
	if err != nil {
		return Vehicle{}, err
	}

	s.cleanupImages(droppedImages(previousImages, v.Images))
	return v, nil
}

// DeleteVehicle removes the vehicle, corrects the owner's counters in the
// same transaction, then schedules deletion of its images.
func (s *Service) DeleteVehicle(ctx context.Context, id, callerID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var ownerID string
	var images []string
	if err := tx.QueryRow(ctx, `SELECT owner_id, images FROM vehicles WHERE id=$1 FOR UPDATE`, id).Scan(&ownerID, &images); err != nil {
		return err
	}
	if ownerID != callerID {
		return ErrNotOwner
	}

	if _, err := tx.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET vehicles_owned = GREATEST(vehicles_owned - 1, 0),
		    vehicle_ids = array_remove(vehicle_ids, $2)
		WHERE id=$1
	`, ownerID, id)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.UserKey(ownerID))
	s.cleanupImages(images)
	return nil
}

func (s *Service) cleanupImages(urls []string) {
	if s.images == nil || len(urls) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.images.DeleteByURLs(ctx, urls); err != nil {
			log.Printf("image cleanup failed: %v", err)
		}
	}()
}

// droppedImages returns the URLs present in previous but absent from kept.
func droppedImages(previous, kept []string) []string {
	keep := make(map[string]struct{}, len(kept))
	for _, url := range kept {
		keep[url] = struct{}{}
	}
	var dropped []string
	for _, url := range previous {
		if _, ok := keep[url]; !ok {
			dropped = append(dropped, url)
		}
	}
	return dropped
}

func capImages(images []string) []string {
	if len(images) > MaxImages {
		return images[:MaxImages]
	}
	return images
}

// Performance figures are meaningless for bicycles and are never stored
// for them.
func stripNonMotorized(v *Vehicle) {
	if v.Type == "bicycle" {
		v.Power = 0
		v.Torque = 0
		v.Speed = 0
	}
}
