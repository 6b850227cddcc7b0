package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/owlist/owlist/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a tracking record does not exist or belongs
// to a different user. The API layer renders both cases as 404 so one user
// cannot probe for another's rows.
var ErrNotFound = errors.New("record not found")

// CreateUserContentInput carries an "add to library" request. Optional
// fields are pointers; nil means "not supplied" and defaults apply only on
// first creation.
type CreateUserContentInput struct {
	UserID          string
	ExternalID      string
	Source          model.Source
	Type            model.ContentType
	Status          model.WatchStatus
	Rating          *int
	EpisodesWatched *int
	WatchedAt       *time.Time
	Notes           *string
}

// UpdateUserContentInput carries a partial update; nil fields are left
// untouched.
type UpdateUserContentInput struct {
	Status          *model.WatchStatus
	Rating          *int
	EpisodesWatched *int
	WatchedAt       *time.Time
	Notes           *string
}

// ContentService owns the content cache and the per-user tracking records.
type ContentService struct {
	db     *gorm.DB
	search *SearchService
}

func NewContentService(gdb *gorm.DB, search *SearchService) *ContentService {
	return &ContentService{
		db:     gdb,
		search: search,
	}
}

// GetOrCreateContent maps a canonical item to its persisted cache row.
// An existing row is returned as-is; a fresh fetch never overwrites cached
// fields. On first sight the insert goes through ON CONFLICT DO NOTHING on
// the (source, external_id) unique index, so two racing first-sight writers
// converge on a single row: the loser re-reads and returns the winner's.
func (s *ContentService) GetOrCreateContent(ctx context.Context, can model.Canonical) (*model.Content, error) {
	existing, err := s.findContent(ctx, can.Source, can.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup content: %w", err)
	}

	row := model.NewContentFromCanonical(can)
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "external_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("create content: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the first-sight race; someone else's row is authoritative.
		winner, err := s.findContent(ctx, can.Source, can.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("re-read content after conflict: %w", err)
		}
		return winner, nil
	}
	return &row, nil
}

func (s *ContentService) findContent(ctx context.Context, source model.Source, externalID string) (*model.Content, error) {
	var row model.Content
	err := s.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// AddUserContent adds a title to the user's library: a fresh fetch from the
// source resolves the canonical content, the cache row is resolved or
// created, then the tracking record is upserted on (user_id, content_id).
// On conflict only the fields present in the request are assigned, so a
// repeated add never clobbers unrelated personal state.
func (s *ContentService) AddUserContent(ctx context.Context, in CreateUserContentInput) (*model.UserContent, error) {
	can, err := s.search.GetContentDetails(ctx, in.Source, in.ExternalID, in.Type)
	if err != nil {
		return nil, fmt.Errorf("resolve content details: %w", err)
	}

	content, err := s.GetOrCreateContent(ctx, can)
	if err != nil {
		return nil, err
	}

	row := model.UserContent{
		UserID:    in.UserID,
		ContentID: content.ID,
		Status:    in.Status,
	}
	assignments := map[string]interface{}{
		"status":     in.Status,
		"updated_at": time.Now(),
	}
	if in.Rating != nil {
		row.Rating = in.Rating
		assignments["rating"] = *in.Rating
	}
	if in.EpisodesWatched != nil {
		row.EpisodesWatched = *in.EpisodesWatched
		assignments["episodes_watched"] = *in.EpisodesWatched
	}
	if in.WatchedAt != nil {
		row.WatchedAt = in.WatchedAt
		assignments["watched_at"] = *in.WatchedAt
	}
	if in.Notes != nil {
		row.Notes = in.Notes
		assignments["notes"] = *in.Notes
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert user content: %w", err)
	}

	// Re-read: on conflict the persisted row keeps its original id and
	// creation time, not the ones on the in-memory struct.
	var out model.UserContent
	err = s.db.WithContext(ctx).
		Preload("Content").
		Where("user_id = ? AND content_id = ?", in.UserID, content.ID).
		First(&out).Error
	if err != nil {
		return nil, fmt.Errorf("read back user content: %w", err)
	}
	return &out, nil
}

// UpdateUserContent applies a partial update to one tracking record, scoped
// by both the row id and the owning user.
func (s *ContentService) UpdateUserContent(ctx context.Context, userContentID, userID string, in UpdateUserContentInput) (*model.UserContent, error) {
	var row model.UserContent
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", userContentID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user content: %w", err)
	}

	updates := map[string]interface{}{}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Rating != nil {
		updates["rating"] = *in.Rating
	}
	if in.EpisodesWatched != nil {
		updates["episodes_watched"] = *in.EpisodesWatched
	}
	if in.WatchedAt != nil {
		updates["watched_at"] = *in.WatchedAt
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user content: %w", err)
		}
	}

	var out model.UserContent
	if err := s.db.WithContext(ctx).Preload("Content").First(&out, "id = ?", row.ID).Error; err != nil {
		return nil, fmt.Errorf("read back user content: %w", err)
	}
	return &out, nil
}

// ListUserContent returns the user's library joined with the cached content,
// newest activity first, optionally filtered by status.
func (s *ContentService) ListUserContent(ctx context.Context, userID string, status *model.WatchStatus) ([]model.UserContent, error) {
	q := s.db.WithContext(ctx).
		Preload("Content").
		Where("user_id = ?", userID).
		Order("updated_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var rows []model.UserContent
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list user content: %w", err)
	}
	return rows, nil
}

// DeleteUserContent removes one tracking record. The delete is scoped by
// both ids: another user's row is untouchable and reported as not found.
func (s *ContentService) DeleteUserContent(ctx context.Context, userContentID, userID string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", userContentID, userID).
		Delete(&model.UserContent{})
	if res.Error != nil {
		return fmt.Errorf("delete user content: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
