package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"song-catalog/core/database"
	"song-catalog/feature/catalog/models"
	"song-catalog/feature/catalog/reconcile"
)

// ErrRowNotFound is returned when an update or delete matched no managed row.
var ErrRowNotFound = errors.New("row not found")

// GormStore persists the catalog through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// EnsureSchema creates or extends the catalog tables.
func EnsureSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&SongRecord{}, &PackRecord{}, &MembershipRecord{}); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return nil
}

// VerifySchema checks that every catalog table has its required columns.
func VerifySchema(db *gorm.DB) error {
	tables := make([]string, 0, len(requiredColumns))
	for t := range requiredColumns {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var problems []string
	for _, table := range tables {
		missing, err := database.MissingColumns(db, table, requiredColumns[table])
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("%s (%s)", table, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("catalog schema is missing columns: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Snapshot reads every row.
func (s *GormStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	db := s.db.WithContext(ctx)

	var songs []SongRecord
	if err := db.Order("id").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("failed to read songs: %w", err)
	}
	var packs []PackRecord
	if err := db.Order("id").Find(&packs).Error; err != nil {
		return nil, fmt.Errorf("failed to read packs: %w", err)
	}
	var memberships []MembershipRecord
	if err := db.Order("song_id, pack_id").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to read memberships: %w", err)
	}

	snap := &models.Snapshot{
		Songs:       make([]models.SongRow, 0, len(songs)),
		Packs:       make([]models.PackRow, 0, len(packs)),
		Memberships: make([]models.MembershipRow, 0, len(memberships)),
	}
	for _, r := range songs {
		snap.Songs = append(snap.Songs, r.ToRow())
	}
	for _, r := range packs {
		snap.Packs = append(snap.Packs, r.ToRow())
	}
	for _, r := range memberships {
		snap.Memberships = append(snap.Memberships, r.ToRow())
	}
	return snap, nil
}

// InsertPack inserts a pack row.
func (s *GormStore) InsertPack(ctx context.Context, row models.PackRow) error {
	rec := packRecord(row)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert pack %s: %w", row.ID, err)
	}
	return nil
}

// UpdatePack overwrites the name and timestamp of a managed pack.
func (s *GormStore) UpdatePack(ctx context.Context, row models.PackRow) error {
	result := s.db.WithContext(ctx).
		Model(&PackRecord{}).
		Where("id = ? AND custom = ?", row.ID, false).
		Updates(map[string]any{
			"name":          row.Name,
			"last_modified": row.LastModified,
		})
	return affected(result, "update pack", row.ID)
}

// DeletePack deletes a managed pack.
func (s *GormStore) DeletePack(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND custom = ?", id, false).
		Delete(&PackRecord{})
	return affected(result, "delete pack", id)
}

// InsertSong inserts a song row.
func (s *GormStore) InsertSong(ctx context.Context, row models.SongRow) error {
	rec := songRecord(row)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert song %s: %w", row.ID, err)
	}
	return nil
}

// UpdateSong overwrites the catalog fields of a managed song. The custom and
// marked_for_deletion flags are left as they are.
func (s *GormStore) UpdateSong(ctx context.Context, row models.SongRow) error {
	result := s.db.WithContext(ctx).
		Model(&SongRecord{}).
		Where("id = ? AND custom = ?", row.ID, false).
		Updates(map[string]any{
			"title":         row.Title,
			"artist":        row.Artist,
			"media_id":      row.MediaID,
			"year":          row.Year,
			"start_offset":  row.Offset,
			"label":         row.Label,
			"last_modified": row.LastModified,
			"available":     row.Available,
		})
	return affected(result, "update song", row.ID)
}

// DeleteSong deletes a managed song and its managed memberships.
func (s *GormStore) DeleteSong(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ? AND custom = ?", id, false).Delete(&MembershipRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships of song %s: %w", id, err)
		}
		result := tx.Where("id = ? AND custom = ?", id, false).Delete(&SongRecord{})
		return affected(result, "delete song", id)
	})
}

// InsertMembership inserts a membership row.
func (s *GormStore) InsertMembership(ctx context.Context, row models.MembershipRow) error {
	rec := membershipRecord(row)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert membership %s/%s: %w", row.SongID, row.PackID, err)
	}
	return nil
}

// DeleteMembership deletes a managed membership.
func (s *GormStore) DeleteMembership(ctx context.Context, songID, packID string) error {
	result := s.db.WithContext(ctx).
		Where("song_id = ? AND pack_id = ? AND custom = ?", songID, packID, false).
		Delete(&MembershipRecord{})
	return affected(result, "delete membership", songID+"/"+packID)
}

// RehomeMemberships moves the memberships of fromID to toID.
func (s *GormStore) RehomeMemberships(ctx context.Context, fromID, toID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken []string
		if err := tx.Model(&MembershipRecord{}).Where("song_id = ?", toID).Pluck("pack_id", &taken).Error; err != nil {
			return fmt.Errorf("failed to read memberships of song %s: %w", toID, err)
		}
		if len(taken) > 0 {
			if err := tx.Where("song_id = ? AND pack_id IN ?", fromID, taken).Delete(&MembershipRecord{}).Error; err != nil {
				return fmt.Errorf("failed to drop overlapping memberships of song %s: %w", fromID, err)
			}
		}
		if err := tx.Model(&MembershipRecord{}).Where("song_id = ?", fromID).Update("song_id", toID).Error; err != nil {
			return fmt.Errorf("failed to move memberships from %s to %s: %w", fromID, toID, err)
		}
		return nil
	})
}

// WithinTx runs fn inside a database transaction.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx reconcile.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func affected(result *gorm.DB, op, key string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to %s %s: %w", op, key, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", op, key, ErrRowNotFound)
	}
	return nil
}

var _ reconcile.Store = (*GormStore)(nil)
