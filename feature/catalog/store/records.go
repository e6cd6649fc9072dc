package store

import (
	"time"

	"song-catalog/feature/catalog/models"
)

// Table names of the persisted catalog.
const (
	TableSongs       = "songs"
	TablePacks       = "packs"
	TableMemberships = "song_packs"
)

// SongRecord is a row of the songs table.
type SongRecord struct {
	ID                string    `gorm:"column:id;primaryKey;size:64"`
	Title             string    `gorm:"column:title;size:255"`
	Artist            string    `gorm:"column:artist;size:255"`
	MediaID           string    `gorm:"column:media_id;size:64;index"`
	Year              int       `gorm:"column:year"`
	Offset            int       `gorm:"column:start_offset"` // offset is reserved in SQL
	Label             string    `gorm:"column:label;size:255"`
	LastModified      time.Time `gorm:"column:last_modified;precision:6"`
	Available         bool      `gorm:"column:available"`
	Custom            bool      `gorm:"column:custom"`
	MarkedForDeletion bool      `gorm:"column:marked_for_deletion"`
}

// TableName overrides the table name.
func (SongRecord) TableName() string {
	return TableSongs
}

// ToRow converts the record to its domain row.
func (r SongRecord) ToRow() models.SongRow {
	return models.SongRow{
		ID:           r.ID,
		MediaID:      r.MediaID,
		Title:        r.Title,
		Artist:       r.Artist,
		Year:         r.Year,
		Offset:       r.Offset,
		Label:        r.Label,
		LastModified: r.LastModified,
		Available:    r.Available,
		State:        models.NewRowState(r.Custom, r.MarkedForDeletion),
	}
}

func songRecord(row models.SongRow) SongRecord {
	return SongRecord{
		ID:                row.ID,
		Title:             row.Title,
		Artist:            row.Artist,
		MediaID:           row.MediaID,
		Year:              row.Year,
		Offset:            row.Offset,
		Label:             row.Label,
		LastModified:      row.LastModified,
		Available:         row.Available,
		Custom:            row.State.Custom(),
		MarkedForDeletion: row.State.Marked(),
	}
}

// PackRecord is a row of the packs table.
type PackRecord struct {
	ID           string    `gorm:"column:id;primaryKey;size:64"`
	Name         string    `gorm:"column:name;size:255"`
	LastModified time.Time `gorm:"column:last_modified;precision:6"`
	Custom       bool      `gorm:"column:custom"`
}

// TableName overrides the table name.
func (PackRecord) TableName() string {
	return TablePacks
}

// ToRow converts the record to its domain row.
func (r PackRecord) ToRow() models.PackRow {
	row := models.PackRow{ID: r.ID, Name: r.Name, LastModified: r.LastModified}
	if r.Custom {
		row.Origin = models.OriginCustom
	}
	return row
}

func packRecord(row models.PackRow) PackRecord {
	return PackRecord{
		ID:           row.ID,
		Name:         row.Name,
		LastModified: row.LastModified,
		Custom:       row.Origin == models.OriginCustom,
	}
}

// MembershipRecord is a row of the song_packs table.
type MembershipRecord struct {
	SongID            string `gorm:"column:song_id;primaryKey;size:64"`
	PackID            string `gorm:"column:pack_id;primaryKey;size:64"`
	Custom            bool   `gorm:"column:custom"`
	MarkedForDeletion bool   `gorm:"column:marked_for_deletion"`
}

// TableName overrides the table name.
func (MembershipRecord) TableName() string {
	return TableMemberships
}

// ToRow converts the record to its domain row.
func (r MembershipRecord) ToRow() models.MembershipRow {
	return models.MembershipRow{
		SongID: r.SongID,
		PackID: r.PackID,
		State:  models.NewRowState(r.Custom, r.MarkedForDeletion),
	}
}

func membershipRecord(row models.MembershipRow) MembershipRecord {
	return MembershipRecord{
		SongID:            row.SongID,
		PackID:            row.PackID,
		Custom:            row.State.Custom(),
		MarkedForDeletion: row.State.Marked(),
	}
}

// requiredColumns is the minimum shape of each table.
var requiredColumns = map[string][]string{
	TableSongs: {
		"id", "title", "artist", "media_id", "year", "start_offset", "label",
		"last_modified", "available", "custom", "marked_for_deletion",
	},
	TablePacks:       {"id", "name", "last_modified", "custom"},
	TableMemberships: {"song_id", "pack_id", "custom", "marked_for_deletion"},
}
