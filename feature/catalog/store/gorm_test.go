package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"song-catalog/feature/catalog/models"
	"song-catalog/feature/catalog/reconcile"
)

var testTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite DB with the catalog tables.
func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, EnsureSchema(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func managedSong(id, mediaID string) models.SongRow {
	return models.SongRow{ID: id, MediaID: mediaID, Title: "Song", Artist: "Band", Year: 2000, LastModified: testTime}
}

func TestGormStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t, "store_round_trip")
	s := NewGormStore(db)
	ctx := context.Background()

	song := managedSong("s1", "abc")
	song.Offset = 12
	song.Label = "EMI"
	song.Available = true
	song.State = models.NewRowState(false, true)

	require.NoError(t, s.InsertPack(ctx, models.PackRow{ID: "p1", Name: "Pop", LastModified: testTime}))
	require.NoError(t, s.InsertPack(ctx, models.PackRow{ID: "p2", Name: "Mine", LastModified: testTime, Origin: models.OriginCustom}))
	require.NoError(t, s.InsertSong(ctx, song))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "s1", PackID: "p1"}))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "s1", PackID: "p2", State: models.NewRowState(true, false)}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Songs, 1)
	got := snap.Songs[0]
	assert.Equal(t, "abc", got.MediaID)
	assert.Equal(t, 12, got.Offset)
	assert.Equal(t, "EMI", got.Label)
	assert.True(t, got.Available)
	assert.True(t, got.State.Marked())
	assert.True(t, got.State.Mutable())
	assert.True(t, got.LastModified.Equal(testTime))

	require.Len(t, snap.Packs, 2)
	assert.True(t, snap.Packs[0].Mutable())
	assert.False(t, snap.Packs[1].Mutable())

	require.Len(t, snap.Memberships, 2)
	assert.True(t, snap.Memberships[1].State.Custom())
}

func TestGormStoreDuplicateInsert(t *testing.T) {
	s := NewGormStore(setupTestDB(t, "store_duplicate_insert"))
	ctx := context.Background()

	require.NoError(t, s.InsertSong(ctx, managedSong("s1", "abc")))
	assert.Error(t, s.InsertSong(ctx, managedSong("s1", "abc")))
}

func TestGormStoreCustomRowsAreGuarded(t *testing.T) {
	db := setupTestDB(t, "store_custom_guard")
	s := NewGormStore(db)
	ctx := context.Background()

	custom := managedSong("c1", "abc")
	custom.State = models.NewRowState(true, false)
	require.NoError(t, s.InsertSong(ctx, custom))
	require.NoError(t, s.InsertPack(ctx, models.PackRow{ID: "p1", Name: "Mine", Origin: models.OriginCustom, LastModified: testTime}))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "c1", PackID: "p1", State: models.NewRowState(true, false)}))

	update := managedSong("c1", "abc")
	update.Title = "Changed"
	update.LastModified = testTime.Add(time.Hour)

	assert.ErrorIs(t, s.UpdateSong(ctx, update), ErrRowNotFound)
	assert.ErrorIs(t, s.DeleteSong(ctx, "c1"), ErrRowNotFound)
	assert.ErrorIs(t, s.UpdatePack(ctx, models.PackRow{ID: "p1", Name: "Other"}), ErrRowNotFound)
	assert.ErrorIs(t, s.DeletePack(ctx, "p1"), ErrRowNotFound)
	assert.ErrorIs(t, s.DeleteMembership(ctx, "c1", "p1"), ErrRowNotFound)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Songs, 1)
	assert.Equal(t, "Song", snap.Songs[0].Title)
	assert.Len(t, snap.Packs, 1)
	assert.Len(t, snap.Memberships, 1)
}

func TestGormStoreUpdateSongKeepsFlags(t *testing.T) {
	s := NewGormStore(setupTestDB(t, "store_update_flags"))
	ctx := context.Background()

	row := managedSong("s1", "abc")
	row.Available = true
	row.State = models.NewRowState(false, true)
	require.NoError(t, s.InsertSong(ctx, row))

	update := managedSong("s1", "xyz")
	update.Title = "New Title"
	update.LastModified = testTime.Add(time.Hour)
	require.NoError(t, s.UpdateSong(ctx, update))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	got := snap.Songs[0]
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, "xyz", got.MediaID)
	assert.False(t, got.Available)
	assert.True(t, got.State.Marked(), "tombstone survives updates")
	assert.True(t, got.LastModified.Equal(testTime.Add(time.Hour)))
}

func TestGormStoreDeleteSongKeepsCustomMemberships(t *testing.T) {
	s := NewGormStore(setupTestDB(t, "store_delete_song"))
	ctx := context.Background()

	require.NoError(t, s.InsertSong(ctx, managedSong("s1", "abc")))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "s1", PackID: "p1"}))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "s1", PackID: "p2", State: models.NewRowState(true, false)}))

	require.NoError(t, s.DeleteSong(ctx, "s1"))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Songs)
	require.Len(t, snap.Memberships, 1)
	assert.Equal(t, "p2", snap.Memberships[0].PackID)

	assert.ErrorIs(t, s.DeleteSong(ctx, "s1"), ErrRowNotFound)
}

func TestGormStoreRehomeMemberships(t *testing.T) {
	s := NewGormStore(setupTestDB(t, "store_rehome"))
	ctx := context.Background()

	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "old", PackID: "p1", State: models.NewRowState(true, true)}))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "old", PackID: "p2"}))
	require.NoError(t, s.InsertMembership(ctx, models.MembershipRow{SongID: "new", PackID: "p2", State: models.NewRowState(false, true)}))

	require.NoError(t, s.RehomeMemberships(ctx, "old", "new"))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Memberships, 2)

	idx := snap.Index()
	assert.Empty(t, idx.Memberships("old"))
	moved := idx.Memberships("new")
	require.Len(t, moved, 2)
	assert.Equal(t, models.MembershipRow{SongID: "new", PackID: "p1", State: models.NewRowState(true, true)}, moved[0])
	assert.True(t, moved[1].State.Marked(), "existing membership of the target wins")
}

func TestGormStoreWithinTxRollsBack(t *testing.T) {
	s := NewGormStore(setupTestDB(t, "store_tx_rollback"))
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx reconcile.Store) error {
		if err := tx.InsertSong(ctx, managedSong("s1", "abc")); err != nil {
			return err
		}
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Songs)
}

func TestVerifySchema(t *testing.T) {
	db := setupTestDB(t, "store_verify_schema")
	assert.NoError(t, VerifySchema(db))

	bare, err := gorm.Open(sqlite.Open("file:store_verify_bare?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, bare.Exec("CREATE TABLE packs (id TEXT PRIMARY KEY, name TEXT)").Error)

	err = VerifySchema(bare)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "packs (last_modified, custom)")
	assert.Contains(t, err.Error(), "songs (id, title")
}

func TestGormStoreUpdatePackNoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `packs` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdatePack(context.Background(), models.PackRow{ID: "p1", Name: "Pop", LastModified: testTime})
	assert.ErrorIs(t, err, ErrRowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreInsertSongError(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `songs`").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.InsertSong(context.Background(), managedSong("s1", "abc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert song s1")
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreDeleteSongRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `song_packs`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `songs`").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := s.DeleteSong(context.Background(), "s1")
	assert.ErrorContains(t, err, "lock wait timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreSnapshotError(t *testing.T) {
	db, mock := setupMockDB(t)
	s := NewGormStore(db)

	mock.ExpectQuery("SELECT \\* FROM `songs`").WillReturnError(errors.New("no such table"))

	_, err := s.Snapshot(context.Background())
	assert.ErrorContains(t, err, "failed to read songs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
