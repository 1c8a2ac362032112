package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rosie/internal/ports/docstore"
	"rosie/internal/ports/settings"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestDocStore_Get(t *testing.T) {
	db, mock := newMock(t)
	s := NewDocStore(db, "", nil)
	defer s.Close()

	q := `(?s)^SELECT\s+data\s+FROM\s+documents\s+WHERE\s+path\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("users/u1/pet/status").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Rosie","state":"happy","lastInteraction":1766397600000}`)))

	doc, ok, err := s.Get(context.Background(), "/users/u1/pet/status")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Rosie", doc["name"])
	assert.Equal(t, float64(1766397600000), doc["lastInteraction"])

	mock.ExpectQuery(q).WithArgs("users/u2/pet/status").WillReturnError(sql.ErrNoRows)
	_, ok, err = s.Get(context.Background(), "users/u2/pet/status")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(q).WithArgs("users/u3/pet/status").WillReturnError(errors.New("db down"))
	_, _, err = s.Get(context.Background(), "users/u3/pet/status")
	assert.ErrorContains(t, err, "db error: db down")

	_, _, err = s.Get(context.Background(), "//")
	assert.ErrorIs(t, err, docstore.ErrInvalidPath)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocStore_Set_MergeUsesJSONBConcat(t *testing.T) {
	db, mock := newMock(t)
	s := NewDocStore(db, "", nil)
	defer s.Close()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+documents.*ON\s+CONFLICT\s+\(path\).*documents\.data\s+\|\|\s+EXCLUDED\.data.*RETURNING\s+data`).
		WithArgs("users/u1/pet/status", `{"state":"happy"}`).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Rosie","state":"happy"}`)))

	err := s.Set(context.Background(), "users/u1/pet/status", docstore.Document{"state": "happy"}, true)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocStore_Set_ReplaceAndError(t *testing.T) {
	db, mock := newMock(t)
	s := NewDocStore(db, "", nil)
	defer s.Close()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+documents.*SET\s+data\s*=\s*EXCLUDED\.data,`).
		WithArgs("users/u1", `{"pushToken":"tok"}`).
		WillReturnError(errors.New("conn reset"))

	err := s.Set(context.Background(), "users/u1", docstore.Document{"pushToken": "tok"}, false)
	assert.ErrorContains(t, err, "conn reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocStore_SubscribeAndRefresh(t *testing.T) {
	db, mock := newMock(t)
	s := NewDocStore(db, "", nil)
	defer s.Close()

	q := `(?s)^SELECT\s+data\s+FROM\s+documents`
	mock.ExpectQuery(q).WithArgs("users/u1/pet/status").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(q).WithArgs("users/u1/pet/status").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"state":"bored"}`)))

	var mu sync.Mutex
	var got []docstore.Snapshot
	unsub, err := s.Subscribe(context.Background(), "users/u1/pet/status", func(snap docstore.Snapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsub()

	// notificación de otro proceso
	s.refresh(context.Background(), "users/u1/pet/status")
	// nadie mira este path: no consulta
	s.refresh(context.Background(), "users/u9/pet/status")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, got[0].Exists)
	assert.True(t, got[1].Exists)
	assert.Equal(t, "bored", got[1].Data["state"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocStore_SetWaitsForSubscribeOnSamePath(t *testing.T) {
	db, mock := newMock(t)
	s := NewDocStore(db, "", nil)
	defer s.Close()

	const path = "users/u1/pet/status"
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+documents`).
		WithArgs(path, `{"state":"happy"}`).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"state":"happy"}`)))
	mock.ExpectQuery(`(?s)^SELECT\s+data\s+FROM\s+documents`).WithArgs(path).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"state":"happy"}`)))

	// Simula un Subscribe a mitad de camino entre la lectura inicial y el alta.
	unlock := s.lockPath(path)

	done := make(chan error, 1)
	go func() {
		done <- s.Set(context.Background(), path, docstore.Document{"state": "happy"}, true)
	}()

	select {
	case err := <-done:
		t.Fatalf("Set finished while the path was locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Set never finished")
	}

	var mu sync.Mutex
	var got []docstore.Snapshot
	unsub, err := s.Subscribe(context.Background(), path, func(snap docstore.Snapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0].Exists && got[0].Data["state"] == "happy"
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsStore_GetDefaultsAndSave(t *testing.T) {
	db, mock := newMock(t)
	r := NewSettingsStore(db)

	mock.ExpectQuery(`(?s)SELECT\s+notifications_enabled.*FROM\s+user_settings`).
		WithArgs("u1").WillReturnError(sql.ErrNoRows)

	got, err := r.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+user_settings.*ON\s+CONFLICT\s+\(user_id\)`).
		WithArgs("u1", false, true, true, "tr").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = r.Save(context.Background(), "u1", settings.Settings{NotificationsEnabled: false, SoundsEnabled: true, MusicEnabled: true, Language: "tr"})
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT\s+notifications_enabled.*FROM\s+user_settings`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"notifications_enabled", "sounds_enabled", "music_enabled", "language"}).AddRow(false, true, true, "tr"))

	got, err = r.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "tr", got.Language)
	assert.False(t, got.NotificationsEnabled)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RunsEmbeddedMigrations(t *testing.T) {
	db, _ := newMock(t)

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var dir string
	gooseUp = func(ctx context.Context, _ *sql.DB, d string, _ ...goose.OptionsFunc) error {
		dir = d
		return nil
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, ".", dir)
}
