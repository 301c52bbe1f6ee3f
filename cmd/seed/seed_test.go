package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Lutefd/logpulse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var epochForTest = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func testDeps(db *sql.DB, out *bytes.Buffer) dependencies {
	return dependencies{
		loadConn: func() (string, error) {
			return "mock", nil
		},
		openDB: func(driverName, dataSourceName string) (*sql.DB, error) {
			return db, nil
		},
		migrate: func(*sql.DB) error {
			return nil
		},
		newKey: func() string {
			return "00000000-0000-0000-0000-000000000000"
		},
		loadEnv: func(...string) error {
			return nil
		},
		out: out,
	}
}

func TestRun(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
		WithArgs(model.SystemProjectID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO projects").
		WithArgs(model.SystemProjectID, "Logger Core", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), model.AccessLevelDocker, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = run(context.Background(), testDeps(db, &out))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ADMIN_API_KEY=00000000-0000-0000-0000-000000000000", lines[0])
	hash := strings.TrimPrefix(lines[1], "ADMIN_API_KEY_HASH=")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("00000000-0000-0000-0000-000000000000")))
}

func TestRun_SystemProjectExists(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"id", "name", "description", "log_format", "default_tags", "custom_tags", "notify", "access_level", "debug_mode", "created_at", "updated_at"}
	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
		WithArgs(model.SystemProjectID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			model.SystemProjectID.String(), "Logger Core", "", []byte(`{}`), "{DEBUG,INFO}", "{SYSTEM}",
			[]byte(`{"enabled":false,"recipients":null,"anti_spam_interval":900}`), "docker", true, epochForTest, epochForTest,
		))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testDeps(db, &out)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_Errors(t *testing.T) {
	t.Run("Config error", func(t *testing.T) {
		deps := testDeps(nil, &bytes.Buffer{})
		deps.loadConn = func() (string, error) { return "", errors.New("POSTGRES_USER is not set") }
		err := run(context.Background(), deps)
		assert.ErrorContains(t, err, "error loading config")
	})

	t.Run("Ping error", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		err = run(context.Background(), testDeps(db, &bytes.Buffer{}))
		assert.ErrorContains(t, err, "error connecting to the database")
	})

	t.Run("Migration error", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing()

		deps := testDeps(db, &bytes.Buffer{})
		deps.migrate = func(*sql.DB) error { return errors.New("dirty database version 1") }
		err = run(context.Background(), deps)
		assert.ErrorContains(t, err, "error migrating database")
	})
}
