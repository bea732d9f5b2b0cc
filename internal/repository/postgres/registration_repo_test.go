package postgres

import (
	"context"
	"database/sql"
	"testing"

	"campusevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestRegistrationRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr bool
		errIs   error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO event_registrations \(event_id, student_id, created_at\)`).
					WithArgs("ev-1", "stu-1", created).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "unique violation is a duplicate",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO event_registrations`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: true,
			errIs:   domain.ErrAlreadyRegistered,
		},
		{
			name: "event deleted",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO event_registrations`).
					WillReturnError(&pq.Error{Code: "23503"})
			},
			wantErr: true,
			errIs:   domain.ErrNotFound,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO event_registrations`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
			errIs:   sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewRegistrationRepository(db).Create(ctx, domain.NewRegistration("ev-1", "stu-1", created))
			if tt.wantErr {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`FROM event_registrations\s+WHERE event_id = \$1 AND student_id = \$2`).
			WithArgs("ev-1", "stu-1").
			WillReturnRows(sqlmock.NewRows([]string{"event_id", "student_id", "created_at"}).AddRow("ev-1", "stu-1", created))

		got, err := NewRegistrationRepository(db).Find(ctx, "ev-1", "stu-1")
		require.NoError(t, err)
		require.Equal(t, domain.NewRegistration("ev-1", "stu-1", created), got)
	})

	t.Run("missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery(`FROM event_registrations`).WillReturnError(sql.ErrNoRows)

		_, err = NewRegistrationRepository(db).Find(ctx, "ev-1", "stu-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRegistrationRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"removed", 1, true},
		{"nothing to remove", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			mock.ExpectExec(`DELETE FROM event_registrations WHERE event_id = \$1 AND student_id = \$2`).
				WithArgs("ev-1", "stu-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := NewRegistrationRepository(db).Delete(ctx, "ev-1", "stu-1")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRegistrationRepository_ListByStudentID(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM event_registrations\s+WHERE student_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "student_id", "created_at"}))

	got, err := NewRegistrationRepository(db).ListByStudentID(ctx, "stu-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
