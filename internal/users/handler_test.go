package users

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestBranchHasManager(t *testing.T) {
	countQuery := regexp.QuoteMeta(`SELECT count(*) FROM "user_roles"`)

	t.Run("second manager for the branch is rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(countQuery).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		taken, err := branchHasManager(db, 3, uuid.Nil)
		require.NoError(t, err)
		assert.True(t, taken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("free branch passes", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(countQuery).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		taken, err := branchHasManager(db, 3, uuid.Nil)
		require.NoError(t, err)
		assert.False(t, taken)
	})

	t.Run("the owning manager does not collide with itself", func(t *testing.T) {
		db, mock := newMockDB(t)
		ownerID := uuid.New()
		mock.ExpectQuery(countQuery).
			WithArgs("Manager", 3, ownerID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		taken, err := branchHasManager(db, 3, ownerID)
		require.NoError(t, err)
		assert.False(t, taken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup failure surfaces instead of reading as free", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(countQuery).
			WillReturnError(errors.New("connection reset"))

		taken, err := branchHasManager(db, 3, uuid.Nil)
		require.Error(t, err)
		assert.False(t, taken)
	})
}
