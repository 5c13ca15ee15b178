package repositories

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"users-server/db"
	"users-server/entities"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	selectUsers = `SELECT .+ FROM "users"`
	countUsers  = `SELECT count\(\*\) FROM "users" WHERE username = \$1`
	insertUser  = `INSERT INTO "users"`
)

func newRepoWithMock(t *testing.T) (UserRepository, *db.Conn, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	repo, err := NewUserPgRepository(bcrypt.MinCost)
	require.NoError(t, err)
	return repo, &db.Conn{DB: gdb}, mock
}

// bcryptOf matches a driver argument that is a bcrypt hash of plain.
type bcryptOf string

func (p bcryptOf) Match(v driver.Value) bool {
	hash, ok := v.(string)
	if !ok || hash == string(p) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestGetAll_ReturnsProjection(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(selectUsers).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "updated_at"}).
			AddRow(1, "alice", now, now).
			AddRow(2, "bob", now, now))

	users, err := repo.GetAll(conn)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAll_EmptyIsNotNil(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectUsers).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "updated_at"}))

	users, err := repo.GetAll(conn)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestGetAll_DBError(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectUsers).WillReturnError(errors.New("db down"))

	_, err := repo.GetAll(conn)
	assert.ErrorContains(t, err, "db down")
}

func TestInsert_HashesPassword(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(countUsers).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(insertUser).
		WithArgs("alice", bcryptOf("secret123"), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := repo.Insert(conn, entities.NewUserRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_ExistingUsername(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(countUsers).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.Insert(conn, entities.NewUserRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	// no INSERT was issued
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolationRace(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(countUsers).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(insertUser).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "idx_users_username"`})

	err := repo.Insert(conn, entities.NewUserRequest{Username: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestInsert_StoreRejects(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(countUsers).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(insertUser).
		WillReturnError(errors.New("value too long for type character varying(255)"))

	err := repo.Insert(conn, entities.NewUserRequest{Username: "alice", Password: "secret123"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameTaken)
	assert.Contains(t, err.Error(), "value too long")
}

func TestInsert_PasswordTooLong(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(countUsers).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'x'
	}

	err := repo.Insert(conn, entities.NewUserRequest{Username: "alice", Password: string(long)})
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername_Found(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(selectUsers).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "updated_at"}).
			AddRow(7, "alice", now, now))

	user, err := repo.GetByUsername(conn, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectUsers).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "created_at", "updated_at"}))

	user, err := repo.GetByUsername(conn, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetByUsername_DBError(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectUsers).WillReturnError(errors.New("conn reset"))

	user, err := repo.GetByUsername(conn, "alice")
	assert.Nil(t, user)
	assert.ErrorContains(t, err, "conn reset")
}

func TestLogin(t *testing.T) {
	hash := mustHash(t, "secret123")

	tests := []struct {
		name     string
		password string
		rows     *sqlmock.Rows
		wantUser bool
	}{
		{
			name:     "correct password",
			password: "secret123",
			rows:     sqlmock.NewRows([]string{"id", "username", "password"}).AddRow(1, "alice", hash),
			wantUser: true,
		},
		{
			name:     "wrong password",
			password: "wrong",
			rows:     sqlmock.NewRows([]string{"id", "username", "password"}).AddRow(1, "alice", hash),
		},
		{
			name:     "unknown user",
			password: "secret123",
			rows:     sqlmock.NewRows([]string{"id", "username", "password"}),
		},
		{
			name:     "plaintext stored value is not accepted",
			password: "secret123",
			rows:     sqlmock.NewRows([]string{"id", "username", "password"}).AddRow(1, "alice", "secret123"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, conn, mock := newRepoWithMock(t)
			mock.ExpectQuery(selectUsers).WillReturnRows(tt.rows)

			user, err := repo.Login(conn, entities.LoginRequest{Username: "alice", Password: tt.password})
			require.NoError(t, err)
			if !tt.wantUser {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, "alice", user.Username)
			assert.Equal(t, int64(1), user.ID)
		})
	}
}

func TestLogin_DBError(t *testing.T) {
	repo, conn, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectUsers).WillReturnError(errors.New("db down"))

	user, err := repo.Login(conn, entities.LoginRequest{Username: "alice", Password: "x"})
	assert.Nil(t, user)
	assert.Error(t, err)
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, isDuplicateError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isDuplicateError(gorm.ErrDuplicatedKey))
	assert.False(t, isDuplicateError(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isDuplicateError(errors.New("boom")))
}

func TestNewUserPgRepository_PreparesLoginHash(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, 0, bcrypt.MaxCost + 1} {
		repo, err := NewUserPgRepository(cost)
		require.NoError(t, err)

		pg, ok := repo.(*userPgRepository)
		require.True(t, ok)
		assert.NotEmpty(t, pg.dummyHash)
		assert.GreaterOrEqual(t, pg.cost, bcrypt.MinCost)

		hashCost, err := bcrypt.Cost(pg.dummyHash)
		require.NoError(t, err)
		assert.Equal(t, pg.cost, hashCost)
	}
}
