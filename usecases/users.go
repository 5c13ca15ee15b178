package usecases

import (
	"context"
	"errors"

	"users-server/apperrors"
	"users-server/db"
	"users-server/entities"
	"users-server/repositories"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgInsertFailed      = "insert failed"
	msgInvalidCredential = "Invalid username and/or password"
)

// UserUseCase borrows one connection per call and runs exactly one
// repository operation on it.
type UserUseCase struct {
	db   db.Database
	repo repositories.UserRepository
}

func NewUserUseCase(database db.Database, repo repositories.UserRepository) *UserUseCase {
	return &UserUseCase{
		db:   database,
		repo: repo,
	}
}

func (uc *UserUseCase) acquire(ctx context.Context) (*db.Conn, error) {
	conn, err := uc.db.Acquire(ctx)
	if err != nil {
		return nil, apperrors.Internal().WithCause(err)
	}
	return conn, nil
}

// ListUsers returns every user; never nil.
func (uc *UserUseCase) ListUsers(ctx context.Context) ([]entities.UserResponse, error) {
	conn, err := uc.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	users, err := uc.repo.GetAll(conn)
	if err != nil {
		return nil, apperrors.Internal().WithCause(err)
	}
	if users == nil {
		users = []entities.UserResponse{}
	}
	return users, nil
}

// CreateUser inserts the user and reads it back.
func (uc *UserUseCase) CreateUser(ctx context.Context, req entities.NewUserRequest) (*entities.UserResponse, error) {
	conn, err := uc.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if err := uc.repo.Insert(conn, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUsernameTaken):
			return nil, apperrors.BadRequest(repositories.ErrUsernameTaken.Error())
		case errors.Is(err, bcrypt.ErrPasswordTooLong):
			return nil, apperrors.BadRequest("password must be at most 72 bytes")
		default:
			return nil, apperrors.BadRequest(err.Error()).WithCause(err)
		}
	}

	user, err := uc.repo.GetByUsername(conn, req.Username)
	if err != nil || user == nil {
		return nil, apperrors.BadRequest(msgInsertFailed).WithCause(err)
	}
	return user, nil
}

// FindUser returns nil, nil when no user has that name.
func (uc *UserUseCase) FindUser(ctx context.Context, username string) (*entities.UserResponse, error) {
	conn, err := uc.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	user, err := uc.repo.GetByUsername(conn, username)
	if err != nil {
		return nil, apperrors.Internal().WithCause(err)
	}
	return user, nil
}

// Login never tells an unknown username apart from a wrong password.
func (uc *UserUseCase) Login(ctx context.Context, req entities.LoginRequest) (*entities.UserResponse, error) {
	conn, err := uc.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	user, err := uc.repo.Login(conn, req)
	if err != nil {
		return nil, apperrors.Internal().WithCause(err)
	}
	if user == nil {
		return nil, apperrors.Forbidden(msgInvalidCredential)
	}
	return user, nil
}
