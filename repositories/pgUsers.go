package repositories

import (
	"errors"
	"fmt"

	"users-server/db"
	"users-server/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrUsernameTaken = errors.New("username already exists")

const uniqueViolation = "23505"

var responseColumns = []string{"id", "username", "created_at", "updated_at"}

type userPgRepository struct {
	cost int
	// compared against when the username is unknown so both login failures
	// cost one bcrypt verification
	dummyHash []byte
}

func NewUserPgRepository(cost int) (UserRepository, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("users-server/login"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare login hash: %w", err)
	}
	return &userPgRepository{cost: cost, dummyHash: dummy}, nil
}

func (r *userPgRepository) GetAll(conn *db.Conn) ([]entities.UserResponse, error) {
	users := make([]entities.UserResponse, 0)
	err := conn.DB.Model(&entities.User{}).Select(responseColumns).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userPgRepository) Insert(conn *db.Conn, req entities.NewUserRequest) error {
	var count int64
	err := conn.DB.Model(&entities.User{}).Where("username = ?", req.Username).Count(&count).Error
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := entities.User{Username: req.Username, Password: string(hash)}
	if err := conn.DB.Create(&user).Error; err != nil {
		if isDuplicateError(err) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (r *userPgRepository) GetByUsername(conn *db.Conn, username string) (*entities.UserResponse, error) {
	var user entities.UserResponse
	err := conn.DB.Model(&entities.User{}).
		Select(responseColumns).
		Where("username = ?", username).
		Take(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find user: %w", err)
	default:
		return &user, nil
	}
}

func (r *userPgRepository) Login(conn *db.Conn, req entities.LoginRequest) (*entities.UserResponse, error) {
	var user entities.User
	err := conn.DB.Where("username = ?", req.Username).Take(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_ = bcrypt.CompareHashAndPassword(r.dummyHash, []byte(req.Password))
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil
	}

	res := user.Response()
	return &res, nil
}

func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
