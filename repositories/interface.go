package repositories

import (
	"users-server/db"
	"users-server/entities"
)

// UserRepository operates on the users table through a borrowed connection.
type UserRepository interface {
	GetAll(conn *db.Conn) ([]entities.UserResponse, error)
	Insert(conn *db.Conn, req entities.NewUserRequest) error
	// GetByUsername returns nil, nil when no row matches.
	GetByUsername(conn *db.Conn, username string) (*entities.UserResponse, error)
	// Login returns nil, nil when the username is unknown or the password
	// does not match.
	Login(conn *db.Conn, req entities.LoginRequest) (*entities.UserResponse, error)
}
