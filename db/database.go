package db

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Database is the shared pool handle passed to the server and use cases.
type Database interface {
	// Acquire borrows one connection from the pool for exclusive use.
	// Callers must Release it.
	Acquire(ctx context.Context) (*Conn, error)
	Ping(ctx context.Context) error
}

var _ Database = (*GormDatabase)(nil)

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) Acquire(ctx context.Context) (*Conn, error) {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	raw, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	tx := g.DB.Session(&gorm.Session{NewDB: true, Context: ctx})
	tx.Statement.ConnPool = raw

	return &Conn{DB: tx, raw: raw}, nil
}

func (g *GormDatabase) Ping(ctx context.Context) error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Conn is a gorm session pinned to a single pooled connection.
type Conn struct {
	DB  *gorm.DB
	raw *sql.Conn
}

// Release returns the connection to the pool. Safe to call more than once.
func (c *Conn) Release() error {
	if c == nil || c.raw == nil {
		return nil
	}
	err := c.raw.Close()
	c.raw = nil
	return err
}
