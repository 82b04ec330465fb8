package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"placement-storefront/storage"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS storefront_kv (
	profile_id  VARCHAR(64)  NOT NULL,
	storage_key VARCHAR(64)  NOT NULL,
	value       MEDIUMBLOB   NOT NULL,
	updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (profile_id, storage_key)
)`

// EnsureSchema creates the profile key-value table when it is missing.
func (c *Connection) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, createKVTable); err != nil {
		return fmt.Errorf("failed to create storefront_kv table: %w", err)
	}
	return nil
}

// KVPersister keeps profile-scoped values in MySQL.
type KVPersister struct {
	conn *Connection
}

func NewKVPersister(conn *Connection) *KVPersister {
	return &KVPersister{conn: conn}
}

func (p *KVPersister) Load(ctx context.Context, scope, key string) ([]byte, error) {
	var value []byte
	err := p.conn.db.QueryRowContext(ctx, `
		SELECT value FROM storefront_kv
		WHERE profile_id = ? AND storage_key = ?
	`, scope, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading %s for profile: %w", key, err)
	}
	return value, nil
}

func (p *KVPersister) Save(ctx context.Context, scope, key string, value []byte) error {
	_, err := p.conn.db.ExecContext(ctx, `
		INSERT INTO storefront_kv (profile_id, storage_key, value, updated_at)
		VALUES (?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = NOW()
	`, scope, key, value)
	if err != nil {
		return fmt.Errorf("error saving %s for profile: %w", key, err)
	}
	return nil
}

func (p *KVPersister) Delete(ctx context.Context, scope, key string) error {
	_, err := p.conn.db.ExecContext(ctx, `
		DELETE FROM storefront_kv
		WHERE profile_id = ? AND storage_key = ?
	`, scope, key)
	if err != nil {
		return fmt.Errorf("error deleting %s for profile: %w", key, err)
	}
	return nil
}

func (p *KVPersister) Ping(ctx context.Context) error {
	return p.conn.Ping(ctx)
}
