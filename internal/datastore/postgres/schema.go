package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema is the DDL the repository queries are written against.
//
//go:embed schema.sql
var Schema string

// ApplySchema creates every table on an empty database.
func (c *Client) ApplySchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
