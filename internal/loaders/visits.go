package loaders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type Visit struct {
	ID       int64
	Name     string
	Date     time.Time
	Type     string
	SiteName string
}

const visitColumns = `v.id, v.visit_name, v.visit_date, COALESCE(v.visit_type, ''), COALESCE(s.name_english, '')`

func (c *PostgresClient) GetUpcomingVisits(ctx context.Context, after time.Time, limit int) ([]Visit, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT ` + visitColumns + `
		FROM visits v
		LEFT JOIN sites s ON s.id = v.site_id
		WHERE v.visit_date > $1
		ORDER BY v.visit_date
		LIMIT $2
	`

	rows, err := c.pool.Query(ctx, query, after.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.Name, &v.Date, &v.Type, &v.SiteName); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read visits: %w", err)
	}
	return visits, nil
}

func (c *PostgresClient) GetVisit(ctx context.Context, visitID int64) (*Visit, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + visitColumns + `
		FROM visits v
		LEFT JOIN sites s ON s.id = v.site_id
		WHERE v.id = $1
	`

	var v Visit
	err := c.pool.QueryRow(ctx, query, visitID).Scan(&v.ID, &v.Name, &v.Date, &v.Type, &v.SiteName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("visit %d: %w", visitID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &v, nil
}

var userKeyStrip = regexp.MustCompile(`(?i)[^a-z0-9@.]+`)

// UserKey derives the users.user_id natural key from a name and email.
func UserKey(name, email string) string {
	return userKeyStrip.ReplaceAllString(strings.ToLower(name)+strings.ToLower(email), "")
}

// RegisterVisitor upserts the visitor by user key and links them to the visit.
func (c *PostgresClient) RegisterVisitor(ctx context.Context, visitID int64, name, email string) error {
	if err := c.ready(); err != nil {
		return err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var userID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO users (name, email, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, name, email, UserKey(name, email)).Scan(&userID)
	if err != nil {
		return fmt.Errorf("failed to upsert visitor: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO visit_users (visit_id, user_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`, visitID, userID)
	if err != nil {
		return fmt.Errorf("failed to link visitor to visit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit visitor registration: %w", err)
	}
	return nil
}
