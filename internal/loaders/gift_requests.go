package loaders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GiftRequestUser is one recipient row of a gift request.
type GiftRequestUser struct {
	ID             int64
	Recipient      int64
	RecipientName  string
	RecipientEmail string
	RecipientPhone string
}

type GiftCardRequest struct {
	ID        int64
	GiftedOn  string // YYYY-MM-DD, empty when unset
	PlantedBy string
	EventName string
	EventType string
}

func (c *PostgresClient) GetGiftRequestUsers(ctx context.Context, giftRequestID int64) ([]GiftRequestUser, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := `
		SELECT gru.id, gru.recipient, u.name, u.email, COALESCE(u.phone, '')
		FROM gift_request_users gru
		JOIN users u ON u.id = gru.recipient
		WHERE gru.gift_request_id = $1
		ORDER BY gru.id
	`

	rows, err := c.pool.Query(ctx, query, giftRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gift request users: %w", err)
	}
	defer rows.Close()

	var users []GiftRequestUser
	for rows.Next() {
		var u GiftRequestUser
		if err := rows.Scan(&u.ID, &u.Recipient, &u.RecipientName, &u.RecipientEmail, &u.RecipientPhone); err != nil {
			return nil, fmt.Errorf("failed to scan gift request user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gift request users: %w", err)
	}
	return users, nil
}

func (c *PostgresClient) GetGiftCardRequest(ctx context.Context, giftRequestID int64) (*GiftCardRequest, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := `
		SELECT id, gifted_on, COALESCE(planted_by, ''), COALESCE(event_name, ''), COALESCE(event_type, '')
		FROM gift_card_requests
		WHERE id = $1
	`

	var (
		gr       GiftCardRequest
		giftedOn *time.Time
	)
	err := c.pool.QueryRow(ctx, query, giftRequestID).Scan(&gr.ID, &giftedOn, &gr.PlantedBy, &gr.EventName, &gr.EventType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("gift card request %d: %w", giftRequestID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift card request: %w", err)
	}
	if giftedOn != nil {
		gr.GiftedOn = giftedOn.Format(time.DateOnly)
	}
	return &gr, nil
}
