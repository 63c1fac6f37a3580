// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/database/schema"
	"github.com/taibuivan/huddle/internal/platform/dberr"
	"github.com/taibuivan/huddle/internal/platform/postgres"
)

// # Repository Implementation

// PostgresRepository implements [Repository] on chat.message, with one
// chat.messagelike row per like.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for messages.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// rowQuerier is satisfied by both the pool and a transaction.
type rowQuerier interface {
	QueryRow(context context.Context, sql string, args ...any) pgx.Row
}

var (
	messageTable = schema.Message
	likeTable    = schema.MessageLike

	selectMessage = fmt.Sprintf(`
		SELECT m.%[1]s, m.%[2]s, m.%[3]s, m.%[4]s, m.%[5]s, m.%[6]s,
			COALESCE((SELECT array_agg(l.%[8]s::text ORDER BY l.%[9]s, l.%[8]s) FROM %[7]s l WHERE l.%[10]s = m.%[1]s), '{}')
		FROM %[11]s m`,
		messageTable.ID, messageTable.GroupID, messageTable.SenderID, messageTable.Text,
		messageTable.LikeCount, messageTable.CreatedAt,
		likeTable.Table, likeTable.UserID, likeTable.LikedAt, likeTable.MessageID,
		messageTable.Table,
	)
)

func scanMessage(row pgx.Row) (*Message, error) {
	message := &Message{}
	err := row.Scan(&message.ID, &message.GroupID, &message.SenderID, &message.Text,
		&message.LikeCount, &message.CreatedAt, &message.Likes)
	if err != nil {
		return nil, err
	}
	return message, nil
}

func findByID(context context.Context, db rowQuerier, id string) (*Message, error) {
	query := selectMessage + fmt.Sprintf(` WHERE m.%s = $1`, messageTable.ID)

	message, err := scanMessage(db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceMessage)
	}
	return message, nil
}

// Create inserts a message with an empty like set.
func (repository *PostgresRepository) Create(context context.Context, message *Message) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, 0, $5)`,
		messageTable.Table, messageTable.ID, messageTable.GroupID, messageTable.SenderID,
		messageTable.Text, messageTable.LikeCount, messageTable.CreatedAt)

	_, err := repository.pool.Exec(context, query, message.ID, message.GroupID, message.SenderID, message.Text, message.CreatedAt)
	return dberr.Wrap(err, "Group")
}

func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Message, error) {
	return findByID(context, repository.pool, id)
}

/*
ListByGroup returns all messages of a group with their likes.

Parameters:
  - groupID: string
  - order: Order (ties broken by id in the same direction)

Returns:
  - []*Message: never nil
*/
func (repository *PostgresRepository) ListByGroup(context context.Context, groupID string, order Order) ([]*Message, error) {
	direction := "ASC"
	if order == OrderDesc {
		direction = "DESC"
	}

	query := selectMessage + fmt.Sprintf(` WHERE m.%[1]s = $1 ORDER BY m.%[2]s %[4]s, m.%[3]s %[4]s`,
		messageTable.GroupID, messageTable.CreatedAt, messageTable.ID, direction)

	rows, err := repository.pool.Query(context, query, groupID)
	if err != nil {
		return nil, dberr.Wrap(err, resourceMessage)
	}
	defer rows.Close()

	messages := make([]*Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceMessage)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceMessage)
	}
	return messages, nil
}

// lockMessage takes the row lock that serializes like changes on one message.
func lockMessage(context context.Context, tx pgx.Tx, id string) error {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = $1 FOR UPDATE`, messageTable.Table, messageTable.ID)

	var one int
	if err := tx.QueryRow(context, query, id).Scan(&one); err != nil {
		return dberr.Wrap(err, resourceMessage)
	}
	return nil
}

// removeLike deletes the like row and decrements the counter when a row went away.
func removeLike(context context.Context, tx pgx.Tx, id, userID string) (bool, error) {
	remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s::text = $2`,
		likeTable.Table, likeTable.MessageID, likeTable.UserID)

	tag, err := tx.Exec(context, remove, id, userID)
	if err != nil {
		return false, dberr.Wrap(err, resourceMessage)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	decrement := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = %[2]s - 1 WHERE %[3]s = $1`,
		messageTable.Table, messageTable.LikeCount, messageTable.ID)
	if _, err := tx.Exec(context, decrement, id); err != nil {
		return false, dberr.Wrap(err, resourceMessage)
	}
	return true, nil
}

/*
ToggleLike flips a like inside one transaction.

Description: The message row is locked first, so concurrent toggles on the
same message run one after another. The like row and the counter change in
the same transaction and commit together.
*/
func (repository *PostgresRepository) ToggleLike(context context.Context, id, userID string) (*Message, bool, error) {
	var (
		result *Message
		liked  bool
	)

	err := postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if err := lockMessage(context, tx, id); err != nil {
			return err
		}

		removed, err := removeLike(context, tx, id, userID)
		if err != nil {
			return err
		}

		if !removed {
			insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, likeTable.Table, likeTable.MessageID, likeTable.UserID)
			if _, err := tx.Exec(context, insert, id, userID); err != nil {
				return dberr.Wrap(err, "User")
			}

			increment := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = %[2]s + 1 WHERE %[3]s = $1`,
				messageTable.Table, messageTable.LikeCount, messageTable.ID)
			if _, err := tx.Exec(context, increment, id); err != nil {
				return dberr.Wrap(err, resourceMessage)
			}
			liked = true
		}

		result, err = findByID(context, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return result, liked, nil
}

// Unlike removes an existing like; a missing like is a conflict.
func (repository *PostgresRepository) Unlike(context context.Context, id, userID string) (*Message, error) {
	var result *Message

	err := postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if err := lockMessage(context, tx, id); err != nil {
			return err
		}

		removed, err := removeLike(context, tx, id, userID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.Conflict(msgNotLiked)
		}

		result, err = findByID(context, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
