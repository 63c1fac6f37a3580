// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package group

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

// PostgresRepository implements [Repository] on chat.chatgroup with
// chat.groupadmin and chat.groupmember as one row per membership.
//
// Rows rather than array columns keep concurrent adds of different users
// independent: each is its own INSERT guarded by the primary key.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for groups.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	groupTable  = schema.ChatGroup
	adminTable  = schema.GroupAdmin
	memberTable = schema.GroupMember

	// selectGroup hydrates a group with both membership lists in insertion order.
	selectGroup = fmt.Sprintf(`
		SELECT g.%[1]s, g.%[2]s, g.%[3]s, COALESCE(g.%[4]s::text, ''), g.%[5]s,
			COALESCE((SELECT array_agg(a.%[7]s::text ORDER BY a.%[8]s) FROM %[6]s a WHERE a.%[9]s = g.%[1]s), '{}'),
			COALESCE((SELECT array_agg(m.%[11]s::text ORDER BY m.%[12]s) FROM %[10]s m WHERE m.%[13]s = g.%[1]s), '{}')
		FROM %[14]s g`,
		groupTable.ID, groupTable.Name, groupTable.Slug, groupTable.OwnerID, groupTable.CreatedAt,
		adminTable.Table, adminTable.UserID, adminTable.Seq, adminTable.GroupID,
		memberTable.Table, memberTable.UserID, memberTable.Seq, memberTable.GroupID,
		groupTable.Table,
	)
)

func scanGroup(row pgx.Row) (*Group, error) {
	group := &Group{}
	err := row.Scan(&group.ID, &group.Name, &group.Slug, &group.OwnerID, &group.CreatedAt, &group.Admins, &group.Members)
	if err != nil {
		return nil, err
	}
	return group, nil
}

/*
Create inserts the group row and its initial membership in one transaction.

Parameters:
  - context: context.Context
  - group: *Group (built by [New])

Returns:
  - error: apperr.NotFound if a referenced user does not exist
*/
func (repository *PostgresRepository) Create(context context.Context, group *Group) error {
	return postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		insertGroup := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
			groupTable.Table, groupTable.ID, groupTable.Name, groupTable.Slug, groupTable.OwnerID, groupTable.CreatedAt)

		if _, err := tx.Exec(context, insertGroup, group.ID, group.Name, group.Slug, group.OwnerID, group.CreatedAt); err != nil {
			return dberr.Wrap(err, resourceGroup)
		}

		batch := &pgx.Batch{}
		insertAdmin := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, adminTable.Table, adminTable.GroupID, adminTable.UserID)
		for _, userID := range group.Admins {
			batch.Queue(insertAdmin, group.ID, userID)
		}
		insertMember := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, memberTable.Table, memberTable.GroupID, memberTable.UserID)
		for _, userID := range group.Members {
			batch.Queue(insertMember, group.ID, userID)
		}

		results := tx.SendBatch(context, batch)
		for range batch.Len() {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return dberr.Wrap(err, resourceGroup)
			}
		}
		return dberr.Wrap(results.Close(), resourceGroup)
	})
}

// FindByID retrieves a group with its membership.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Group, error) {
	query := selectGroup + fmt.Sprintf(` WHERE g.%s = $1`, groupTable.ID)

	group, err := scanGroup(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceGroup)
	}
	return group, nil
}

// ListForUser returns every group userID participates in, oldest first.
func (repository *PostgresRepository) ListForUser(context context.Context, userID string) ([]*Group, error) {
	query := selectGroup + fmt.Sprintf(`
		WHERE EXISTS (SELECT 1 FROM %[1]s a WHERE a.%[2]s = g.%[5]s AND a.%[3]s = $1)
		   OR EXISTS (SELECT 1 FROM %[4]s m WHERE m.%[6]s = g.%[5]s AND m.%[7]s = $1)
		ORDER BY g.%[8]s, g.%[5]s`,
		adminTable.Table, adminTable.GroupID, adminTable.UserID,
		memberTable.Table, groupTable.ID, memberTable.GroupID, memberTable.UserID,
		groupTable.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, resourceGroup)
	}
	defer rows.Close()

	groups := make([]*Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, dberr.Wrap(err, resourceGroup)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, resourceGroup)
	}
	return groups, nil
}

// lockGroup takes a row lock on the group so membership checks and writes
// inside the transaction see a stable admin list.
func lockGroup(context context.Context, tx pgx.Tx, groupID string) error {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = $1 FOR UPDATE`, groupTable.Table, groupTable.ID)

	var one int
	if err := tx.QueryRow(context, query, groupID).Scan(&one); err != nil {
		return dberr.Wrap(err, resourceGroup)
	}
	return nil
}

// insertMembership adds one membership row; an existing row is a conflict.
func (repository *PostgresRepository) insertMembership(context context.Context, table, groupColumn, userColumn, groupID, userID, conflictMessage string) (*Group, error) {
	err := postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if err := lockGroup(context, tx, groupID); err != nil {
			return err
		}

		insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, groupColumn, userColumn)
		tag, err := tx.Exec(context, insert, groupID, userID)
		if err != nil {
			return dberr.Wrap(err, "User")
		}
		if tag.RowsAffected() == 0 {
			return apperr.Conflict(conflictMessage)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repository.FindByID(context, groupID)
}

func (repository *PostgresRepository) AddMember(context context.Context, groupID, userID string) (*Group, error) {
	return repository.insertMembership(context, memberTable.Table, memberTable.GroupID, memberTable.UserID, groupID, userID, msgAlreadyMember)
}

func (repository *PostgresRepository) AddAdmin(context context.Context, groupID, userID string) (*Group, error) {
	return repository.insertMembership(context, adminTable.Table, adminTable.GroupID, adminTable.UserID, groupID, userID, msgAlreadyAdmin)
}

// RemoveMember deletes the membership row if present.
func (repository *PostgresRepository) RemoveMember(context context.Context, groupID, userID string) (*Group, error) {
	err := postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if err := lockGroup(context, tx, groupID); err != nil {
			return err
		}

		remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s::text = $2`, memberTable.Table, memberTable.GroupID, memberTable.UserID)
		_, err := tx.Exec(context, remove, groupID, userID)
		return dberr.Wrap(err, resourceGroup)
	})
	if err != nil {
		return nil, err
	}
	return repository.FindByID(context, groupID)
}

// RemoveAdmin deletes the admin row unless it is the last one.
func (repository *PostgresRepository) RemoveAdmin(context context.Context, groupID, userID string) (*Group, error) {
	err := postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if err := lockGroup(context, tx, groupID); err != nil {
			return err
		}

		count := fmt.Sprintf(`
			SELECT count(*), count(*) FILTER (WHERE %[2]s::text = $2)
			FROM %[1]s WHERE %[3]s = $1`,
			adminTable.Table, adminTable.UserID, adminTable.GroupID)

		var total, matching int
		if err := tx.QueryRow(context, count, groupID, userID).Scan(&total, &matching); err != nil {
			return dberr.Wrap(err, resourceGroup)
		}
		if matching == 0 {
			return nil
		}
		if total <= 1 {
			return apperr.Conflict(msgLastAdmin)
		}

		remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s::text = $2`, adminTable.Table, adminTable.GroupID, adminTable.UserID)
		_, err := tx.Exec(context, remove, groupID, userID)
		return dberr.Wrap(err, resourceGroup)
	})
	if err != nil {
		return nil, err
	}
	return repository.FindByID(context, groupID)
}

// Delete removes the group; admin, member and message rows cascade.
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, groupTable.Table, groupTable.ID)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, resourceGroup)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceGroup)
	}
	return nil
}
