// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/database/schema"
	"github.com/taibuivan/huddle/internal/platform/dberr"
	"github.com/taibuivan/huddle/internal/platform/postgres"
	"github.com/taibuivan/huddle/internal/platform/sec"
)

// resourceAccount names accounts in client-facing errors.
const resourceAccount = "Account"

// # User Repository

// PostgresUserRepository implements [UserRepository] on the users.account table.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

var (
	accountTable   = schema.UserAccount
	accountColumns = strings.Join([]string{
		accountTable.ID, accountTable.Username, accountTable.Password,
		accountTable.Role, accountTable.CreatedAt, accountTable.UpdatedAt,
	}, ", ")
)

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on a duplicate folded username
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	_, key := NormalizeUsername(user.Username)

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accountTable.Table,
		accountTable.ID, accountTable.Username, accountTable.UsernameKey, accountTable.Password,
		accountTable.Role, accountTable.CreatedAt, accountTable.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		user.ID, user.Username, key, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt,
	)
	return dberr.Wrap(err, "Username")
}

// FindByID retrieves a user record by primary key.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, accountColumns, accountTable.Table, accountTable.ID)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}
	return user, nil
}

// FindByUsername looks the account up by its folded username key.
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	_, key := NormalizeUsername(username)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, accountColumns, accountTable.Table, accountTable.UsernameKey)

	user, err := scanUser(repository.pool.QueryRow(context, query, key))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}
	return user, nil
}

// FindByIDs resolves many ids in one round trip.
func (repository *PostgresUserRepository) FindByIDs(context context.Context, ids []string) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1::uuid[])`, accountColumns, accountTable.Table, accountTable.ID)

	rows, err := repository.pool.Query(context, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}
	return users, nil
}

// List returns all accounts ordered by folded username.
func (repository *PostgresUserRepository) List(context context.Context) ([]*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`, accountColumns, accountTable.Table, accountTable.UsernameKey)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}
	return users, nil
}

// CountByRole counts accounts holding role.
func (repository *PostgresUserRepository) CountByRole(context context.Context, role string) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, accountTable.Table, accountTable.Role)

	var count int
	if err := repository.pool.QueryRow(context, query, role).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, resourceAccount)
	}
	return count, nil
}

/*
Update persists the mutable account fields.

Returns:
  - error: apperr.NotFound if the row vanished, apperr.Conflict on a taken
    username or when the last administrator would be demoted
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	_, key := NormalizeUsername(user.Username)
	user.UpdatedAt = time.Now().UTC()

	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6
		WHERE %s = $1`,
		accountTable.Table,
		accountTable.Username, accountTable.UsernameKey, accountTable.Password, accountTable.Role, accountTable.UpdatedAt,
		accountTable.ID,
	)

	return postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if !user.Role.IsAdmin() {
			if err := guardLastAdmin(context, tx, user.ID); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(context, query,
			user.ID, user.Username, key, user.PasswordHash, user.Role, user.UpdatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, "Username")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(resourceAccount)
		}
		return nil
	})
}

/*
Delete removes the account; memberships, likes and sent messages cascade.

Within one transaction it:
 1. locks the groups the account administers and hands each one it solely
    administers to the earliest other member, or deletes it when none is left
 2. refuses to remove the last administrator
 3. decrements the like counters of messages the account liked
 4. deletes the row
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	return postgres.InTx(context, repository.pool, func(tx pgx.Tx) error {
		if err := handOverGroups(context, tx, id); err != nil {
			return err
		}
		if err := guardLastAdmin(context, tx, id); err != nil {
			return err
		}

		message, like := schema.Message, schema.MessageLike

		release := fmt.Sprintf(`
			UPDATE %[1]s SET %[2]s = %[2]s - 1
			WHERE %[3]s IN (SELECT %[5]s FROM %[4]s WHERE %[6]s = $1)`,
			message.Table, message.LikeCount, message.ID,
			like.Table, like.MessageID, like.UserID)

		if _, err := tx.Exec(context, release, id); err != nil {
			return dberr.Wrap(err, resourceAccount)
		}

		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, accountTable.Table, accountTable.ID)

		tag, err := tx.Exec(context, query, id)
		if err != nil {
			return dberr.Wrap(err, resourceAccount)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(resourceAccount)
		}
		return nil
	})
}

// guardLastAdmin locks every administrator row, in id order, and fails when
// id is the only one. Concurrent demotions and deletions queue on these locks.
func guardLastAdmin(context context.Context, tx pgx.Tx, id string) error {
	query := fmt.Sprintf(`SELECT %[1]s::text FROM %[2]s WHERE %[3]s = $1 ORDER BY %[1]s FOR UPDATE`,
		accountTable.ID, accountTable.Table, accountTable.Role)

	rows, err := tx.Query(context, query, string(sec.RoleAdmin))
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}
	admins, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}

	if len(admins) == 1 && admins[0] == id {
		return apperr.Conflict(MsgLastAdministrator)
	}
	return nil
}

// handOverGroups keeps the admin list of every group the account administers
// non-empty once its rows cascade away. Group rows are locked first, the same
// order membership writes use.
func handOverGroups(context context.Context, tx pgx.Tx, id string) error {
	group, admin, member := schema.ChatGroup, schema.GroupAdmin, schema.GroupMember

	administered := fmt.Sprintf(`
		SELECT g.%[1]s::text FROM %[2]s g
		WHERE EXISTS (SELECT 1 FROM %[3]s a WHERE a.%[4]s = g.%[1]s AND a.%[5]s::text = $1)
		ORDER BY g.%[1]s
		FOR UPDATE`,
		group.ID, group.Table, admin.Table, admin.GroupID, admin.UserID)

	rows, err := tx.Query(context, administered, id)
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}
	groupIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}

	countAdmins := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s::text = $1`, admin.Table, admin.GroupID)

	// The earliest member other than the departing account moves to the admin list.
	promote := fmt.Sprintf(`
		WITH heir AS (
			DELETE FROM %[1]s
			WHERE %[2]s::text = $1 AND %[3]s = (
				SELECT min(%[3]s) FROM %[1]s WHERE %[2]s::text = $1 AND %[4]s::text <> $2)
			RETURNING %[2]s, %[4]s
		)
		INSERT INTO %[5]s (%[6]s, %[7]s) SELECT %[2]s, %[4]s FROM heir`,
		member.Table, member.GroupID, member.Seq, member.UserID,
		admin.Table, admin.GroupID, admin.UserID)

	drop := fmt.Sprintf(`DELETE FROM %s WHERE %s::text = $1`, group.Table, group.ID)

	for _, groupID := range groupIDs {
		var admins int
		if err := tx.QueryRow(context, countAdmins, groupID).Scan(&admins); err != nil {
			return dberr.Wrap(err, resourceAccount)
		}
		if admins > 1 {
			continue
		}

		tag, err := tx.Exec(context, promote, groupID, id)
		if err != nil {
			return dberr.Wrap(err, resourceAccount)
		}
		if tag.RowsAffected() > 0 {
			continue
		}

		if _, err := tx.Exec(context, drop, groupID); err != nil {
			return dberr.Wrap(err, resourceAccount)
		}
	}
	return nil
}
