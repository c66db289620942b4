package postgres

import (
	"context"

	"github.com/geocoder89/todohub/internal/domain/user"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, role, is_active, phone_number, created_at, updated_at`

type UsersRepo struct {
	db  DBTX
	obs DBObserver
}

func NewUsersRepo(db DBTX, obs DBObserver) *UsersRepo {
	return &UsersRepo{db: db, obs: obs}
}

func scanUser(row scanner) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.PhoneNumber,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

// getOne runs a single-row user query; a missing row comes back as user.ErrNotFound.
func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var (
		u        user.User
		notFound bool
	)

	err := observe(r.obs, op, func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx, query, args...))
		if isNoRow(err) {
			notFound = true
			return nil
		}
		return err
	})

	if err != nil {
		return user.User{}, err
	}
	if notFound {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_username",
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := observe(r.obs, "users.list", func() error {
		rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := observe(r.obs, "users.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
			u.Role, u.IsActive, u.PhoneNumber, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrAlreadyExists
		}
		return user.User{}, err
	}

	return u, nil
}

// Update overwrites every mutable column of the user with u.ID.
func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	updated, err := r.getOne(ctx, "users.update",
		`UPDATE users
			SET username = $2,
				email = $3,
				first_name = $4,
				last_name = $5,
				password_hash = $6,
				role = $7,
				is_active = $8,
				phone_number = $9,
				updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.Role, u.IsActive, u.PhoneNumber,
	)

	if err != nil && isUniqueViolation(err) {
		return user.User{}, user.ErrAlreadyExists
	}
	return updated, err
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := observe(r.obs, "users.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if isNoRow(err) {
			return nil
		}
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}
