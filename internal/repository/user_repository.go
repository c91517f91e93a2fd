package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/liveflow/donor-service/internal/domain"
)

type userRepository struct {
	conn pgConn
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.ID = ""
	doc, err := encodeDoc(user)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	const query = `INSERT INTO users (id, email, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.conn.db(ctx).Exec(ctx, query, id, user.Email, doc); err != nil {
		return mapPgError(err)
	}
	user.ID = id
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id::text, doc FROM users WHERE email = $1`
	rows, err := r.conn.db(ctx).Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	users, err := collectDocs(rows, setUserID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	var w whereBuilder
	w.eq("doc->>'status'", string(filter.Status))
	w.eq("doc->>'bloodGroup'", filter.BloodGroup)
	w.eq("doc->>'district'", filter.District)
	w.eq("doc->>'upazila'", filter.Upazila)

	rows, err := r.conn.db(ctx).Query(ctx, `SELECT id::text, doc FROM users`+w.sql()+` ORDER BY seq`, w.args...)
	if err != nil {
		return nil, err
	}
	return collectDocs(rows, setUserID)
}

func (r *userRepository) Update(ctx context.Context, email string, patch Patch) (UpdateResult, error) {
	return r.conn.mergePatch(ctx, "users", "email = $1", patch, email)
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func setUserID(u *domain.User, id string) { u.ID = id }
