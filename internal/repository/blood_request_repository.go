package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/liveflow/donor-service/internal/domain"
)

type bloodRequestRepository struct {
	conn pgConn
}

func (r *bloodRequestRepository) Create(ctx context.Context, req *domain.BloodRequest) error {
	req.ID = ""
	doc, err := encodeDoc(req)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	const query = `
        INSERT INTO blood_requests (id, registerer_email, request_time, doc)
        VALUES ($1, $2, $3, $4::jsonb)`
	if _, err := r.conn.db(ctx).Exec(ctx, query, id, req.RegistererEmail, req.RequestTime, doc); err != nil {
		return mapPgError(err)
	}
	req.ID = id
	return nil
}

func (r *bloodRequestRepository) GetByID(ctx context.Context, id string) (*domain.BloodRequest, error) {
	key, err := parseUUID(id)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn.db(ctx).Query(ctx, `SELECT id::text, doc FROM blood_requests WHERE id = $1`, key)
	if err != nil {
		return nil, err
	}
	reqs, err := collectDocs(rows, setRequestID)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNotFound
	}
	return &reqs[0], nil
}

func (r *bloodRequestRepository) List(ctx context.Context, filter BloodRequestFilter) ([]domain.BloodRequest, error) {
	var w whereBuilder
	w.eq("registerer_email", filter.RegistererEmail)
	w.eq("doc->>'bloodGroup'", filter.BloodGroup)
	w.eq("doc->>'status'", string(filter.Status))

	query := `SELECT id::text, doc FROM blood_requests` + w.sql()
	if filter.NewestFirst {
		query += ` ORDER BY request_time DESC`
	} else {
		query += ` ORDER BY seq`
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := r.conn.db(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collectDocs(rows, setRequestID)
}

func (r *bloodRequestRepository) Update(ctx context.Context, id string, expected domain.RequestStatus, patch Patch) (UpdateResult, error) {
	key, err := parseUUID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	if expected == "" {
		return r.conn.mergePatch(ctx, "blood_requests", "id = $1", patch, key)
	}
	return r.conn.mergePatch(ctx, "blood_requests", "id = $1 AND doc->>'status' = $2", patch, key, string(expected))
}

func (r *bloodRequestRepository) Delete(ctx context.Context, id string) (int64, error) {
	key, err := parseUUID(id)
	if err != nil {
		return 0, err
	}
	tag, err := r.conn.db(ctx).Exec(ctx, `DELETE FROM blood_requests WHERE id = $1`, key)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *bloodRequestRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.db(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM blood_requests`).Scan(&n)
	return n, err
}

func setRequestID(req *domain.BloodRequest, id string) { req.ID = id }
