package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/liveflow/donor-service/internal/domain"
)

type deletedRequestRepository struct {
	conn pgConn
}

func (r *deletedRequestRepository) Create(ctx context.Context, archived *domain.DeletedBloodRequest) error {
	if archived.DeletedAt.IsZero() {
		archived.DeletedAt = time.Now().UTC()
	}
	archived.ID = ""
	doc, err := encodeDoc(archived)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	const query = `INSERT INTO deleted_blood_requests (id, original_id, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.conn.db(ctx).Exec(ctx, query, id, archived.OriginalID, doc); err != nil {
		return mapPgError(err)
	}
	archived.ID = id
	return nil
}

func (r *deletedRequestRepository) List(ctx context.Context) ([]domain.DeletedBloodRequest, error) {
	rows, err := r.conn.db(ctx).Query(ctx, `SELECT id::text, doc FROM deleted_blood_requests ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return collectDocs(rows, func(d *domain.DeletedBloodRequest, id string) { d.ID = id })
}
