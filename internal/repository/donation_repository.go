package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/liveflow/donor-service/internal/domain"
)

type donationRepository struct {
	conn pgConn
}

func (r *donationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	donation.ID = ""
	doc, err := encodeDoc(donation)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	const query = `INSERT INTO donations (id, transaction_id, doc) VALUES ($1, $2, $3::jsonb)`
	if _, err := r.conn.db(ctx).Exec(ctx, query, id, donation.TransactionID, doc); err != nil {
		return mapPgError(err)
	}
	donation.ID = id
	return nil
}

func (r *donationRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Donation, error) {
	rows, err := r.conn.db(ctx).Query(ctx, `SELECT id::text, doc FROM donations WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return nil, err
	}
	donations, err := collectDocs(rows, setDonationID)
	if err != nil {
		return nil, err
	}
	if len(donations) == 0 {
		return nil, ErrNotFound
	}
	return &donations[0], nil
}

func (r *donationRepository) List(ctx context.Context) ([]domain.Donation, error) {
	rows, err := r.conn.db(ctx).Query(ctx, `SELECT id::text, doc FROM donations ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return collectDocs(rows, setDonationID)
}

func (r *donationRepository) TotalAmount(ctx context.Context) (float64, error) {
	var total float64
	const query = `SELECT COALESCE(SUM((doc->>'amount')::numeric), 0)::float8 FROM donations`
	err := r.conn.db(ctx).QueryRow(ctx, query).Scan(&total)
	return total, err
}

func setDonationID(d *domain.Donation, id string) { d.ID = id }
