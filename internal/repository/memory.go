package repository

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liveflow/donor-service/internal/domain"
)

// NewMemoryStore returns an in-process Store. Documents keep insertion order and
// identifiers are UUIDs. It has no transactions: WithinTransaction runs fn as-is.
func NewMemoryStore() Store {
	return Store{
		Users:     &memoryUsers{c: newMemCollection("email")},
		Requests:  &memoryRequests{c: newMemCollection("")},
		Deleted:   &memoryDeleted{c: newMemCollection("originalId")},
		Donations: &memoryDonations{c: newMemCollection("transactionId")},
		Tx:        memoryTransactor{},
	}
}

type memoryTransactor struct{}

func (memoryTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type document = map[string]any

// memCollection holds JSON-shaped documents so merge patches behave the way
// they do against a document database.
type memCollection struct {
	mu     sync.RWMutex
	docs   map[string]document
	order  []string
	unique string
}

func newMemCollection(unique string) *memCollection {
	return &memCollection{docs: make(map[string]document), unique: unique}
}

func (c *memCollection) insert(v any) (string, error) {
	doc, err := toDocument(v)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	doc["_id"] = id

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unique != "" {
		for _, existing := range c.docs {
			if reflect.DeepEqual(existing[c.unique], doc[c.unique]) {
				return "", ErrDuplicate
			}
		}
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
	return id, nil
}

func (c *memCollection) find(match func(document) bool) []document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]document, 0)
	for _, id := range c.order {
		doc, ok := c.docs[id]
		if !ok || (match != nil && !match(doc)) {
			continue
		}
		out = append(out, copyDocument(doc))
	}
	return out
}

func (c *memCollection) update(match func(document) bool, patch Patch) (UpdateResult, error) {
	normalized, err := toDocument(map[string]any(patch))
	if err != nil {
		return UpdateResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.order {
		doc, ok := c.docs[id]
		if !ok || !match(doc) {
			continue
		}
		res := UpdateResult{Matched: 1}
		for field, value := range normalized {
			if !reflect.DeepEqual(doc[field], value) {
				doc[field] = value
				res.Modified = 1
			}
		}
		return res, nil
	}
	return UpdateResult{}, nil
}

func (c *memCollection) delete(id string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return 0
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return 1
}

func (c *memCollection) count() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.docs))
}

func toDocument(v any) (document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc document, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func copyDocument(doc document) document {
	out := make(document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func fieldEquals(doc document, field, want string) bool {
	got, _ := doc[field].(string)
	return got == want
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func decodeAll[T any](docs []document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := fromDocument(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

type memoryUsers struct {
	c *memCollection
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	id, err := r.c.insert(user)
	if err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	docs := r.c.find(func(doc document) bool { return fieldEquals(doc, "email", email) })
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var user domain.User
	if err := fromDocument(docs[0], &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *memoryUsers) List(_ context.Context, filter UserFilter) ([]domain.User, error) {
	docs := r.c.find(func(doc document) bool {
		return (filter.Status == "" || fieldEquals(doc, "status", string(filter.Status))) &&
			(filter.BloodGroup == "" || fieldEquals(doc, "bloodGroup", filter.BloodGroup)) &&
			(filter.District == "" || fieldEquals(doc, "district", filter.District)) &&
			(filter.Upazila == "" || fieldEquals(doc, "upazila", filter.Upazila))
	})
	return decodeAll[domain.User](docs)
}

func (r *memoryUsers) Update(_ context.Context, email string, patch Patch) (UpdateResult, error) {
	return r.c.update(func(doc document) bool { return fieldEquals(doc, "email", email) }, patch)
}

func (r *memoryUsers) Count(context.Context) (int64, error) {
	return r.c.count(), nil
}

type memoryRequests struct {
	c *memCollection
}

func (r *memoryRequests) Create(_ context.Context, req *domain.BloodRequest) error {
	id, err := r.c.insert(req)
	if err != nil {
		return err
	}
	req.ID = id
	return nil
}

func (r *memoryRequests) GetByID(_ context.Context, id string) (*domain.BloodRequest, error) {
	if !validUUID(id) {
		return nil, ErrMalformedID
	}
	docs := r.c.find(func(doc document) bool { return fieldEquals(doc, "_id", id) })
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var req domain.BloodRequest
	if err := fromDocument(docs[0], &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *memoryRequests) List(_ context.Context, filter BloodRequestFilter) ([]domain.BloodRequest, error) {
	docs := r.c.find(func(doc document) bool {
		return (filter.RegistererEmail == "" || fieldEquals(doc, "registererEmail", filter.RegistererEmail)) &&
			(filter.BloodGroup == "" || fieldEquals(doc, "bloodGroup", filter.BloodGroup)) &&
			(filter.Status == "" || fieldEquals(doc, "status", string(filter.Status)))
	})
	items, err := decodeAll[domain.BloodRequest](docs)
	if err != nil {
		return nil, err
	}
	if filter.NewestFirst {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].RequestTime.After(items[j].RequestTime)
		})
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (r *memoryRequests) Update(_ context.Context, id string, expected domain.RequestStatus, patch Patch) (UpdateResult, error) {
	if !validUUID(id) {
		return UpdateResult{}, ErrMalformedID
	}
	return r.c.update(func(doc document) bool {
		return fieldEquals(doc, "_id", id) && (expected == "" || fieldEquals(doc, "status", string(expected)))
	}, patch)
}

func (r *memoryRequests) Delete(_ context.Context, id string) (int64, error) {
	if !validUUID(id) {
		return 0, ErrMalformedID
	}
	return r.c.delete(id), nil
}

func (r *memoryRequests) Count(context.Context) (int64, error) {
	return r.c.count(), nil
}

type memoryDeleted struct {
	c *memCollection
}

func (r *memoryDeleted) Create(_ context.Context, archived *domain.DeletedBloodRequest) error {
	if archived.DeletedAt.IsZero() {
		archived.DeletedAt = time.Now().UTC()
	}
	id, err := r.c.insert(archived)
	if err != nil {
		return err
	}
	archived.ID = id
	return nil
}

func (r *memoryDeleted) List(context.Context) ([]domain.DeletedBloodRequest, error) {
	return decodeAll[domain.DeletedBloodRequest](r.c.find(nil))
}

type memoryDonations struct {
	c *memCollection
}

func (r *memoryDonations) Create(_ context.Context, donation *domain.Donation) error {
	id, err := r.c.insert(donation)
	if err != nil {
		return err
	}
	donation.ID = id
	return nil
}

func (r *memoryDonations) GetByTransactionID(_ context.Context, transactionID string) (*domain.Donation, error) {
	docs := r.c.find(func(doc document) bool { return fieldEquals(doc, "transactionId", transactionID) })
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var donation domain.Donation
	if err := fromDocument(docs[0], &donation); err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *memoryDonations) List(context.Context) ([]domain.Donation, error) {
	return decodeAll[domain.Donation](r.c.find(nil))
}

func (r *memoryDonations) TotalAmount(ctx context.Context) (float64, error) {
	donations, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, d := range donations {
		total += d.Amount
	}
	return total, nil
}
