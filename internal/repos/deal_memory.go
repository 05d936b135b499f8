package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

// memoryDealRepo is the non-durable DealRepo used when no Postgres client is
// configured, and by tests. Records are deep-copied on the way in and out so
// callers can never alias stored state; all mutations run under the lock,
// which gives the same no-lost-update guarantee the durable implementation
// gets from single-statement jsonb writes.
type memoryDealRepo struct {
	mu    sync.RWMutex
	log   *logger.Logger
	deals map[string]*types.DealRecord
}

func NewMemoryDealRepo(baseLog *logger.Logger) DealRepo {
	repoLog := baseLog.With("repo", "MemoryDealRepo")
	return &memoryDealRepo{
		log:   repoLog,
		deals: make(map[string]*types.DealRecord),
	}
}

func (r *memoryDealRepo) Upsert(ctx context.Context, tx *gorm.DB, dealID string, record *types.DealRecord) error {
	clone, err := cloneRecord(record)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deals[dealID] = clone
	return nil
}

func (r *memoryDealRepo) Get(ctx context.Context, tx *gorm.DB, dealID string) (*types.DealRecord, error) {
	r.mu.RLock()
	record, ok := r.deals[dealID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return cloneRecord(record)
}

func (r *memoryDealRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.DealRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]*types.DealRecord, 0, len(r.deals))
	for _, record := range r.deals {
		clone, err := cloneRecord(record)
		if err != nil {
			return nil, err
		}
		records = append(records, clone)
	}
	return records, nil
}

func (r *memoryDealRepo) Delete(ctx context.Context, tx *gorm.DB, dealID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deals, dealID)
	return nil
}

func (r *memoryDealRepo) AppendChatMessage(ctx context.Context, tx *gorm.DB, dealID string, msg types.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.deals[dealID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	record.FounderChat = append(record.FounderChat, msg)
	return nil
}

func (r *memoryDealRepo) SetInvite(ctx context.Context, tx *gorm.DB, dealID string, invite types.FounderInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.deals[dealID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inviteCopy := invite
	record.FounderInvite = &inviteCopy
	return nil
}

func cloneRecord(record *types.DealRecord) (*types.DealRecord, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("clone deal record: %w", err)
	}
	clone := &types.DealRecord{}
	if err := json.Unmarshal(payload, clone); err != nil {
		return nil, fmt.Errorf("clone deal record: %w", err)
	}
	return clone, nil
}
