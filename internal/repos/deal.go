package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

// DealRepo persists DealRecord aggregates keyed by deal id. Get returns
// (nil, nil) for an unknown id; existence policy lives in the service layer.
// AppendChatMessage and SetInvite must be atomic with respect to concurrent
// writers on the same deal id.
type DealRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, dealID string, record *types.DealRecord) error
	Get(ctx context.Context, tx *gorm.DB, dealID string) (*types.DealRecord, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.DealRecord, error)
	Delete(ctx context.Context, tx *gorm.DB, dealID string) error
	AppendChatMessage(ctx context.Context, tx *gorm.DB, dealID string, msg types.ChatMessage) error
	SetInvite(ctx context.Context, tx *gorm.DB, dealID string, invite types.FounderInvite) error
}

type dealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDealRepo(db *gorm.DB, baseLog *logger.Logger) DealRepo {
	repoLog := baseLog.With("repo", "DealRepo")
	return &dealRepo{db: db, log: repoLog}
}

func (r *dealRepo) Upsert(ctx context.Context, tx *gorm.DB, dealID string, record *types.DealRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row, err := recordToRow(dealID, record)
	if err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("upsert deal %s: %w", dealID, err)
	}
	return nil
}

func (r *dealRepo) Get(ctx context.Context, tx *gorm.DB, dealID string) (*types.DealRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.DealRow
	if err := transaction.WithContext(ctx).
		Where("deal_id = ?", dealID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deal %s: %w", dealID, err)
	}
	return rowToRecord(&row)
}

func (r *dealRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.DealRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.DealRow
	if err := transaction.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	records := make([]*types.DealRecord, 0, len(rows))
	for _, row := range rows {
		record, err := rowToRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *dealRepo) Delete(ctx context.Context, tx *gorm.DB, dealID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Delete(&types.DealRow{}).Error; err != nil {
		return fmt.Errorf("delete deal %s: %w", dealID, err)
	}
	return nil
}

// AppendChatMessage concatenates one entry onto the founder_chat jsonb array
// in a single UPDATE, so concurrent appends on the same deal cannot lose
// each other.
func (r *dealRepo) AppendChatMessage(ctx context.Context, tx *gorm.DB, dealID string, msg types.ChatMessage) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	payload, err := json.Marshal([]types.ChatMessage{msg})
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}
	res := transaction.WithContext(ctx).
		Model(&types.DealRow{}).
		Where("deal_id = ?", dealID).
		Updates(map[string]any{
			"founder_chat": gorm.Expr("COALESCE(founder_chat, '[]'::jsonb) || ?::jsonb", string(payload)),
			"updated_at":   gorm.Expr("now()"),
		})
	if res.Error != nil {
		return fmt.Errorf("append chat message for deal %s: %w", dealID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetInvite replaces the founder_invite column wholesale. No invite history
// is retained.
func (r *dealRepo) SetInvite(ctx context.Context, tx *gorm.DB, dealID string, invite types.FounderInvite) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	payload, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("marshal invite: %w", err)
	}
	res := transaction.WithContext(ctx).
		Model(&types.DealRow{}).
		Where("deal_id = ?", dealID).
		Updates(map[string]any{
			"founder_invite": datatypes.JSON(payload),
			"updated_at":     gorm.Expr("now()"),
		})
	if res.Error != nil {
		return fmt.Errorf("set invite for deal %s: %w", dealID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func recordToRow(dealID string, record *types.DealRecord) (*types.DealRow, error) {
	row := &types.DealRow{DealID: dealID}
	fields := []struct {
		name string
		src  any
		dst  *datatypes.JSON
	}{
		{"raw_files", record.RawFiles, &row.RawFiles},
		{"public_data", record.PublicData, &row.PublicData},
		{"metadata", record.Metadata, &row.Metadata},
		{"extracted_text", record.ExtractedText, &row.ExtractedText},
		{"memo", record.Memo, &row.Memo},
		{"founder_chat", record.FounderChat, &row.FounderChat},
		{"founder_invite", record.FounderInvite, &row.FounderInvite},
	}
	for _, f := range fields {
		payload, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("marshal deal field %s: %w", f.name, err)
		}
		*f.dst = datatypes.JSON(payload)
	}
	return row, nil
}

func rowToRecord(row *types.DealRow) (*types.DealRecord, error) {
	record := &types.DealRecord{}
	fields := []struct {
		name string
		src  datatypes.JSON
		dst  any
	}{
		{"raw_files", row.RawFiles, &record.RawFiles},
		{"public_data", row.PublicData, &record.PublicData},
		{"metadata", row.Metadata, &record.Metadata},
		{"extracted_text", row.ExtractedText, &record.ExtractedText},
		{"memo", row.Memo, &record.Memo},
		{"founder_chat", row.FounderChat, &record.FounderChat},
		{"founder_invite", row.FounderInvite, &record.FounderInvite},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("unmarshal deal field %s: %w", f.name, err)
		}
	}
	return record, nil
}
