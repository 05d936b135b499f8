package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stonebridgevc/dealdesk-backend/internal/apierr"
	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/repos"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

const (
	dealIDLength          = 6
	dealIDMaxAttempts     = 5
	memoFilename          = "memo.docx"
	inviteMinExpiryMin    = 5
	inviteMaxExpiryMin    = 1440
	defaultInviteBaseURL  = "https://founder-chat.example.com/invite"
	memoTitlePrefixFormat = "Investment Memo Draft - %s"
)

// DealService owns the deal lifecycle: the upload pipeline, memo
// regeneration, reads, deletion, downloads, and the founder invite/chat
// mutations. All capabilities are injected once at construction.
type DealService interface {
	ProcessUpload(ctx context.Context, filename, contentType string, data []byte) (*types.DealRecord, error)
	RegenerateMemo(ctx context.Context, dealID string, weightage types.Weightage) (*types.DealRecord, error)
	GetDeal(ctx context.Context, dealID string) (*types.DealRecord, error)
	ListDeals(ctx context.Context) ([]*types.DealRecord, error)
	DeleteDeal(ctx context.Context, dealID string) error
	DownloadMemo(ctx context.Context, dealID string) (*DownloadedFile, error)
	DownloadPitchDeck(ctx context.Context, dealID string) (*DownloadedFile, error)
	CreateFounderInvite(ctx context.Context, dealID, founderEmail string, expiresInMinutes int) (*types.FounderInvite, error)
	RecordFounderChat(ctx context.Context, dealID string, msg types.ChatMessage) error
}

type DownloadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type dealService struct {
	log           *logger.Logger
	dealRepo      repos.DealRepo
	bucket        BucketService
	extraction    ExtractionService
	metadata      MetadataService
	memo          MemoService
	docBuilder    DocxBuilder
	inviteMailer  InviteMailer
	inviteBaseURL string
}

func NewDealService(
	baseLog *logger.Logger,
	dealRepo repos.DealRepo,
	bucket BucketService,
	extraction ExtractionService,
	metadata MetadataService,
	memo MemoService,
	docBuilder DocxBuilder,
	inviteMailer InviteMailer,
	inviteBaseURL string,
) DealService {
	serviceLog := baseLog.With("service", "DealService")
	if strings.TrimSpace(inviteBaseURL) == "" {
		inviteBaseURL = defaultInviteBaseURL
	}
	return &dealService{
		log:           serviceLog,
		dealRepo:      dealRepo,
		bucket:        bucket,
		extraction:    extraction,
		metadata:      metadata,
		memo:          memo,
		docBuilder:    docBuilder,
		inviteMailer:  inviteMailer,
		inviteBaseURL: inviteBaseURL,
	}
}

// ProcessUpload runs the full pipeline for one uploaded pitch deck: store
// the raw file, extract text, infer metadata, synthesize a memo with default
// weightage, render and store the memo document, then upsert the complete
// deal record. The upsert is the last step, so a failure anywhere earlier
// leaves no deal record behind.
func (ds *dealService) ProcessUpload(ctx context.Context, filename, contentType string, data []byte) (*types.DealRecord, error) {
	dealID, err := ds.newDealID(ctx)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = fmt.Sprintf("upload_%s", dealID)
	}
	if contentType == "" {
		contentType = fallbackContentType
	}
	ds.log.Info("Processing deal upload", "deal_id", dealID, "filename", filename, "content_type", contentType, "size_bytes", len(data))

	storageURL, err := ds.bucket.UploadBytes(ctx, dealID, filename, data, contentType)
	if err != nil {
		return nil, apierr.Unavailable("blob_store_unavailable", fmt.Errorf("store pitch deck: %w", err))
	}

	extracted := ds.extraction.Extract(ctx, dealID, filename, contentType, data)
	companyName, founders, sector := ds.metadata.Infer(dealID, extracted.RawText)

	weightage := types.DefaultWeightage()
	draft, generatedAt := ds.memo.Synthesize(companyName, sector, founders, extracted.RawText, weightage)

	docxURL, err := ds.renderAndStoreMemo(ctx, dealID, &draft)
	if err != nil {
		return nil, err
	}

	// created_at and processed_at are evaluated independently; processing is
	// synchronous so they only differ by pipeline latency.
	createdAt := time.Now().UTC()
	processedAt := time.Now().UTC()

	record := &types.DealRecord{
		RawFiles: types.RawFiles{PitchDeckURL: storageURL},
		PublicData: types.PublicData{
			Competitors:     []string{},
			News:            []string{},
			MarketStats:     map[string]any{},
			FounderProfile:  []map[string]any{},
			StartupAnalysis: extracted.Analysis,
		},
		Metadata: types.DealMetadata{
			Weightage:    weightage,
			CreatedAt:    createdAt,
			Status:       types.DealStatusProcessed,
			DealID:       dealID,
			CompanyName:  companyName,
			ProcessedAt:  processedAt,
			Sector:       sector,
			FounderNames: founders,
		},
		ExtractedText: types.ExtractedText{
			PitchDeck: extracted,
		},
		Memo: &types.MemoDocument{
			DraftV1:     draft,
			GeneratedAt: generatedAt,
			DocxURL:     docxURL,
		},
		FounderChat: []types.ChatMessage{},
	}

	if err := ds.dealRepo.Upsert(ctx, nil, dealID, record); err != nil {
		return nil, apierr.Unavailable("record_store_unavailable", fmt.Errorf("persist deal record: %w", err))
	}
	ds.log.Info("Deal processed", "deal_id", dealID, "company", companyName, "sector", sector)
	return record, nil
}

// RegenerateMemo re-runs synthesis over the stored extracted text with a
// caller-supplied weightage, overwrites the rendered memo blob in place, and
// replaces the record's weightage and memo. Everything else is untouched.
func (ds *dealService) RegenerateMemo(ctx context.Context, dealID string, weightage types.Weightage) (*types.DealRecord, error) {
	record, err := ds.mustGetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}

	companyName := record.Metadata.CompanyName
	if companyName == "" {
		companyName = dealID
	}
	sector := record.Metadata.Sector
	if sector == "" {
		sector = "General"
	}

	draft, generatedAt := ds.memo.Synthesize(
		companyName,
		sector,
		record.Metadata.FounderNames,
		record.ExtractedText.PitchDeck.RawText,
		weightage,
	)

	docxURL, err := ds.renderAndStoreMemo(ctx, dealID, &draft)
	if err != nil {
		return nil, err
	}

	record.Metadata.Weightage = weightage
	record.Memo = &types.MemoDocument{
		DraftV1:     draft,
		GeneratedAt: generatedAt,
		DocxURL:     docxURL,
	}

	if err := ds.dealRepo.Upsert(ctx, nil, dealID, record); err != nil {
		return nil, apierr.Unavailable("record_store_unavailable", fmt.Errorf("persist regenerated deal: %w", err))
	}
	ds.log.Info("Memo regenerated", "deal_id", dealID)
	return record, nil
}

func (ds *dealService) GetDeal(ctx context.Context, dealID string) (*types.DealRecord, error) {
	return ds.mustGetDeal(ctx, dealID)
}

// ListDeals returns all records. Ordering is store-dependent and callers
// must not rely on it.
func (ds *dealService) ListDeals(ctx context.Context) ([]*types.DealRecord, error) {
	records, err := ds.dealRepo.List(ctx, nil)
	if err != nil {
		return nil, apierr.Unavailable("record_store_unavailable", fmt.Errorf("list deals: %w", err))
	}
	return records, nil
}

// DeleteDeal removes the record, then best-effort removes the deal's blob
// folder. The record delete is authoritative: blob cleanup failure is a
// logged partial failure, not an error for the caller.
func (ds *dealService) DeleteDeal(ctx context.Context, dealID string) error {
	if _, err := ds.mustGetDeal(ctx, dealID); err != nil {
		return err
	}
	if err := ds.dealRepo.Delete(ctx, nil, dealID); err != nil {
		return apierr.Unavailable("record_store_unavailable", fmt.Errorf("delete deal record: %w", err))
	}
	if err := ds.bucket.DeleteFolder(ctx, dealID); err != nil {
		ds.log.Error("Partial failure: deal record deleted but blob cleanup failed", "deal_id", dealID, "error", err)
	}
	ds.log.Info("Deal deleted", "deal_id", dealID)
	return nil
}

func (ds *dealService) DownloadMemo(ctx context.Context, dealID string) (*DownloadedFile, error) {
	if _, err := ds.mustGetDeal(ctx, dealID); err != nil {
		return nil, err
	}
	data, contentType, err := ds.bucket.DownloadFile(ctx, dealID, memoFilename)
	if err != nil {
		return nil, err
	}
	return &DownloadedFile{Filename: memoFilename, ContentType: contentType, Data: data}, nil
}

func (ds *dealService) DownloadPitchDeck(ctx context.Context, dealID string) (*DownloadedFile, error) {
	record, err := ds.mustGetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	rawURL := record.RawFiles.PitchDeckURL
	if rawURL == "" {
		return nil, apierr.NotFound("pitch_deck_not_available", fmt.Errorf("deal %s has no stored pitch deck", dealID))
	}
	segments := strings.Split(rawURL, "/")
	filename := segments[len(segments)-1]
	data, contentType, err := ds.bucket.DownloadFile(ctx, dealID, filename)
	if err != nil {
		return nil, err
	}
	return &DownloadedFile{Filename: filename, ContentType: contentType, Data: data}, nil
}

// CreateFounderInvite issues a fresh invite token for the deal, replacing
// any prior invite. The expiry duration is clamped to [5, 1440] minutes in
// case an out-of-range value slips past boundary validation.
func (ds *dealService) CreateFounderInvite(ctx context.Context, dealID, founderEmail string, expiresInMinutes int) (*types.FounderInvite, error) {
	if _, err := ds.mustGetDeal(ctx, dealID); err != nil {
		return nil, err
	}
	if expiresInMinutes < inviteMinExpiryMin {
		expiresInMinutes = inviteMinExpiryMin
	}
	if expiresInMinutes > inviteMaxExpiryMin {
		expiresInMinutes = inviteMaxExpiryMin
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	invite := types.FounderInvite{
		Token:        token,
		FounderEmail: founderEmail,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(expiresInMinutes) * time.Minute),
		Used:         false,
		InviteURL:    strings.TrimRight(ds.inviteBaseURL, "/") + "/" + token,
	}
	if err := ds.dealRepo.SetInvite(ctx, nil, dealID, invite); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("deal_not_found", fmt.Errorf("deal %s not found", dealID))
		}
		return nil, apierr.Unavailable("record_store_unavailable", fmt.Errorf("store invite: %w", err))
	}

	if ds.inviteMailer != nil {
		if err := ds.inviteMailer.SendInvite(ctx, founderEmail, invite.InviteURL, invite.ExpiresAt); err != nil {
			ds.log.Warn("Invite created but email delivery failed", "deal_id", dealID, "error", err)
		}
	}
	ds.log.Info("Founder invite created", "deal_id", dealID, "expires_at", invite.ExpiresAt)
	return &invite, nil
}

func (ds *dealService) RecordFounderChat(ctx context.Context, dealID string, msg types.ChatMessage) error {
	if _, err := ds.mustGetDeal(ctx, dealID); err != nil {
		return err
	}
	if err := ds.dealRepo.AppendChatMessage(ctx, nil, dealID, msg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("deal_not_found", fmt.Errorf("deal %s not found", dealID))
		}
		return apierr.Unavailable("record_store_unavailable", fmt.Errorf("append chat message: %w", err))
	}
	return nil
}

func (ds *dealService) renderAndStoreMemo(ctx context.Context, dealID string, draft *types.MemoDraft) (string, error) {
	docxBytes, err := ds.docBuilder.Build(fmt.Sprintf(memoTitlePrefixFormat, dealID), draft)
	if err != nil {
		return "", apierr.Unavailable("document_render_failed", fmt.Errorf("render memo document: %w", err))
	}
	docxURL, err := ds.bucket.UploadBytes(ctx, dealID, memoFilename, docxBytes, DocxContentType)
	if err != nil {
		return "", apierr.Unavailable("blob_store_unavailable", fmt.Errorf("store memo document: %w", err))
	}
	return docxURL, nil
}

func (ds *dealService) mustGetDeal(ctx context.Context, dealID string) (*types.DealRecord, error) {
	record, err := ds.dealRepo.Get(ctx, nil, dealID)
	if err != nil {
		return nil, apierr.Unavailable("record_store_unavailable", fmt.Errorf("get deal %s: %w", dealID, err))
	}
	if record == nil {
		return nil, apierr.NotFound("deal_not_found", fmt.Errorf("deal %s not found", dealID))
	}
	return record, nil
}

// newDealID generates a short id and checks the record store for collisions.
// Six hex chars are plenty for the expected deal volume, but a clash would
// silently merge two deals, so we verify.
func (ds *dealService) newDealID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < dealIDMaxAttempts; attempt++ {
		candidate := strings.ReplaceAll(uuid.NewString(), "-", "")[:dealIDLength]
		existing, err := ds.dealRepo.Get(ctx, nil, candidate)
		if err != nil {
			return "", apierr.Unavailable("record_store_unavailable", fmt.Errorf("check deal id: %w", err))
		}
		if existing == nil {
			return candidate, nil
		}
		ds.log.Warn("Deal id collision, retrying", "deal_id", candidate)
	}
	return "", fmt.Errorf("could not generate a unique deal id after %d attempts", dealIDMaxAttempts)
}
