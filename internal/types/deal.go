package types

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DealStatusPending   = "pending"
	DealStatusProcessed = "processed"
	DealStatusFailed    = "failed"
)

// DealRecord is the full stored aggregate for one prospective investment,
// keyed by a short generated deal id held in Metadata.DealID.
type DealRecord struct {
	RawFiles      RawFiles       `json:"raw_files"`
	PublicData    PublicData     `json:"public_data"`
	Metadata      DealMetadata   `json:"metadata"`
	ExtractedText ExtractedText  `json:"extracted_text"`
	Memo          *MemoDocument  `json:"memo"`
	FounderChat   []ChatMessage  `json:"founder_chat"`
	FounderInvite *FounderInvite `json:"founder_invite"`
}

type RawFiles struct {
	PitchDeckURL string `json:"pitch_deck_url"`
}

// PublicData holds derived public signals. It is populated incrementally by
// external enrichment and carries no invariants of its own.
type PublicData struct {
	Competitors     []string         `json:"competitors"`
	News            []string         `json:"news"`
	MarketStats     map[string]any   `json:"market_stats"`
	FounderProfile  []map[string]any `json:"founder_profile"`
	StartupAnalysis map[string]any   `json:"startup_analysis"`
}

type DealMetadata struct {
	Weightage    Weightage `json:"weightage"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
	DealID       string    `json:"deal_id"`
	CompanyName  string    `json:"company_name"`
	ProcessedAt  time.Time `json:"processed_at"`
	Error        *string   `json:"error"`
	Sector       string    `json:"sector"`
	FounderNames []string  `json:"founder_names"`
}

type ExtractedText struct {
	PitchDeck ExtractedDocument `json:"pitch_deck"`
}

type ExtractedDocument struct {
	RawText  string         `json:"raw_text"`
	Analysis map[string]any `json:"analysis,omitempty"`
}

type MemoDocument struct {
	DraftV1     MemoDraft `json:"draft_v1"`
	GeneratedAt time.Time `json:"generated_at"`
	DocxURL     string    `json:"docx_url"`
}

type ChatMessage struct {
	Participant string    `json:"participant"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

type FounderInvite struct {
	Token        string    `json:"token"`
	FounderEmail string    `json:"founder_email"`
	ExpiresAt    time.Time `json:"expires_at"`
	Used         bool      `json:"used"`
	InviteURL    string    `json:"invite_url"`
}

// DealRow is the Postgres representation of a DealRecord: one row per deal,
// each top-level aggregate field stored as a jsonb column so the chat and
// invite mutations can be applied atomically in SQL.
type DealRow struct {
	DealID        string         `gorm:"column:deal_id;primaryKey" json:"deal_id"`
	RawFiles      datatypes.JSON `gorm:"column:raw_files;type:jsonb" json:"raw_files"`
	PublicData    datatypes.JSON `gorm:"column:public_data;type:jsonb" json:"public_data"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	ExtractedText datatypes.JSON `gorm:"column:extracted_text;type:jsonb" json:"extracted_text"`
	Memo          datatypes.JSON `gorm:"column:memo;type:jsonb" json:"memo"`
	FounderChat   datatypes.JSON `gorm:"column:founder_chat;type:jsonb" json:"founder_chat"`
	FounderInvite datatypes.JSON `gorm:"column:founder_invite;type:jsonb" json:"founder_invite"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DealRow) TableName() string { return "deal" }
