package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/repos"
	"github.com/stonebridgevc/dealdesk-backend/internal/services"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

const samplePitch = "Acme Robotics\nFounders: Jane Doe, John Roe\nWe build agri drones"

type localExtraction struct{}

func (localExtraction) Extract(_ context.Context, _ string, filename, contentType string, data []byte) types.ExtractedDocument {
	return types.ExtractedDocument{RawText: services.ExtractText(filename, contentType, data)}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	svc := services.NewDealService(
		log,
		repos.NewMemoryDealRepo(log),
		services.NewMemoryBucketService(log),
		localExtraction{},
		services.NewMetadataService(log),
		services.NewMemoService(log),
		services.NewDocxBuilder(log),
		nil,
		"",
	)
	handler := NewDealHandler(log, svc)

	router := gin.New()
	router.GET("/healthcheck", HealthCheck)
	api := router.Group("/api")
	api.POST("/upload", handler.UploadDeal)
	api.POST("/generate_memo/:dealId", handler.RegenerateMemo)
	api.GET("/deals", handler.ListDeals)
	api.GET("/deals/:dealId", handler.GetDeal)
	api.DELETE("/deals/:dealId", handler.DeleteDeal)
	api.GET("/download_memo/:dealId", handler.DownloadMemo)
	api.GET("/download_pitch_deck/:dealId", handler.DownloadPitchDeck)
	api.POST("/deals/:dealId/founder_invite", handler.CreateFounderInvite)
	api.POST("/deals/:dealId/founder_chat", handler.RecordFounderChat)
	return router
}

func doUpload(t *testing.T, router *gin.Engine) string {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "deck.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(samplePitch)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		DealID string `json:"deal_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if resp.Status != "processed" {
		t.Fatalf("upload status field: got=%q", resp.Status)
	}
	if len(resp.DealID) != 6 {
		t.Fatalf("upload deal_id: got=%q", resp.DealID)
	}
	return resp.DealID
}

func TestUploadAndGetDeal(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/deals/"+dealID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get deal status: want=200 got=%d", rec.Code)
	}
	var record types.DealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode deal record: %v", err)
	}
	if record.Metadata.CompanyName != "Acme Robotics" {
		t.Fatalf("company name: got=%q", record.Metadata.CompanyName)
	}
	if record.Memo == nil {
		t.Fatalf("memo missing from deal record")
	}
}

func TestUploadMissingFile(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file status: want=400 got=%d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "missing_file" {
		t.Fatalf("error code: got=%q", envelope.Error.Code)
	}
}

func TestGetDealNotFound(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/deals/ffffff", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown deal status: want=404 got=%d", rec.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "deal_not_found" {
		t.Fatalf("error code: got=%q", envelope.Error.Code)
	}
}

func TestRegenerateMemoPartialWeightage(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	body := strings.NewReader(`{"traction": 40, "team_strength": 40}`)
	req := httptest.NewRequest(http.MethodPost, "/api/generate_memo/"+dealID, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("regenerate status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/deals/"+dealID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var record types.DealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode deal record: %v", err)
	}
	// Unsupplied dimensions fall back to 20.
	if record.Metadata.Weightage.MarketOpportunity != 20 {
		t.Fatalf("unsupplied weightage dimension: got=%d", record.Metadata.Weightage.MarketOpportunity)
	}
	if record.Metadata.Weightage.Traction != 40 {
		t.Fatalf("supplied weightage dimension: got=%d", record.Metadata.Weightage.Traction)
	}
	if record.Memo.DraftV1.RiskMetrics.CompositeRiskScore != 10.0 {
		t.Fatalf("regenerated risk score: got=%v", record.Memo.DraftV1.RiskMetrics.CompositeRiskScore)
	}
}

func TestListDealsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	doUpload(t, router)
	doUpload(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list status: want=200 got=%d", rec.Code)
	}
	var records []types.DealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode deal list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("deal count: want=2 got=%d", len(records))
	}
}

func TestDeleteDealEndpoint(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	req := httptest.NewRequest(http.MethodDelete, "/api/deals/"+dealID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status: want=200 got=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/deals/"+dealID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: want=404 got=%d", rec.Code)
	}
}

func TestDownloadMemoEndpoint(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/download_memo/"+dealID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("download memo status: want=200 got=%d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != services.DocxContentType {
		t.Fatalf("memo content type: got=%q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="memo.docx"`) {
		t.Fatalf("memo disposition: got=%q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("memo body empty")
	}
}

func TestDownloadPitchDeckEndpoint(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/download_pitch_deck/"+dealID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("download pitch deck status: want=200 got=%d", rec.Code)
	}
	if rec.Body.String() != samplePitch {
		t.Fatalf("pitch deck bytes altered")
	}
}

func TestCreateFounderInviteEndpoint(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	body := strings.NewReader(`{"founder_email": "jane@acme.dev", "expires_in_minutes": 30}`)
	req := httptest.NewRequest(http.MethodPost, "/api/deals/"+dealID+"/founder_invite", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("invite status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		InviteURL string `json:"invite_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode invite response: %v", err)
	}
	if resp.InviteURL == "" {
		t.Fatalf("invite_url missing: %s", rec.Body.String())
	}
}

func TestCreateFounderInviteValidation(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	cases := []string{
		`{}`,
		`{"founder_email": "jane@acme.dev", "expires_in_minutes": 2}`,
		`{"founder_email": "jane@acme.dev", "expires_in_minutes": 5000}`,
	}
	for _, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/deals/"+dealID+"/founder_invite", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %s: want=400 got=%d", payload, rec.Code)
		}
	}
}

func TestRecordFounderChatEndpoint(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	body := strings.NewReader(`{"participant": "founder", "message": "hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/deals/"+dealID+"/founder_chat", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("chat status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/deals/"+dealID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var record types.DealRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode deal record: %v", err)
	}
	if len(record.FounderChat) != 1 || record.FounderChat[0].Message != "hello" {
		t.Fatalf("chat not recorded: %+v", record.FounderChat)
	}
	if record.FounderChat[0].Timestamp.IsZero() {
		t.Fatalf("missing timestamp must be defaulted")
	}
}

func TestRecordFounderChatValidation(t *testing.T) {
	router := newTestRouter(t)
	dealID := doUpload(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/deals/"+dealID+"/founder_chat", strings.NewReader(`{"participant": "founder"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message: want=400 got=%d", rec.Code)
	}
}

func TestHealthcheckEndpoint(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck status: want=200 got=%d", rec.Code)
	}
}
