package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/types"
)

// ExtractionService turns uploaded bytes into raw text plus optional
// structured analysis. The contract is total: any payload produces a result,
// with empty text for content nothing can read.
type ExtractionService interface {
	Extract(ctx context.Context, dealID, filename, contentType string, data []byte) types.ExtractedDocument
}

type extractionService struct {
	log *logger.Logger

	docClient     *documentai.DocumentProcessorClient
	processorName string
}

// NewExtractionService builds the extractor. When DOCAI_PROCESSOR_ID and
// GCP_PROJECT_ID are configured, Document AI supplies text and layout
// analysis; otherwise extraction runs on local byte sniffing only.
func NewExtractionService(log *logger.Logger) (ExtractionService, error) {
	serviceLog := log.With("service", "ExtractionService")

	processorID := strings.TrimSpace(os.Getenv("DOCAI_PROCESSOR_ID"))
	projectID := strings.TrimSpace(os.Getenv("GCP_PROJECT_ID"))
	if processorID == "" || projectID == "" {
		serviceLog.Info("Document AI not configured, using local extraction only")
		return &extractionService{log: serviceLog}, nil
	}

	location := strings.TrimSpace(os.Getenv("DOCAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"); saPath != "" {
		opts = append(opts, option.WithCredentialsFile(saPath))
	}
	client, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	serviceLog.Info("Document AI initialized", "endpoint", endpoint)
	return &extractionService{
		log:           serviceLog,
		docClient:     client,
		processorName: fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
	}, nil
}

func (es *extractionService) Extract(ctx context.Context, dealID, filename, contentType string, data []byte) types.ExtractedDocument {
	doc := types.ExtractedDocument{}

	if es.docClient != nil {
		text, analysis, err := es.processRemote(ctx, contentType, data)
		if err != nil {
			es.log.Warn("Document AI processing failed, falling back to local extraction", "deal_id", dealID, "error", err)
		} else {
			doc.RawText = text
			doc.Analysis = analysis
		}
	}

	if doc.RawText == "" {
		doc.RawText = ExtractText(filename, contentType, data)
	}
	return doc
}

func (es *extractionService) processRemote(ctx context.Context, contentType string, data []byte) (string, map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := es.docClient.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: es.processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: contentType,
			},
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("process document: %w", err)
	}
	document := resp.GetDocument()
	if document == nil {
		return "", nil, fmt.Errorf("process document: empty response")
	}

	entities := make([]map[string]any, 0, len(document.GetEntities()))
	for _, ent := range document.GetEntities() {
		entities = append(entities, map[string]any{
			"type":       ent.GetType(),
			"mention":    ent.GetMentionText(),
			"confidence": ent.GetConfidence(),
		})
	}
	tables := 0
	for _, page := range document.GetPages() {
		tables += len(page.GetTables())
	}
	analysis := map[string]any{
		"provider": "documentai",
		"entities": entities,
		"pages":    len(document.GetPages()),
		"tables":   tables,
	}
	return normalizeText(document.GetText()), analysis, nil
}
