package gcp

import (
	"context"
	"fmt"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	documentaipb "cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/envutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type DocumentAI interface {
	ParseDocumentBytes(ctx context.Context, doc []byte, mimeType string) (*DocumentParse, error)
	Close() error
}

type DocumentParse struct {
	Provider string `json:"provider"`
	Text     string `json:"text,omitempty"`

	EntityCount          int     `json:"entity_count"`
	MeanEntityConfidence float64 `json:"mean_entity_confidence"`
}

type documentAIService struct {
	log       *logger.Logger
	client    *documentai.DocumentProcessorClient
	processor string
}

// NewDocumentAI needs DOCAI_PROCESSOR_NAME, the full resource name of
// the processor (projects/.../locations/.../processors/...).
func NewDocumentAI(log *logger.Logger) (DocumentAI, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.DocumentAI")

	processor := envutil.Str("DOCAI_PROCESSOR_NAME", "")
	if processor == "" {
		return nil, fmt.Errorf("missing env var DOCAI_PROCESSOR_NAME")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	return &documentAIService{log: slog, client: c, processor: processor}, nil
}

func (s *documentAIService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *documentAIService) ParseDocumentBytes(ctx context.Context, doc []byte, mimeType string) (*DocumentParse, error) {
	out := &DocumentParse{Provider: "gcp_documentai"}
	if len(doc) == 0 {
		return out, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := s.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("documentai process: %w", err)
	}
	d := resp.GetDocument()
	if d == nil {
		return out, nil
	}

	out.Text = d.Text
	var confSum float64
	for _, e := range d.Entities {
		if e == nil {
			continue
		}
		out.EntityCount++
		confSum += float64(e.Confidence)
	}
	if out.EntityCount > 0 {
		out.MeanEntityConfidence = confSum / float64(out.EntityCount)
	}
	return out, nil
}
