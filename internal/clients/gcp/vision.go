package gcp

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type Vision interface {
	InspectImageBytes(ctx context.Context, img []byte) (*ImageInspection, error)
	Close() error
}

// ImageInspection summarizes what the annotator saw in a piece of
// photo evidence. The integrity scoring happens downstream; this is
// the raw signal.
type ImageInspection struct {
	Provider string             `json:"provider"`
	Labels   map[string]float64 `json:"labels,omitempty"`

	// SafeSearch likelihoods, stringified (UNKNOWN..VERY_LIKELY).
	Adult    string `json:"adult,omitempty"`
	Spoof    string `json:"spoof,omitempty"`
	Violence string `json:"violence,omitempty"`

	TextSnippet string `json:"text_snippet,omitempty"`
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Vision")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	vClient, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:          slog,
		visionClient: vClient,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionService) InspectImageBytes(ctx context.Context, img []byte) (*ImageInspection, error) {
	out := &ImageInspection{Provider: "gcp_vision"}
	if len(img) == 0 {
		return out, nil
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: 10},
			{Type: visionpb.Feature_SAFE_SEARCH_DETECTION},
			{Type: visionpb.Feature_TEXT_DETECTION, MaxResults: 1},
		},
	}

	resp, err := s.visionClient.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return nil, fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return out, nil
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("vision annotate: %s", r.Error.Message)
	}

	if len(r.LabelAnnotations) > 0 {
		out.Labels = make(map[string]float64, len(r.LabelAnnotations))
		for _, l := range r.LabelAnnotations {
			if l == nil {
				continue
			}
			out.Labels[l.Description] = float64(l.Score)
		}
	}
	if ss := r.SafeSearchAnnotation; ss != nil {
		out.Adult = ss.Adult.String()
		out.Spoof = ss.Spoof.String()
		out.Violence = ss.Violence.String()
	}
	if len(r.TextAnnotations) > 0 && r.TextAnnotations[0] != nil {
		out.TextSnippet = r.TextAnnotations[0].Description
	}
	return out, nil
}
