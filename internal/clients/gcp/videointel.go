package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	videopb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"

	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type VideoIntel interface {
	InspectVideoGCS(ctx context.Context, gcsURI string) (*VideoInspection, error)
	Close() error
}

type VideoInspection struct {
	Provider string             `json:"provider"`
	Labels   map[string]float64 `json:"labels,omitempty"`

	// ExplicitFrames counts frames flagged LIKELY or worse.
	ExplicitFrames int `json:"explicit_frames"`
	TotalFrames    int `json:"total_frames"`
}

type videoIntelService struct {
	log    *logger.Logger
	client *videointelligence.Client
}

func NewVideoIntel(log *logger.Logger) (VideoIntel, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.VideoIntel")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	c, err := videointelligence.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("videointelligence client: %w", err)
	}

	return &videoIntelService{log: slog, client: c}, nil
}

func (s *videoIntelService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *videoIntelService) InspectVideoGCS(ctx context.Context, gcsURI string) (*VideoInspection, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 20*time.Minute)
	defer cancel()

	op, err := s.client.AnnotateVideo(ctx, &videopb.AnnotateVideoRequest{
		InputUri: gcsURI,
		Features: []videopb.Feature{
			videopb.Feature_LABEL_DETECTION,
			videopb.Feature_EXPLICIT_CONTENT_DETECTION,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("annotate video: %w", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("annotate video wait: %w", err)
	}

	out := &VideoInspection{Provider: "gcp_videointel"}
	if len(resp.AnnotationResults) == 0 || resp.AnnotationResults[0] == nil {
		return out, nil
	}
	r := resp.AnnotationResults[0]

	if len(r.SegmentLabelAnnotations) > 0 {
		out.Labels = map[string]float64{}
		for _, l := range r.SegmentLabelAnnotations {
			if l == nil || l.Entity == nil {
				continue
			}
			var best float64
			for _, seg := range l.Segments {
				if seg != nil && float64(seg.Confidence) > best {
					best = float64(seg.Confidence)
				}
			}
			out.Labels[l.Entity.Description] = best
		}
	}
	if ec := r.ExplicitAnnotation; ec != nil {
		out.TotalFrames = len(ec.Frames)
		for _, f := range ec.Frames {
			if f == nil {
				continue
			}
			if f.PornographyLikelihood >= videopb.Likelihood_LIKELY {
				out.ExplicitFrames++
			}
		}
	}
	return out, nil
}
