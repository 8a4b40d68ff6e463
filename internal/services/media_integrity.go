package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// MediaIntegrityService inspects the photos, videos, and documents
// attached to a claim and condenses the findings into one risk
// component on the 0..100 scale used by the scoring engine. A claim
// with no attached media yields a nil score so the component stays
// neutral.
type MediaIntegrityService interface {
	EvaluateClaim(ctx context.Context, claim *claimtypes.Claim) (*float64, map[string]any, error)
}

type mediaIntegrityService struct {
	log    *logger.Logger
	bucket gcp.BucketService
	vision gcp.Vision
	video  gcp.VideoIntel
	docs   gcp.DocumentAI
}

func NewMediaIntegrityService(
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	vision gcp.Vision,
	video gcp.VideoIntel,
	docs gcp.DocumentAI,
) MediaIntegrityService {
	return &mediaIntegrityService{
		log:    baseLog.With("service", "MediaIntegrityService"),
		bucket: bucket,
		vision: vision,
		video:  video,
		docs:   docs,
	}
}

const (
	mediaBaselineRisk = 20.0
	spoofPenalty      = 40.0
	explicitPenalty   = 40.0
	safeSearchPenalty = 20.0
	weakDocPenalty    = 20.0
)

func (s *mediaIntegrityService) EvaluateClaim(ctx context.Context, claim *claimtypes.Claim) (*float64, map[string]any, error) {
	photos := decodeKeyList(claim.Photos)
	videos := decodeKeyList(claim.Videos)
	documents := decodeKeyList(claim.Documents)

	total := len(photos) + len(videos) + len(documents)
	if total == 0 {
		return nil, nil, nil
	}

	var (
		mu      sync.Mutex
		scores  []float64
		details = map[string]any{}
	)
	add := func(key string, score float64, info any) {
		mu.Lock()
		defer mu.Unlock()
		scores = append(scores, score)
		details[key] = info
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, key := range photos {
		key := key
		g.Go(func() error {
			score, info := s.inspectPhoto(gctx, key)
			add("photo:"+key, score, info)
			return nil
		})
	}
	for _, key := range videos {
		key := key
		g.Go(func() error {
			score, info := s.inspectVideo(gctx, key)
			add("video:"+key, score, info)
			return nil
		})
	}
	for _, key := range documents {
		key := key
		g.Go(func() error {
			score, info := s.inspectDocument(gctx, key)
			add("document:"+key, score, info)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	mean := sum / float64(len(scores))
	if mean > 100 {
		mean = 100
	}
	details["item_count"] = total
	details["mean_risk"] = mean
	return &mean, details, nil
}

// inspectPhoto never fails the whole evaluation: an unreadable or
// unanalyzable item just scores neutral.
func (s *mediaIntegrityService) inspectPhoto(ctx context.Context, key string) (float64, any) {
	if s.vision == nil {
		return mediaBaselineRisk, map[string]any{"skipped": "vision not configured"}
	}
	img, err := s.bucket.DownloadBytes(ctx, gcp.BucketCategoryEvidence, key)
	if err != nil {
		s.log.Warn("photo download failed", "key", key, "error", err)
		return 50, map[string]any{"error": err.Error()}
	}
	insp, err := s.vision.InspectImageBytes(ctx, img)
	if err != nil {
		s.log.Warn("photo inspection failed", "key", key, "error", err)
		return 50, map[string]any{"error": err.Error()}
	}

	score := mediaBaselineRisk
	if likelihoodAtLeastLikely(insp.Spoof) {
		score += spoofPenalty
	}
	if likelihoodAtLeastLikely(insp.Adult) || likelihoodAtLeastLikely(insp.Violence) {
		score += safeSearchPenalty
	}
	return score, insp
}

func (s *mediaIntegrityService) inspectVideo(ctx context.Context, key string) (float64, any) {
	if s.video == nil {
		return mediaBaselineRisk, map[string]any{"skipped": "video intelligence not configured"}
	}
	uri, err := s.bucket.GCSURI(gcp.BucketCategoryEvidence, key)
	if err != nil {
		return 50, map[string]any{"error": err.Error()}
	}
	insp, err := s.video.InspectVideoGCS(ctx, uri)
	if err != nil {
		s.log.Warn("video inspection failed", "key", key, "error", err)
		return 50, map[string]any{"error": err.Error()}
	}

	score := mediaBaselineRisk
	if insp.ExplicitFrames > 0 {
		score += explicitPenalty
	}
	return score, insp
}

func (s *mediaIntegrityService) inspectDocument(ctx context.Context, key string) (float64, any) {
	if s.docs == nil {
		return mediaBaselineRisk, map[string]any{"skipped": "document ai not configured"}
	}
	doc, err := s.bucket.DownloadBytes(ctx, gcp.BucketCategoryEvidence, key)
	if err != nil {
		s.log.Warn("document download failed", "key", key, "error", err)
		return 50, map[string]any{"error": err.Error()}
	}
	parsed, err := s.docs.ParseDocumentBytes(ctx, doc, mimeForKey(key))
	if err != nil {
		s.log.Warn("document parse failed", "key", key, "error", err)
		return 50, map[string]any{"error": err.Error()}
	}

	score := mediaBaselineRisk
	if parsed.EntityCount > 0 && parsed.MeanEntityConfidence < 0.5 {
		score += weakDocPenalty
	}
	return score, parsed
}

func likelihoodAtLeastLikely(v string) bool {
	switch strings.ToUpper(v) {
	case "LIKELY", "VERY_LIKELY":
		return true
	}
	return false
}

func mimeForKey(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".tiff"):
		return "image/tiff"
	default:
		return "application/pdf"
	}
}

func decodeKeyList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	return out
}
