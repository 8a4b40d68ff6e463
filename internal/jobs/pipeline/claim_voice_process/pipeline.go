package claim_voice_process

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/clients/gcp"
	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	jobtypes "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	notiftypes "github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	jobrt "github.com/sorosurance/sorosurance-backend/internal/jobs/runtime"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/scoring"
	"github.com/sorosurance/sorosurance-backend/internal/voice"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	claimID, ok := jc.PayloadUUID("claim_id")
	if !ok || claimID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing claim_id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	found, err := p.claims.GetByIDs(dbc, []uuid.UUID{claimID})
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if len(found) == 0 {
		jc.Fail("load", fmt.Errorf("claim %s not found", claimID))
		return nil
	}
	claim := found[0]

	// Reprocessing a claim that already moved past submitted is a
	// no-op. The analysis trail is append-only so nothing is lost.
	if claim.Status != claimtypes.StatusSubmitted {
		jc.Succeed("done", map[string]any{
			"claim_id": claimID.String(),
			"skipped":  true,
			"status":   claim.Status,
		})
		return nil
	}

	users, err := p.users.GetByIDs(dbc, []uuid.UUID{claim.UserID})
	if err != nil || len(users) == 0 {
		jc.Fail("load", fmt.Errorf("claim user %s not found: %v", claim.UserID, err))
		return nil
	}
	owner := users[0]

	jc.Progress("download", 10, "Fetching claim recording")
	if claim.AudioBucketKey == "" {
		jc.Fail("download", fmt.Errorf("claim %s has no audio recording", claim.ClaimNumber))
		return nil
	}
	audio, err := p.bucket.DownloadBytes(jc.Ctx, gcp.BucketCategoryClaimAudio, claim.AudioBucketKey)
	if err != nil {
		jc.Fail("download", err)
		return nil
	}

	jc.Progress("analyze", 25, "Analyzing audio quality")
	features, err := voice.AnalyzeWAV(bytes.NewReader(audio))
	if err != nil {
		// A malformed recording still gets a transcript attempt; the
		// quality bucket stays unknown.
		p.log.Warn("audio analysis failed", "claim_id", claimID, "error", err)
		features = &voice.AudioFeatures{}
	}

	jc.Progress("transcribe", 40, "Transcribing recording")
	transcript := p.stt.Transcribe(jc.Ctx, audio, features.SampleRate)

	keywords := voice.ExtractKeywords(transcript.Text)
	sentiment := voice.AnalyzeSentiment(transcript.Text)
	emotions := voice.DetectEmotions(transcript.Text)
	wordCount := voice.WordCount(transcript.Text)
	fillerCount := voice.CountFillerWords(transcript.Text)
	speakingRate := voice.SpeakingRate(wordCount, features.DurationSeconds)

	// Attached evidence feeds the media component right away; a media
	// failure degrades to the neutral component instead of aborting.
	var mediaScore *float64
	if p.media != nil {
		score, _, merr := p.media.EvaluateClaim(jc.Ctx, claim)
		if merr != nil {
			p.log.Warn("media evaluation failed", "claim_id", claimID, "error", merr)
		} else {
			mediaScore = score
		}
	}

	jc.Progress("score", 60, "Calculating Soro-Score")
	result, err := p.scorer.Score(jc.Ctx, scoring.ClaimInput{
		ClaimType:            claim.ClaimType,
		ClaimedAmount:        claim.ClaimedAmount,
		Transcript:           transcript.Text,
		TranscriptConfidence: transcript.Confidence,
		Keywords:             keywords,
		SentimentScore:       sentiment.Score,
		EmotionScores:        emotions,
		SpeakingRate:         speakingRate,
		WordCount:            wordCount,
		RecordingQuality:     features.Quality(),
		MediaIntegrityScore:  mediaScore,
		UserSoroScore:        owner.SoroScore,
		TotalClaims:          owner.TotalClaims,
		RejectedClaims:       owner.RejectedClaims,
	})
	if err != nil {
		jc.Fail("score", err)
		return nil
	}

	jc.Progress("persist", 80, "Recording analysis")
	var transitioned bool
	newStatus := claimtypes.StatusUnderReview
	if result.AutoApprovalRecommended {
		newStatus = claimtypes.StatusApproved
	}

	txErr := p.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: jc.Ctx, Tx: tx}

		analysis := buildAnalysis(claim.ID, features, transcript, sentiment, emotions, keywords, wordCount, fillerCount, speakingRate, result)
		if _, err := p.voices.Create(txc, []*claimtypes.VoiceAnalysis{analysis}); err != nil {
			return err
		}

		scoreLog := buildScoreLog(claim.ID, result, p.weights, transcript)
		if _, err := p.scores.Create(txc, []*claimtypes.SoroScoreLog{scoreLog}); err != nil {
			return err
		}

		now := time.Now()
		kw, _ := json.Marshal(keywords)
		updates := map[string]interface{}{
			"transcript":             transcript.Text,
			"transcript_confidence":  transcript.Confidence,
			"soro_score":             result.SoroScore,
			"risk_level":             result.RiskLevel,
			"sentiment_score":        result.Components["sentiment"],
			"urgency_score":          result.Components["urgency"],
			"inconsistency_score":    result.Components["inconsistency"],
			"keywords":               datatypes.JSON(kw),
			"audio_duration_seconds": features.DurationSeconds,
			"auto_approved":          result.AutoApprovalRecommended,
			"status":                 newStatus,
			"updated_at":             now,
		}
		if result.AutoApprovalRecommended {
			updates["approved_amount"] = claim.ClaimedAmount
			updates["reviewed_at"] = now
		}

		// A concurrent cancel or manual review wins: the analysis and
		// score log still land, the status transition does not.
		moved, err := p.claims.UpdateFieldsIfStatus(txc, claim.ID, claimtypes.StatusSubmitted, updates)
		if err != nil {
			return err
		}
		transitioned = moved
		if !moved {
			return nil
		}

		if result.AutoApprovalRecommended {
			if err := p.users.IncrementClaimCounters(txc, owner.ID, 0, 1, 0); err != nil {
				return err
			}
		}

		note := buildDecisionNotification(claim, owner, newStatus, result.SoroScore)
		if _, err := p.notifs.Create(txc, []*notiftypes.Notification{note}); err != nil {
			return err
		}

		// Delivery runs as its own job so a Twilio outage cannot roll
		// back the decision. The row becomes claimable on commit.
		delivery := buildDeliveryJob(owner.ID, note.ID)
		_, err = jc.Repo.Create(txc, []*jobtypes.JobRun{delivery})
		return err
	})
	if txErr != nil {
		jc.Fail("persist", txErr)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"claim_id":      claimID.String(),
		"claim_number":  claim.ClaimNumber,
		"soro_score":    result.SoroScore,
		"risk_level":    result.RiskLevel,
		"auto_approved": result.AutoApprovalRecommended && transitioned,
		"status":        statusOutcome(transitioned, newStatus, claim.Status),
		"transitioned":  transitioned,
		"engine":        transcript.Engine,
		"flags":         result.Flags,
		"keyword_count": len(keywords),
		"word_count":    wordCount,
		"speaking_rate": speakingRate,
		"audio_quality": features.Quality(),
		"duration_s":    features.DurationSeconds,
	})
	return nil
}

func buildDeliveryJob(ownerID, notificationID uuid.UUID) *jobtypes.JobRun {
	payload, _ := json.Marshal(map[string]string{"notification_id": notificationID.String()})
	nid := notificationID
	now := time.Now()
	return &jobtypes.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerID,
		JobType:     jobtypes.TypeNotificationSend,
		EntityType:  "notification",
		EntityID:    &nid,
		Status:      jobtypes.StatusQueued,
		Stage:       "queued",
		Message:     "Queued",
		Payload:     datatypes.JSON(payload),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func statusOutcome(transitioned bool, newStatus, oldStatus string) string {
	if transitioned {
		return newStatus
	}
	return oldStatus
}

func buildAnalysis(
	claimID uuid.UUID,
	features *voice.AudioFeatures,
	transcript voice.Transcript,
	sentiment voice.Sentiment,
	emotions map[string]int,
	keywords []string,
	wordCount int,
	fillerCount int,
	speakingRate float64,
	result *scoring.UnderwritingResult,
) *claimtypes.VoiceAnalysis {
	counts, _ := json.Marshal(sentiment.Counts)
	emo, _ := json.Marshal(emotions)
	kw, _ := json.Marshal(keywords)
	fl, _ := json.Marshal(result.Flags)

	return &claimtypes.VoiceAnalysis{
		ClaimID:              claimID,
		SampleRate:           features.SampleRate,
		Channels:             features.Channels,
		BitDepth:             features.BitDepth,
		AudioFormat:          "wav",
		DurationSeconds:      features.DurationSeconds,
		WordCount:            wordCount,
		SpeakingRate:         speakingRate,
		PauseFrequency:       features.PauseFrequency,
		FillerWordCount:      fillerCount,
		Transcript:           transcript.Text,
		TranscriptConfidence: transcript.Confidence,
		ConfidenceScore:      result.Confidence,
		TranscriptionEngine:  transcript.Engine,
		SentimentLabel:       sentiment.Label,
		SentimentScore:       sentiment.Score,
		SentimentCounts:      datatypes.JSON(counts),
		EmotionScores:        datatypes.JSON(emo),
		Keywords:             datatypes.JSON(kw),
		SignalDBFS:           features.SignalDBFS,
		BackgroundNoiseLevel: features.NoiseLevel,
		RecordingQuality:     features.Quality(),
		Flags:                datatypes.JSON(fl),
	}
}

func buildScoreLog(claimID uuid.UUID, result *scoring.UnderwritingResult, weights scoring.Weights, transcript voice.Transcript) *claimtypes.SoroScoreLog {
	meta, _ := json.Marshal(map[string]any{
		"weights": map[string]float64{
			"inconsistency":   weights.Inconsistency,
			"urgency":         weights.Urgency,
			"sentiment":       weights.Sentiment,
			"media_integrity": weights.MediaIntegrity,
			"historical":      weights.Historical,
		},
		"transcription_engine":  transcript.Engine,
		"transcript_confidence": transcript.Confidence,
		"confidence":            result.Confidence,
		"recommendation":        result.Recommendation,
		"flags":                 result.Flags,
	})

	id := claimID
	return &claimtypes.SoroScoreLog{
		ClaimID:               &id,
		InconsistencyScore:    result.Components["inconsistency"],
		UrgencyScore:          result.Components["urgency"],
		SentimentScore:        result.Components["sentiment"],
		MediaIntegrityScore:   result.Components["media_integrity"],
		HistoricalScore:       result.Components["historical"],
		WeightedInconsistency: result.Components["weighted_inconsistency"],
		WeightedUrgency:       result.Components["weighted_urgency"],
		WeightedSentiment:     result.Components["weighted_sentiment"],
		WeightedMedia:         result.Components["weighted_media"],
		WeightedHistorical:    result.Components["weighted_historical"],
		FinalSoroScore:        result.SoroScore,
		RiskLevel:             result.RiskLevel,
		CalculationMetadata:   datatypes.JSON(meta),
		CalculatedAt:          time.Now(),
	}
}

func buildDecisionNotification(claim *claimtypes.Claim, owner *usertypes.User, newStatus string, score float64) *notiftypes.Notification {
	channel := notiftypes.ChannelSMS
	if owner.PrefersVoice {
		channel = notiftypes.ChannelVoice
	}

	title := "Claim received"
	msg := fmt.Sprintf("Your claim %s is under review. We will update you shortly.", claim.ClaimNumber)
	if newStatus == claimtypes.StatusApproved {
		title = "Claim approved"
		msg = fmt.Sprintf("Good news! Your claim %s for NGN %.2f has been approved.", claim.ClaimNumber, claim.ClaimedAmount)
	}

	meta, _ := json.Marshal(map[string]any{
		"claim_number": claim.ClaimNumber,
		"soro_score":   score,
		"status":       newStatus,
	})
	cid := claim.ID
	return &notiftypes.Notification{
		ID:           uuid.New(),
		UserID:       owner.ID,
		Channel:      channel,
		Title:        title,
		Message:      msg,
		VoiceMessage: msg,
		Metadata:     datatypes.JSON(meta),
		Status:       notiftypes.StatusPending,
		ClaimID:      &cid,
	}
}
