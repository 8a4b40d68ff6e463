package voice

import (
	"strings"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
)

const maxKeywords = 10

var insuranceKeywords = map[string]struct{}{
	"accident": {}, "crash": {}, "collision": {}, "damage": {}, "broken": {}, "stolen": {},
	"theft": {}, "robbery": {}, "burglary": {}, "fire": {}, "flood": {}, "water": {},
	"hospital": {}, "doctor": {}, "sick": {}, "illness": {}, "injury": {}, "pain": {},
	"emergency": {}, "urgent": {}, "immediate": {}, "serious": {}, "severe": {},
	"witness": {}, "police": {}, "report": {}, "case": {}, "investigation": {},
	"repair": {}, "replace": {}, "cost": {}, "expensive": {}, "value": {}, "money": {},
}

// Nigerian place and street-lingo markers. Multi-word entries are
// matched as substrings of the whole transcript.
var nigerianKeywords = []string{
	"naija", "lagos", "abuja", "port harcourt", "kano",
	"okada", "keke", "danfo", "molue", "boda boda",
	"area boys", "lastma", "frsc", "efcc", "ndlea",
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "happy": {}, "satisfied": {},
	"thank": {}, "thanks": {}, "helpful": {}, "quick": {}, "fast": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "angry": {}, "frustrated": {},
	"slow": {}, "late": {}, "problem": {}, "issue": {}, "complaint": {},
	"pain": {}, "hurt": {}, "damage": {}, "lost": {}, "stolen": {},
}

var emotionKeywords = map[string]map[string]struct{}{
	"anger":    {"angry": {}, "mad": {}, "furious": {}, "rage": {}, "annoyed": {}},
	"fear":     {"scared": {}, "afraid": {}, "frightened": {}, "terrified": {}, "panic": {}},
	"sadness":  {"sad": {}, "unhappy": {}, "depressed": {}, "cry": {}, "tears": {}},
	"joy":      {"happy": {}, "joy": {}, "delighted": {}, "pleased": {}, "excited": {}},
	"surprise": {"surprised": {}, "shocked": {}, "amazed": {}, "astonished": {}},
}

// ExtractKeywords pulls insurance terms and Nigerian markers out of a
// transcript, deduplicated in first-seen order, capped at ten.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	found := []string{}
	seen := map[string]struct{}{}

	for _, w := range words {
		if _, ok := insuranceKeywords[w]; !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		found = append(found, w)
	}

	for _, marker := range nigerianKeywords {
		if !strings.Contains(lower, marker) {
			continue
		}
		if _, dup := seen[marker]; dup {
			continue
		}
		seen[marker] = struct{}{}
		found = append(found, marker)
	}

	if len(found) > maxKeywords {
		found = found[:maxKeywords]
	}
	return found
}

type Sentiment struct {
	Score  float64
	Label  string
	Counts map[string]int
}

// AnalyzeSentiment scores a transcript on a -1..1 scale from the
// balance of positive and negative lexicon hits.
func AnalyzeSentiment(text string) Sentiment {
	words := strings.Fields(strings.ToLower(text))

	pos, neg := 0, 0
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	score := 0.0
	if total := pos + neg; total > 0 {
		score = float64(pos-neg) / float64(total)
	}
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	label := types.SentimentNeutral
	if score > 0.3 {
		label = types.SentimentPositive
	} else if score < -0.3 {
		label = types.SentimentNegative
	}

	return Sentiment{
		Score: score,
		Label: label,
		Counts: map[string]int{
			"positive": pos,
			"negative": neg,
			"neutral":  len(words) - pos - neg,
		},
	}
}

// DetectEmotions counts lexicon hits per emotion. Every emotion key is
// always present in the result, zero when absent.
func DetectEmotions(text string) map[string]int {
	words := strings.Fields(strings.ToLower(text))
	scores := make(map[string]int, len(emotionKeywords))
	for emotion, lexicon := range emotionKeywords {
		count := 0
		for _, w := range words {
			if _, ok := lexicon[w]; ok {
				count++
			}
		}
		scores[emotion] = count
	}
	return scores
}

// Hesitation sounds as an STT engine tends to spell them, including
// the Nigerian "ehn"/"sha" fillers.
var fillerWords = map[string]struct{}{
	"um": {}, "uh": {}, "er": {}, "erm": {}, "ah": {}, "hmm": {},
	"em": {}, "ehm": {}, "ehn": {}, "sha": {},
}

// CountFillerWords tallies hesitation tokens in a transcript. Trailing
// punctuation on a token does not hide it.
func CountFillerWords(text string) int {
	count := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return r == '.' || r == ',' || r == '!' || r == '?' || r == ';' || r == ':'
		})
		if _, ok := fillerWords[w]; ok {
			count++
		}
	}
	return count
}

// SpeakingRate is words per minute; zero duration yields zero instead
// of a division blowup.
func SpeakingRate(wordCount int, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	return float64(wordCount) / durationSeconds * 60
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}
