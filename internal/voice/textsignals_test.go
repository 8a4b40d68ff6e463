package voice

import (
	"reflect"
	"testing"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
)

func TestExtractKeywords(t *testing.T) {
	text := "There was a fire at my shop in Lagos and the okada rider saw the damage so we called the police"
	got := ExtractKeywords(text)
	want := []string{"fire", "damage", "police", "lagos", "okada"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords: want=%v got=%v", want, got)
	}
}

func TestExtractKeywordsFirstSeenOrder(t *testing.T) {
	got := ExtractKeywords("terrible accident with my car in lagos yesterday")
	want := []string{"accident", "lagos"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords: want=%v got=%v", want, got)
	}
}

func TestExtractKeywordsCap(t *testing.T) {
	text := "accident crash collision damage broken stolen theft robbery burglary fire flood water hospital"
	got := ExtractKeywords(text)
	if len(got) != maxKeywords {
		t.Fatalf("ExtractKeywords cap: want=%d got=%d (%v)", maxKeywords, len(got), got)
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	if got := ExtractKeywords("nothing relevant here"); len(got) != 0 {
		t.Fatalf("ExtractKeywords: want empty, got %v", got)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	cases := []struct {
		name      string
		text      string
		wantScore float64
		wantLabel string
	}{
		{"positive", "I am very happy", 1, types.SentimentPositive},
		{"negative", "This is terrible", -1, types.SentimentNegative},
		{"strongly positive", "the service was good and fast and helpful", 1, types.SentimentPositive},
		{"mixed", "good but slow", 0, types.SentimentNeutral},
		{"no lexicon hits", "the incident happened yesterday", 0, types.SentimentNeutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AnalyzeSentiment(tc.text)
			if got.Score != tc.wantScore {
				t.Fatalf("score: want=%v got=%v", tc.wantScore, got.Score)
			}
			if got.Label != tc.wantLabel {
				t.Fatalf("label: want=%q got=%q", tc.wantLabel, got.Label)
			}
		})
	}
}

func TestAnalyzeSentimentCounts(t *testing.T) {
	got := AnalyzeSentiment("good good bad something else")
	if got.Counts["positive"] != 2 || got.Counts["negative"] != 1 || got.Counts["neutral"] != 2 {
		t.Fatalf("counts: got %v", got.Counts)
	}
}

func TestDetectEmotions(t *testing.T) {
	got := DetectEmotions("I was scared and angry, really angry")
	if got["fear"] != 1 {
		t.Fatalf("fear: want=1 got=%d", got["fear"])
	}
	if got["anger"] != 1 {
		t.Fatalf("anger: want=1 got=%d", got["anger"])
	}
	// "angry," with trailing punctuation does not match; only the bare
	// word counts.
	for _, emotion := range []string{"sadness", "joy", "surprise"} {
		if _, ok := got[emotion]; !ok {
			t.Fatalf("emotion %q missing from result", emotion)
		}
		if got[emotion] != 0 {
			t.Fatalf("emotion %q: want=0 got=%d", emotion, got[emotion])
		}
	}
}

func TestSpeakingRate(t *testing.T) {
	if got := SpeakingRate(3, 10); got != 18 {
		t.Fatalf("SpeakingRate(3, 10): want=18 got=%v", got)
	}
	if got := SpeakingRate(100, 0); got != 0 {
		t.Fatalf("SpeakingRate with zero duration: want=0 got=%v", got)
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  one two   three "); got != 3 {
		t.Fatalf("WordCount: want=3 got=%d", got)
	}
}

func TestCountFillerWords(t *testing.T) {
	if got := CountFillerWords("Um, the okada hit me and, ehm, I fell sha."); got != 3 {
		t.Fatalf("CountFillerWords: want=3 got=%d", got)
	}
	if got := CountFillerWords("the fire destroyed everything"); got != 0 {
		t.Fatalf("CountFillerWords clean text: want=0 got=%d", got)
	}
	if got := CountFillerWords(""); got != 0 {
		t.Fatalf("CountFillerWords empty: want=0 got=%d", got)
	}
}

func TestExtractionIsPure(t *testing.T) {
	transcript := "there was a terrible accident in lagos and I was scared and angry"

	if !reflect.DeepEqual(ExtractKeywords(transcript), ExtractKeywords(transcript)) {
		t.Fatalf("ExtractKeywords: repeated runs differ")
	}
	if a, b := AnalyzeSentiment(transcript), AnalyzeSentiment(transcript); a.Score != b.Score || a.Label != b.Label || !reflect.DeepEqual(a.Counts, b.Counts) {
		t.Fatalf("AnalyzeSentiment: repeated runs differ")
	}
	if !reflect.DeepEqual(DetectEmotions(transcript), DetectEmotions(transcript)) {
		t.Fatalf("DetectEmotions: repeated runs differ")
	}
}

func TestQualityFor(t *testing.T) {
	cases := []struct {
		dbfs  float64
		noise float64
		want  string
	}{
		{-10, 500, types.QualityGood},
		{-25, 500, types.QualityFair},
		{-10, 3000, types.QualityFair},
		{-40, 500, types.QualityPoor},
		{-25, 8000, types.QualityPoor},
	}
	for _, tc := range cases {
		if got := QualityFor(tc.dbfs, tc.noise); got != tc.want {
			t.Fatalf("QualityFor(%v, %v): want=%q got=%q", tc.dbfs, tc.noise, tc.want, got)
		}
	}
}
