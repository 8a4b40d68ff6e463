package services

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestSplitUSSDText(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"1", []string{"1"}},
		{"1*2", []string{"1", "2"}},
		{" 1 * 2 *3", []string{"1", "2", "3"}},
		{"2**", []string{"2", "", ""}},
	}
	for _, tc := range cases {
		if got := splitUSSDText(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitUSSDText(%q): want=%v got=%v", tc.in, tc.want, got)
		}
	}
}

func TestPickSessionID(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	ids := []string{first.String(), second.String()}

	if got, ok := pickSessionID(ids, "1"); !ok || got != first {
		t.Fatalf("pickSessionID 1: want=%s got=%s ok=%v", first, got, ok)
	}
	if got, ok := pickSessionID(ids, "2"); !ok || got != second {
		t.Fatalf("pickSessionID 2: want=%s got=%s ok=%v", second, got, ok)
	}

	bad := []string{"0", "3", "-1", "abc", ""}
	for _, choice := range bad {
		if _, ok := pickSessionID(ids, choice); ok {
			t.Fatalf("pickSessionID(%q): want ok=false", choice)
		}
	}

	if _, ok := pickSessionID([]string{"not-a-uuid"}, "1"); ok {
		t.Fatalf("pickSessionID: malformed stored id accepted")
	}
}
