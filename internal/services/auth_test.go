package services

import "testing"

func TestNormalizePhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+2348012345678", "+2348012345678"},
		{"2348012345678", "+2348012345678"},
		{"08012345678", "+2348012345678"},
		{"0801 234 5678", "+2348012345678"},
		{"0801-234-5678", "+2348012345678"},
		{" +234 801 234 5678 ", "+2348012345678"},
		// Short local numbers and foreign formats pass through untouched.
		{"0801234", "0801234"},
		{"+447911123456", "+447911123456"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhoneNumber(tc.in); got != tc.want {
			t.Fatalf("NormalizePhoneNumber(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}
