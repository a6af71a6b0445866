package campaign

import "testing"

func TestNormalizeStatusLabelAcceptsEnumForms(t *testing.T) {
	cases := []struct {
		label string
		want  Status
		ok    bool
	}{
		{"draft", StatusDraft, true},
		{"  PAUSED ", StatusPaused, true},
		{"CAMPAIGN_STATUS_SENDING", StatusSending, true},
		{"", StatusUnspecified, false},
		{"shipped", StatusUnspecified, false},
	}
	for _, tc := range cases {
		got, ok := NormalizeStatusLabel(tc.label)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NormalizeStatusLabel(%q) = %q, %v, want %q, %v", tc.label, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsStatusTransitionAllowed(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusScheduled},
		{StatusScheduled, StatusScheduled},
		{StatusScheduled, StatusSending},
		{StatusSending, StatusPaused},
		{StatusPaused, StatusSending},
		{StatusSending, StatusCompleted},
	}
	for _, tc := range allowed {
		if !IsStatusTransitionAllowed(tc.from, tc.to) {
			t.Fatalf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusDraft, StatusPaused},
		{StatusDraft, StatusCompleted},
		{StatusPaused, StatusCompleted},
		{StatusCompleted, StatusSending},
		{StatusCanceled, StatusScheduled},
		{StatusFailed, StatusSending},
	}
	for _, tc := range denied {
		if IsStatusTransitionAllowed(tc.from, tc.to) {
			t.Fatalf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}
