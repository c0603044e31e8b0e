package backboard

import "testing"

func TestSummaryEmpty(t *testing.T) {
	got := Summary(nil, 10)
	if got != NoPriorActivity {
		t.Errorf("Expected %q, got %q", NoPriorActivity, got)
	}

	got = Summary([]string{}, 10)
	if got != NoPriorActivity {
		t.Errorf("Expected %q for empty slice, got %q", NoPriorActivity, got)
	}
}

func TestSummaryReversesToChronological(t *testing.T) {
	// The store hands back newest-first; the summary must read oldest-first.
	newestFirst := []string{"third", "second", "first"}
	got := Summary(newestFirst, 10)
	want := "Past during this stay (oldest first): first; second; third"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSummaryLimit(t *testing.T) {
	tests := []struct {
		name     string
		memories []string
		limit    int
		want     string
	}{
		{
			name:     "limit keeps most recent entries",
			memories: []string{"e", "d", "c", "b", "a"},
			limit:    3,
			want:     "Past during this stay (oldest first): c; d; e",
		},
		{
			name:     "limit larger than input",
			memories: []string{"b", "a"},
			limit:    10,
			want:     "Past during this stay (oldest first): a; b",
		},
		{
			name:     "limit below one clamps to one",
			memories: []string{"b", "a"},
			limit:    0,
			want:     "Past during this stay (oldest first): b",
		},
		{
			name:     "single entry",
			memories: []string{"only"},
			limit:    10,
			want:     "Past during this stay (oldest first): only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary(tt.memories, tt.limit)
			if got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
