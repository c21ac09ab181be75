package normalize

import "testing"

func TestExtractParticipants(t *testing.T) {
	tests := []struct {
		name  string
		title string
		wantA string
		wantB string
		count int
	}{
		{"vs", "Kansas City Chiefs vs Buffalo Bills", "Kansas City Chiefs", "Buffalo Bills", 2},
		{"vs dot", "Eagles vs. Cowboys", "Eagles", "Cowboys", 2},
		{"v", "Packers v Bears", "Packers", "Bears", 2},
		{"at sign", "Bills @ Chiefs", "Bills", "Chiefs", 2},
		{"at word", "Lions at Vikings", "Lions", "Vikings", 2},
		{"versus", "Ravens versus Steelers", "Ravens", "Steelers", 2},
		{"case insensitive", "ravens VS steelers", "ravens", "steelers", 2},
		{"alias fallback", "Will the Chiefs beat the Bills?", "Chiefs", "Bills", 2},
		{"alias order", "Can Buffalo upset Kansas City this week?", "Bills", "Chiefs", 2},
		{"no participants", "Will it rain in Seattle on Sunday?", "", "", 1},
		{"single team", "Chiefs to win the Super Bowl", "", "", 1},
		{"too many teams", "Chiefs, Bills and Ravens all win", "", "", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, count := extractParticipants(tt.title)
			if a != tt.wantA || b != tt.wantB || count != tt.count {
				t.Errorf("extractParticipants(%q) = (%q, %q, %d), want (%q, %q, %d)",
					tt.title, a, b, count, tt.wantA, tt.wantB, tt.count)
			}
		})
	}
}

func TestExtractParticipantsNoFalseAbbreviations(t *testing.T) {
	// "Vegas" must not split on the embedded "v" and "Denver" must not match
	// the DEN abbreviation mid-word.
	a, b, count := extractParticipants("Las Vegas Raiders vs Denver Broncos")
	if a != "Las Vegas Raiders" || b != "Denver Broncos" || count != 2 {
		t.Errorf("got (%q, %q, %d)", a, b, count)
	}
}
