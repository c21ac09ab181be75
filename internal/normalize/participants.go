package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// separatorRe splits an event title on the usual matchup separators. "@" means
// away-at-home and needs no surrounding word characters.
var separatorRe = regexp.MustCompile(`(?i)\s+(?:vs\.?|v\.?|versus|at)\s+|\s*@\s*`)

// nflTeamAliases maps a canonical team name to the keywords that identify it in
// market titles (nickname, city, common abbreviation).
var nflTeamAliases = map[string][]string{
	"Patriots":   {"PATRIOTS", "NEW ENGLAND", "NE"},
	"Bills":      {"BILLS", "BUFFALO", "BUF"},
	"Bengals":    {"BENGALS", "CINCINNATI", "CIN"},
	"Browns":     {"BROWNS", "CLEVELAND", "CLE"},
	"Ravens":     {"RAVENS", "BALTIMORE", "BAL"},
	"Steelers":   {"STEELERS", "PITTSBURGH", "PIT"},
	"Colts":      {"COLTS", "INDIANAPOLIS", "IND"},
	"Jaguars":    {"JAGUARS", "JACKSONVILLE", "JAX"},
	"Texans":     {"TEXANS", "HOUSTON", "HOU"},
	"Titans":     {"TITANS", "TENNESSEE", "TEN"},
	"Broncos":    {"BRONCOS", "DENVER", "DEN"},
	"Chiefs":     {"CHIEFS", "KANSAS CITY", "KC"},
	"Raiders":    {"RAIDERS", "LAS VEGAS", "LV"},
	"Chargers":   {"CHARGERS", "LAC"},
	"Cowboys":    {"COWBOYS", "DALLAS", "DAL"},
	"Eagles":     {"EAGLES", "PHILADELPHIA", "PHI"},
	"Giants":     {"GIANTS", "NYG"},
	"Commanders": {"COMMANDERS", "WASHINGTON", "WAS"},
	"Bears":      {"BEARS", "CHICAGO", "CHI"},
	"Lions":      {"LIONS", "DETROIT", "DET"},
	"Packers":    {"PACKERS", "GREEN BAY", "GB"},
	"Vikings":    {"VIKINGS", "MINNESOTA", "MIN"},
	"Falcons":    {"FALCONS", "ATLANTA", "ATL"},
	"Panthers":   {"PANTHERS", "CAROLINA", "CAR"},
	"Saints":     {"SAINTS", "NEW ORLEANS", "NO"},
	"Buccaneers": {"BUCCANEERS", "TAMPA BAY", "TB"},
	"Cardinals":  {"CARDINALS", "ARIZONA", "ARI"},
	"Rams":       {"RAMS", "LAR"},
	"49ers":      {"49ERS", "SAN FRANCISCO", "SF"},
	"Seahawks":   {"SEAHAWKS", "SEATTLE", "SEA"},
}

// extractParticipants resolves the two sides of an event from its title.
// It first splits on matchup separators; if that does not yield exactly two
// sides, it scans the title for known team keywords. The returned count is the
// number of distinct participants resolved; a and b are set only when count
// is exactly 2.
func extractParticipants(title string) (a, b string, count int) {
	parts := separatorRe.Split(title, -1)
	if len(parts) == 2 {
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		if left != "" && right != "" && !strings.EqualFold(left, right) {
			return left, right, 2
		}
	}

	matches := scanTeamAliases(title)
	if len(matches) == 2 {
		return matches[0], matches[1], 2
	}
	return "", "", len(matches)
}

// CanonicalTeam maps a team name, city, or abbreviation to its canonical
// nickname, so "Kansas City Chiefs", "KC", and "Chiefs" all group together.
// Names that do not resolve to exactly one team are returned unchanged.
func CanonicalTeam(name string) string {
	matches := scanTeamAliases(name)
	if len(matches) == 1 {
		return matches[0]
	}
	return name
}

// scanTeamAliases returns canonical team names found in the title, ordered by
// first appearance. Keywords match on word boundaries so short abbreviations
// do not fire inside unrelated words.
func scanTeamAliases(title string) []string {
	padded := " " + nonWordRe.ReplaceAllString(strings.ToUpper(title), " ") + " "

	type hit struct {
		team string
		pos  int
	}
	var hits []hit
	for team, keywords := range nflTeamAliases {
		best := -1
		for _, kw := range keywords {
			if i := strings.Index(padded, " "+kw+" "); i >= 0 && (best < 0 || i < best) {
				best = i
			}
		}
		if best >= 0 {
			hits = append(hits, hit{team, best})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	teams := make([]string, 0, len(hits))
	for _, h := range hits {
		teams = append(teams, h.team)
	}
	return teams
}

var nonWordRe = regexp.MustCompile(`[^A-Z0-9]+`)
