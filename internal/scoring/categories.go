package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

var levelWords = []struct {
	re   *regexp.Regexp
	rank int
}{
	{regexp.MustCompile(`(?i)junior\s*`), 1},
	{regexp.MustCompile(`(?i)intermediate\s*`), 2},
	{regexp.MustCompile(`(?i)senior\s*`), 3},
}

// parseCategory splits "Junior Dance" into its level rank (junior=1,
// intermediate=2, senior=3, unspecified=4) and the remaining type string.
// A name that is nothing but a level word keeps its original name as type.
func parseCategory(name string) (level int, kind string) {
	level = 4
	kind = name
	for _, lw := range levelWords {
		if lw.re.MatchString(kind) {
			if level == 4 {
				level = lw.rank
			}
			kind = lw.re.ReplaceAllString(kind, "")
		}
	}
	kind = strings.TrimSpace(kind)
	if kind == "" {
		kind = name
	}
	return level, kind
}

// CategoryLess orders category names by type first (level words stripped,
// case-folded lexicographic) and by level rank second, so "Art" sorts before
// "Junior Dance" which sorts before "Senior Dance". Deterministic across
// reloads regardless of row order.
func CategoryLess(a, b string) bool {
	levelA, kindA := parseCategory(a)
	levelB, kindB := parseCategory(b)
	if c := strings.Compare(strings.ToLower(kindA), strings.ToLower(kindB)); c != 0 {
		return c < 0
	}
	return levelA < levelB
}

type CategoryGroup struct {
	Category     string               `json:"category"`
	Participants []models.Participant `json:"participants"`
	Teams        []Team               `json:"teams"`
}

// Categorize partitions participants into independently ranked category
// pools, building the team grouping within each. Participants without a
// category land in the engine's default pool. Output order follows
// CategoryLess.
func (e *Engine) Categorize(participants []models.Participant) []CategoryGroup {
	var groups []CategoryGroup
	byName := make(map[string]int)
	for _, p := range participants {
		name := e.DefaultCategory
		if p.Category != nil && *p.Category != "" {
			name = *p.Category
		}
		i, ok := byName[name]
		if !ok {
			i = len(groups)
			byName[name] = i
			groups = append(groups, CategoryGroup{Category: name})
		}
		groups[i].Participants = append(groups[i].Participants, p)
	}
	for i := range groups {
		groups[i].Teams = BuildTeams(groups[i].Participants)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return CategoryLess(groups[i].Category, groups[j].Category)
	})
	return groups
}
