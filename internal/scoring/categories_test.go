package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
)

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		name          string
		category      string
		expectedLevel int
		expectedKind  string
	}{
		{"junior with type", "Junior Dance", 1, "Dance"},
		{"intermediate with type", "Intermediate Vocal", 2, "Vocal"},
		{"senior with type", "Senior Dance", 3, "Dance"},
		{"no level word", "Art", 4, "Art"},
		{"case insensitive", "JUNIOR Quiz", 1, "Quiz"},
		{"level word only keeps name as type", "Senior", 3, "Senior"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			level, kind := parseCategory(tc.category)
			assert.Equal(t, tc.expectedLevel, level)
			assert.Equal(t, tc.expectedKind, kind)
		})
	}
}

func TestCategoryLess(t *testing.T) {
	t.Run("type sorts before level", func(t *testing.T) {
		// Art < Junior Dance < Senior Dance: "Dance" groups together and
		// orders by level inside the group.
		assert.True(t, CategoryLess("Art", "Junior Dance"))
		assert.True(t, CategoryLess("Junior Dance", "Senior Dance"))
		assert.False(t, CategoryLess("Senior Dance", "Art"))
	})

	t.Run("junior before intermediate before senior", func(t *testing.T) {
		assert.True(t, CategoryLess("Junior Vocal", "Intermediate Vocal"))
		assert.True(t, CategoryLess("Intermediate Vocal", "Senior Vocal"))
	})

	t.Run("unleveled variant of a type sorts last in group", func(t *testing.T) {
		assert.True(t, CategoryLess("Senior Dance", "Dance"))
	})
}

func TestEngine_Categorize(t *testing.T) {
	engine := NewEngine(TieShareRank, "General Category")

	participants := []models.Participant{
		{ID: 1, TeamID: "t1", Category: strPtr("Senior Dance")},
		{ID: 2, TeamID: "t2", Category: strPtr("Art")},
		{ID: 3, TeamID: "t3", Category: strPtr("Junior Dance")},
		{ID: 4, TeamID: "t4", Category: nil},
		{ID: 5, TeamID: "t1", Category: strPtr("Senior Dance")},
	}

	groups := engine.Categorize(participants)

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Category
	}
	assert.Equal(t, []string{"Art", "Junior Dance", "Senior Dance", "General Category"}, names)

	t.Run("teams built within each group", func(t *testing.T) {
		for _, g := range groups {
			if g.Category == "Senior Dance" {
				assert.Len(t, g.Participants, 2)
				assert.Len(t, g.Teams, 1, "shared team_id groups into one team")
			}
		}
	})

	t.Run("order independent of row order", func(t *testing.T) {
		reversed := make([]models.Participant, 0, len(participants))
		for i := len(participants) - 1; i >= 0; i-- {
			reversed = append(reversed, participants[i])
		}

		regrouped := engine.Categorize(reversed)
		renames := make([]string, len(regrouped))
		for i, g := range regrouped {
			renames[i] = g.Category
		}
		assert.Equal(t, names, renames)
	})
}
