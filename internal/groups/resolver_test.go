package groups

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekintas/valentino-matchingas/internal/matching"
	"github.com/weekintas/valentino-matchingas/internal/model"
)

func intPtr(v int) *int { return &v }

// testPool builds four respondents in two klase buckets with a fixed matrix:
//
//	0 (Ona, F)    -- 95 -- 1 (Jonas, M)   klase=2a
//	0             -- 80 -- 2 (Petras, M)  klase=2a
//	0             -- 60 -- 3 (Tomas, M)   klase=2b
func testPool(t *testing.T) ([]model.Respondent, *matching.Matrix) {
	t.Helper()
	everyone := []model.Gender{model.GenderMale, model.GenderFemale}
	respondents := []model.Respondent{
		{ID: 0, FullName: "Ona Onaitė", Gender: model.GenderFemale, MatchGenders: []model.Gender{model.GenderMale}, Groups: map[string]string{"klase": "2a"}},
		{ID: 1, FullName: "Jonas Jonaitis", Gender: model.GenderMale, MatchGenders: everyone, Groups: map[string]string{"klase": "2a"}},
		{ID: 2, FullName: "Petras Petraitis", Gender: model.GenderMale, MatchGenders: everyone, Groups: map[string]string{"klase": "2a"}},
		{ID: 3, FullName: "Tomas Tomaitis", Gender: model.GenderMale, MatchGenders: everyone, Groups: map[string]string{"klase": "2b"}},
	}

	matrix := matching.NewMatrix(4)
	scores := map[[2]int]float64{
		{0, 1}: 95, {0, 2}: 80, {0, 3}: 60,
		{1, 2}: 70, {1, 3}: 50, {2, 3}: 40,
	}
	for pair, score := range scores {
		require.NoError(t, matrix.Set(pair[0], pair[1], score))
	}
	return respondents, matrix
}

func testConfig(t *testing.T, groups ...Group) *Config {
	t.Helper()
	cfg, err := NewConfig(groups)
	require.NoError(t, err)
	return cfg
}

func TestResolver_OrdersGroupsAndRanksMatches(t *testing.T) {
	respondents, matrix := testPool(t)
	cfg := testConfig(t,
		Group{Code: AllMatchesCode, Title: Const("Visi"), Order: 1},
		Group{Code: "klase", Title: Const("Klasėje"), Order: 0},
	)

	r := NewResolver(respondents, matrix, cfg, Defaults{Precision: intPtr(0)})
	resolved, top, err := r.Resolve(respondents[0])
	require.NoError(t, err)

	require.Len(t, resolved, 2)
	assert.Equal(t, "Klasėje", resolved[0].Title, "lower order comes first")
	assert.Equal(t, "Visi", resolved[1].Title)

	// klase=2a holds Jonas and Petras, ranked by score.
	require.Len(t, resolved[0].Results, 2)
	assert.Equal(t, "Jonas Jonaitis", resolved[0].Results[0].FullName)
	assert.Equal(t, "95", resolved[0].Results[0].Compatibility)
	assert.Equal(t, "Petras Petraitis", resolved[0].Results[1].FullName)

	// the whole pool includes Tomas from the other bucket
	require.Len(t, resolved[1].Results, 3)
	assert.Equal(t, "Tomas Tomaitis", resolved[1].Results[2].FullName)

	require.NotNil(t, top)
	assert.Equal(t, "Jonas Jonaitis", top.FullName)
	assert.Equal(t, 95.0, top.Score)
}

func TestResolver_GenderFilter(t *testing.T) {
	respondents, matrix := testPool(t)
	cfg := testConfig(t,
		Group{Code: AllMatchesCode, Order: 0},
		Group{Code: "klase", Order: 1},
	)

	// Jonas accepts both genders, so he sees everyone.
	r := NewResolver(respondents, matrix, cfg, Defaults{})
	resolved, _, err := r.Resolve(respondents[1])
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Len(t, resolved[0].Results, 3)

	// Ona only matches with men, so no women appear anywhere.
	resolved, _, err = r.Resolve(respondents[0])
	require.NoError(t, err)
	for _, group := range resolved {
		for _, res := range group.Results {
			assert.NotEqual(t, "Ona Onaitė", res.FullName)
		}
	}
}

func TestResolver_MaxResultsTruncation(t *testing.T) {
	respondents, matrix := testPool(t)
	respondents[0].Groups = map[string]string{}

	cfg := testConfig(t, Group{Code: AllMatchesCode, MaxResults: Const(intPtr(1))})
	r := NewResolver(respondents, matrix, cfg, Defaults{})
	resolved, _, err := r.Resolve(respondents[0])
	require.NoError(t, err)
	require.Len(t, resolved[0].Results, 1)
	assert.Equal(t, "Jonas Jonaitis", resolved[0].Results[0].FullName)

	// default limit applies when the group leaves it unset
	cfg = testConfig(t, Group{Code: AllMatchesCode})
	r = NewResolver(respondents, matrix, cfg, Defaults{MaxResults: intPtr(2)})
	resolved, _, err = r.Resolve(respondents[0])
	require.NoError(t, err)
	assert.Len(t, resolved[0].Results, 2)

	// explicit nil means unlimited even with a default set
	cfg = testConfig(t, Group{Code: AllMatchesCode, MaxResults: Const[*int](nil)})
	r = NewResolver(respondents, matrix, cfg, Defaults{MaxResults: intPtr(1)})
	resolved, _, err = r.Resolve(respondents[0])
	require.NoError(t, err)
	assert.Len(t, resolved[0].Results, 3)
}

func TestResolver_EmptyGroupSuppression(t *testing.T) {
	respondents, matrix := testPool(t)
	respondents[3].MatchGenders = []model.Gender{model.GenderFemale}
	respondents[3].Groups = map[string]string{"klase": "2b"}

	cfg := testConfig(t,
		Group{Code: AllMatchesCode, VisibleWhenEmpty: true},
		Group{Code: "klase", Title: Const("Klasėje")},
	)
	r := NewResolver(respondents, matrix, cfg, Defaults{})

	// Only Ona passes Tomas's filter and she is in 2a, so klase is empty
	// and hidden while the pool group stays.
	resolved, _, err := r.Resolve(respondents[3])
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, AllMatchesCode, resolved[0].Code)

	// with the flag set, the empty group is kept
	cfg = testConfig(t,
		Group{Code: AllMatchesCode, VisibleWhenEmpty: true},
		Group{Code: "klase", Title: Const("Klasėje"), VisibleWhenEmpty: true},
	)
	r = NewResolver(respondents, matrix, cfg, Defaults{})
	resolved, _, err = r.Resolve(respondents[3])
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Empty(t, resolved[1].Results)
}

func TestResolver_VisibilityRule(t *testing.T) {
	respondents, matrix := testPool(t)
	cfg := testConfig(t,
		Group{Code: AllMatchesCode},
		Group{Code: "klase", Visible: Const(false), VisibleWhenEmpty: true},
	)

	r := NewResolver(respondents, matrix, cfg, Defaults{})
	resolved, _, err := r.Resolve(respondents[0])
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, AllMatchesCode, resolved[0].Code)
}

func TestResolver_UnknownGroupMembership(t *testing.T) {
	respondents, matrix := testPool(t)
	cfg := testConfig(t, Group{Code: AllMatchesCode})

	r := NewResolver(respondents, matrix, cfg, Defaults{})
	_, _, err := r.Resolve(respondents[0])
	require.Error(t, err, "klase membership has no configured group")
	assert.True(t, eris.Is(err, ErrUnknownGroup))
}

func TestResolver_NameFormatAndDescription(t *testing.T) {
	respondents, matrix := testPool(t)
	cfg := testConfig(t,
		Group{Code: AllMatchesCode},
		Group{
			Code:        "klase",
			NameFormat:  ByMatchFunc(func(_ RuleContext, m model.Respondent) string { return m.FullName + " iš " + m.Groups["klase"] }),
			Description: MatchConst("bendraklasis"),
		},
	)

	r := NewResolver(respondents, matrix, cfg, Defaults{})
	resolved, _, err := r.Resolve(respondents[0])
	require.NoError(t, err)

	var klase model.GroupResult
	for _, g := range resolved {
		if g.Code == "klase" {
			klase = g
		}
	}
	require.NotEmpty(t, klase.Results)
	assert.Equal(t, "Jonas Jonaitis iš 2a", klase.Results[0].FullName)
	assert.Equal(t, "bendraklasis", klase.Results[0].Description)
}

func TestResolver_NoMatchesAnywhere(t *testing.T) {
	respondents, matrix := testPool(t)
	// Nobody matches with "other" respondents.
	respondents[0].MatchGenders = []model.Gender{model.GenderOther}
	cfg := testConfig(t,
		Group{Code: AllMatchesCode},
		Group{Code: "klase"},
	)

	r := NewResolver(respondents, matrix, cfg, Defaults{})
	resolved, top, err := r.Resolve(respondents[0])
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Nil(t, top)
}

func TestFormatCompatibility(t *testing.T) {
	assert.Equal(t, "87.5", FormatCompatibility(87.5, nil))
	assert.Equal(t, "88", FormatCompatibility(87.5, intPtr(0)))
	assert.Equal(t, "87.50", FormatCompatibility(87.5, intPtr(2)))
	assert.Equal(t, "100", FormatCompatibility(100, nil))
}
