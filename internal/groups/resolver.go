package groups

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/matching"
	"github.com/weekintas/valentino-matchingas/internal/model"
)

// Defaults supplies the app-level fallbacks for group fields left unset in
// configuration. Nil means unlimited results / unrounded scores.
type Defaults struct {
	MaxResults *int
	Precision  *int
}

// Resolver computes the ordered display groups for one respondent at a time
// from the completed matrix. It holds only immutable inputs and is safe for
// concurrent use.
type Resolver struct {
	respondents map[int]model.Respondent
	matrix      *matching.Matrix
	config      *Config
	defaults    Defaults
}

// NewResolver indexes the respondent list by id.
func NewResolver(respondents []model.Respondent, matrix *matching.Matrix, config *Config, defaults Defaults) *Resolver {
	byID := make(map[int]model.Respondent, len(respondents))
	for _, r := range respondents {
		byID[r.ID] = r
	}
	return &Resolver{respondents: byID, matrix: matrix, config: config, defaults: defaults}
}

// Resolve returns the respondent's visible groups in display order plus the
// derived top match (nil when every group is empty).
func (r *Resolver) Resolve(respondent model.Respondent) ([]model.GroupResult, *model.MatchResult, error) {
	candidates, err := r.genderFilteredMatches(respondent)
	if err != nil {
		return nil, nil, err
	}

	partitioned := partition(respondent, r.respondents, candidates)

	ctx := RuleContext{Groups: r.config.All(), Respondent: respondent}

	type orderedResult struct {
		order int
		pos   int // config-file position, keeps order ties stable
		res   model.GroupResult
	}
	var resolved []orderedResult

	for pos, group := range r.config.All() {
		matches, belongs := partitioned[group.Code]
		if !belongs {
			continue
		}
		if group.Visible.IsSet() && !group.Visible.Resolve(ctx) {
			continue
		}

		results := r.groupResults(ctx, group, matches)
		if len(results) == 0 && !group.VisibleWhenEmpty {
			continue
		}

		title := group.Code
		if group.Title.IsSet() {
			title = group.Title.Resolve(ctx)
		}

		resolved = append(resolved, orderedResult{
			order: group.Order,
			pos:   pos,
			res:   model.GroupResult{Code: group.Code, Title: title, Results: results},
		})
	}

	// Membership codes without configuration are a config/data mismatch and
	// abort this respondent's resolution.
	for code := range partitioned {
		if _, err := r.config.ByCode(code); err != nil {
			return nil, nil, eris.Wrapf(ErrUnknownGroup, "respondent %d belongs to group %q", respondent.ID, code)
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].order != resolved[j].order {
			return resolved[i].order < resolved[j].order
		}
		return resolved[i].pos < resolved[j].pos
	})

	out := make([]model.GroupResult, 0, len(resolved))
	for _, item := range resolved {
		out = append(out, item.res)
	}
	return out, topMatch(out), nil
}

// genderFilteredMatches returns every other respondent of a wanted gender
// with their matrix score, sorted by score descending. The sort is stable so
// ties keep the original respondent order.
func (r *Resolver) genderFilteredMatches(respondent model.Respondent) ([]model.Match, error) {
	scores := r.matrix.ScoresFor(respondent.ID)

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	matches := make([]model.Match, 0, len(ids))
	for _, id := range ids {
		other, ok := r.respondents[id]
		if !ok {
			return nil, eris.Errorf("groups: matrix references unknown respondent %d", id)
		}
		if !respondent.WantsGender(other.Gender) {
			continue
		}
		matches = append(matches, model.Match{RespondentID: id, Compatibility: scores[id]})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Compatibility > matches[j].Compatibility
	})
	return matches, nil
}

// partition buckets the gender-filtered candidates into the respondent's
// groups. A candidate lands in every group whose key and value it shares
// with the respondent; the reserved entire-pool code gets the full list.
func partition(respondent model.Respondent, all map[int]model.Respondent, candidates []model.Match) map[string][]model.Match {
	buckets := map[string][]model.Match{AllMatchesCode: candidates}

	for key, value := range respondent.Groups {
		buckets[key] = []model.Match{}
		for _, candidate := range candidates {
			if all[candidate.RespondentID].Groups[key] == value {
				buckets[key] = append(buckets[key], candidate)
			}
		}
	}
	return buckets
}

// groupResults ranks, truncates and formats one group's candidates.
func (r *Resolver) groupResults(ctx RuleContext, group Group, matches []model.Match) []model.MatchResult {
	ranked := make([]model.Match, len(matches))
	copy(ranked, matches)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Compatibility > ranked[j].Compatibility
	})

	limit := r.defaults.MaxResults
	if group.MaxResults.IsSet() {
		limit = group.MaxResults.Resolve(ctx)
	}
	if limit != nil && len(ranked) > *limit {
		ranked = ranked[:*limit]
	}

	precision := r.defaults.Precision
	if group.Precision.IsSet() {
		precision = group.Precision.Resolve(ctx)
	}

	results := make([]model.MatchResult, 0, len(ranked))
	for _, match := range ranked {
		candidate := r.respondents[match.RespondentID]

		name := candidate.FullName
		if group.NameFormat.IsSet() {
			name = group.NameFormat.Resolve(ctx, candidate)
		}

		var description string
		if group.Description.IsSet() {
			description = group.Description.Resolve(ctx, candidate)
		}

		results = append(results, model.MatchResult{
			FullName:      name,
			Description:   description,
			Compatibility: FormatCompatibility(match.Compatibility, precision),
			Score:         match.Compatibility,
		})
	}
	return results
}

// FormatCompatibility renders a score with the given decimal precision.
// A nil precision leaves the score in its shortest exact form.
func FormatCompatibility(score float64, precision *int) string {
	if precision == nil {
		return strconv.FormatFloat(score, 'f', -1, 64)
	}
	return strconv.FormatFloat(score, 'f', *precision, 64)
}

// topMatch picks the highest-scoring first entry across the resolved groups.
func topMatch(resolved []model.GroupResult) *model.MatchResult {
	var top *model.MatchResult
	for i := range resolved {
		if len(resolved[i].Results) == 0 {
			continue
		}
		first := resolved[i].Results[0]
		if top == nil || first.Score > top.Score {
			top = &first
		}
	}
	if top == nil {
		return nil
	}
	clone := *top
	return &clone
}
