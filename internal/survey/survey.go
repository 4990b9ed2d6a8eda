// Package survey parses respondent data files (CSV or XLSX) into typed
// questions, group columns and respondents.
package survey

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

// Header constants of the data-file schema.
const (
	headerFullName     = "FULL_NAME"
	headerGender       = "GENDER"
	headerMatchGenders = "GENDERS_TO_MATCH_WITH"
	headerGroupPrefix  = "GROUP"

	// paramDelimiter separates parameters inside a heading, e.g. "SC|4" or
	// "GROUP|klase|Klaseje:|5".
	paramDelimiter = "|"
)

// GroupColumn describes one GROUP heading: the group key plus the optional
// display title and result limit embedded in the header.
type GroupColumn struct {
	Key        string
	Title      string
	MaxResults *int
}

// Survey is a fully parsed data file.
type Survey struct {
	Questions   []model.Question
	GroupCols   []GroupColumn
	Respondents []model.Respondent
}

// Options configures parsing. Zero values fall back to the conventional
// delimiters: "," between cells and ";" between options inside one cell.
type Options struct {
	Delimiter      string
	MultiDelimiter string
}

func (o Options) multi() string {
	if o.MultiDelimiter == "" {
		return ";"
	}
	return o.MultiDelimiter
}

func (o Options) cell() rune {
	if o.Delimiter == "" {
		return ','
	}
	return []rune(o.Delimiter)[0]
}

// header holds the column layout inferred from the first row.
type header struct {
	fullName     int
	gender       int // -1 when absent
	matchGenders int // -1 when absent
	groups       map[int]GroupColumn
	questions    map[int]model.Question
}

// parseHeader infers the column layout. Question ids are column indexes, so
// they are unique by construction.
func parseHeader(row []string) (*header, error) {
	h := &header{
		fullName:     -1,
		gender:       -1,
		matchGenders: -1,
		groups:       map[int]GroupColumn{},
		questions:    map[int]model.Question{},
	}

	for i, heading := range row {
		heading = strings.TrimSpace(heading)
		switch {
		case heading == headerFullName:
			h.fullName = i
		case heading == headerGender:
			h.gender = i
		case heading == headerMatchGenders:
			h.matchGenders = i
		case strings.HasPrefix(heading, headerGroupPrefix+paramDelimiter):
			col, err := parseGroupHeading(heading, i)
			if err != nil {
				return nil, err
			}
			h.groups[i] = col
		default:
			qt, ok := model.ParseQuestionType(heading)
			if !ok {
				continue
			}
			q, err := parseQuestionHeading(heading, qt, i)
			if err != nil {
				return nil, err
			}
			h.questions[i] = q
		}
	}

	if h.fullName < 0 {
		return nil, eris.Errorf("survey: header must contain a %s column", headerFullName)
	}
	if (h.gender < 0) != (h.matchGenders < 0) {
		return nil, eris.Errorf("survey: %s and %s columns must be specified together", headerGender, headerMatchGenders)
	}
	return h, nil
}

// parseGroupHeading parses "GROUP|key[|title[|max_results]]".
func parseGroupHeading(heading string, index int) (GroupColumn, error) {
	parts := strings.Split(heading, paramDelimiter)
	if len(parts) < 2 || parts[1] == "" {
		return GroupColumn{}, eris.Errorf("survey: group heading at column %d has no name", index)
	}
	key := parts[1]
	if strings.HasPrefix(key, "_") {
		// Leading underscores are reserved for internal group codes.
		return GroupColumn{}, eris.Errorf("survey: group key %q may not start with an underscore", key)
	}

	col := GroupColumn{Key: key}
	if len(parts) >= 3 && parts[2] != "" {
		col.Title = parts[2]
	}
	if len(parts) >= 4 && parts[3] != "" {
		max, err := strconv.Atoi(parts[3])
		if err != nil {
			return GroupColumn{}, eris.Wrapf(err, "survey: group %q result limit", key)
		}
		col.MaxResults = &max
	}
	return col, nil
}

// parseQuestionHeading parses a question heading like "YN", "SC|4" or
// "RT|7". An omitted parameter slot ("SC||x") leaves the default.
func parseQuestionHeading(heading string, qt model.QuestionType, index int) (model.Question, error) {
	params := strings.Split(heading, paramDelimiter)[1:]

	numOptions := 0
	if len(params) > 0 && params[0] != "" {
		v, err := strconv.Atoi(params[0])
		if err != nil {
			return model.Question{}, eris.Wrapf(err, "survey: question at column %d num_options", index)
		}
		numOptions = v
	}

	q, err := model.NewQuestion(index, qt, numOptions)
	if err != nil {
		return model.Question{}, eris.Wrapf(err, "survey: question at column %d", index)
	}
	return q, nil
}

// parseRows turns data rows into respondents. The row index is the
// respondent id, matching the ids used in stored match results.
func (h *header) parseRows(rows [][]string, opts Options) ([]model.Respondent, error) {
	respondents := make([]model.Respondent, 0, len(rows))
	for i, row := range rows {
		r, err := h.parseRow(row, i, opts)
		if err != nil {
			return nil, err
		}
		respondents = append(respondents, r)
	}
	return respondents, nil
}

func (h *header) parseRow(row []string, id int, opts Options) (model.Respondent, error) {
	width := h.maxIndex() + 1
	if len(row) < width {
		return model.Respondent{}, eris.Errorf("survey: row %d has %d cells, header needs %d", id, len(row), width)
	}

	respondent := model.Respondent{
		ID:       id,
		FullName: strings.TrimSpace(row[h.fullName]),
		Gender:   model.GenderUnspecified,
		MatchGenders: []model.Gender{
			model.GenderUnspecified,
		},
		Groups:    map[string]string{},
		Responses: map[int]model.Answer{},
	}
	if respondent.FullName == "" {
		return model.Respondent{}, eris.Errorf("survey: row %d has an empty %s", id, headerFullName)
	}

	if h.gender >= 0 {
		gender, err := model.ParseGender(row[h.gender])
		if err != nil {
			return model.Respondent{}, eris.Wrapf(err, "survey: row %d", id)
		}
		respondent.Gender = gender

		var wanted []model.Gender
		for _, raw := range strings.Split(row[h.matchGenders], opts.multi()) {
			g, err := model.ParseGender(raw)
			if err != nil {
				return model.Respondent{}, eris.Wrapf(err, "survey: row %d match genders", id)
			}
			wanted = append(wanted, g)
		}
		respondent.MatchGenders = wanted
	}

	for col, group := range h.groups {
		value := strings.TrimSpace(row[col])
		// An empty value means the respondent is not in any bucket of this
		// group key.
		if value == "" || value == "NO_RESPONSE" {
			continue
		}
		respondent.Groups[group.Key] = value
	}

	for col, question := range h.questions {
		answer, err := parseAnswer(row[col], question, opts)
		if err != nil {
			return model.Respondent{}, eris.Wrapf(err, "survey: row %d column %d", id, col)
		}
		respondent.Responses[question.ID] = answer
	}

	return respondent, nil
}

func parseAnswer(cell string, q model.Question, opts Options) (model.Answer, error) {
	cell = strings.TrimSpace(cell)
	switch q.Type {
	case model.QuestionRating:
		rating, err := strconv.Atoi(cell)
		if err != nil {
			return model.Answer{}, eris.Wrapf(err, "rating answer %q", cell)
		}
		if rating < 0 || rating >= q.NumOptions {
			return model.Answer{}, eris.Errorf("rating answer %d out of range [0,%d]", rating, q.NumOptions-1)
		}
		return model.RatingAnswer(rating), nil
	case model.QuestionMultipleChoice:
		if cell == "" {
			return model.OptionsAnswer(), nil
		}
		var options []string
		for _, option := range strings.Split(cell, opts.multi()) {
			options = append(options, strings.TrimSpace(option))
		}
		return model.OptionsAnswer(options...), nil
	default:
		return model.TextAnswer(cell), nil
	}
}

func (h *header) maxIndex() int {
	max := h.fullName
	for _, i := range []int{h.gender, h.matchGenders} {
		if i > max {
			max = i
		}
	}
	for i := range h.groups {
		if i > max {
			max = i
		}
	}
	for i := range h.questions {
		if i > max {
			max = i
		}
	}
	return max
}

// build assembles the Survey from a parsed header and data rows, with
// deterministic question and group ordering by column index.
func (h *header) build(rows [][]string, opts Options) (*Survey, error) {
	respondents, err := h.parseRows(rows, opts)
	if err != nil {
		return nil, err
	}
	if len(respondents) == 0 {
		return nil, eris.New("survey: data file has no respondent rows")
	}

	s := &Survey{Respondents: respondents}

	questionCols := sortedKeys(h.questions)
	for _, col := range questionCols {
		s.Questions = append(s.Questions, h.questions[col])
	}
	groupCols := sortedKeys(h.groups)
	for _, col := range groupCols {
		s.GroupCols = append(s.GroupCols, h.groups[col])
	}
	return s, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
