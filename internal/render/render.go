// Package render generates per-respondent result documents from resolved
// match groups.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// OnExists selects what to do when a result file is already on disk.
type OnExists string

const (
	Override OnExists = "override"
	Skip     OnExists = "skip"
	Ask      OnExists = "ask"
)

// ParseOnExists maps a config value to an OnExists policy.
func ParseOnExists(value string) (OnExists, error) {
	switch OnExists(value) {
	case Override, Skip, Ask:
		return OnExists(value), nil
	}
	return "", eris.Errorf("render: invalid on-exists policy %q", value)
}

// ConfirmFunc resolves the Ask policy for one existing file. Returning
// false leaves the file untouched.
type ConfirmFunc func(path string) (bool, error)

// Renderer writes result documents under a base directory.
type Renderer struct {
	Dir              string
	SeparateByGroups bool
	OnExists         OnExists
	Confirm          ConfirmFunc

	// Document content settings.
	FooterEmail string
	FooterPDF   string
	PDFHeader   string
}

// pageData is what the templates consume.
type pageData struct {
	Greeting string
	FullName string
	TopMatch *model.MatchResult
	Groups   []model.GroupResult
	Header   template.HTML
	Footer   template.HTML
}

// greeting picks the Lithuanian salutation for the respondent's gender.
func greeting(g model.Gender) string {
	switch g {
	case model.GenderMale:
		return "Sveikas"
	case model.GenderFemale:
		return "Sveika"
	}
	return "Sveiki"
}

// FilePath returns where the respondent's result document goes. With
// SeparateByGroups set, files are nested in a directory named after all of
// the respondent's group memberships.
func (r *Renderer) FilePath(respondent *model.Respondent, fileType model.ResultFileType) string {
	name := fmt.Sprintf("%s (ID%d).%s", respondent.FullName, respondent.ID, fileType.Extension())
	if !r.SeparateByGroups || len(respondent.Groups) == 0 {
		return filepath.Join(r.Dir, name)
	}

	keys := make([]string, 0, len(respondent.Groups))
	for key := range respondent.Groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"-"+respondent.Groups[key])
	}
	return filepath.Join(r.Dir, strings.Join(parts, " "), name)
}

// Render produces the HTML document of the given type without touching
// disk. Email documents greet the respondent directly; pdf documents carry
// the configured header instead.
func (r *Renderer) Render(respondent *model.Respondent, groups []model.GroupResult, topMatch *model.MatchResult, fileType model.ResultFileType) (string, error) {
	data := pageData{
		Greeting: greeting(respondent.Gender),
		FullName: respondent.FullName,
		TopMatch: topMatch,
		Groups:   groups,
	}

	var name string
	switch fileType {
	case model.ResultFileEmail:
		name = "email.html"
		data.Footer = template.HTML(r.FooterEmail)
	case model.ResultFilePDF:
		name = "pdf.html"
		data.Header = template.HTML(r.PDFHeader)
		data.Footer = template.HTML(r.FooterPDF)
	default:
		return "", eris.Errorf("render: unknown result file type %q", fileType)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", eris.Wrapf(err, "render: execute template %s", name)
	}
	return buf.String(), nil
}

// WriteFile renders the document and writes it under the output directory,
// honoring the on-exists policy. It returns the written path, or "" when
// the file was skipped.
func (r *Renderer) WriteFile(respondent *model.Respondent, groups []model.GroupResult, topMatch *model.MatchResult, fileType model.ResultFileType) (string, error) {
	path := r.FilePath(respondent, fileType)

	if _, err := os.Stat(path); err == nil {
		write, err := r.resolveExisting(path)
		if err != nil {
			return "", err
		}
		if !write {
			zap.L().Info("result file exists, skipping", zap.String("path", path))
			return "", nil
		}
	} else if !os.IsNotExist(err) {
		return "", eris.Wrapf(err, "render: stat %s", path)
	}

	content, err := r.Render(respondent, groups, topMatch, fileType)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", eris.Wrapf(err, "render: create output dir for %s", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", eris.Wrapf(err, "render: write %s", path)
	}
	return path, nil
}

func (r *Renderer) resolveExisting(path string) (bool, error) {
	switch r.OnExists {
	case Override:
		return true, nil
	case Skip:
		return false, nil
	case Ask:
		if r.Confirm == nil {
			return false, eris.New("render: ask policy requires a confirm function")
		}
		return r.Confirm(path)
	}
	return false, eris.Errorf("render: invalid on-exists policy %q", r.OnExists)
}
