package generate

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"

	"devlog-ai/internal/domain/entity"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

const (
	minExperienceChars = 300
	maxExperienceChars = 700
)

// Prompts holds the parsed prompt templates for each generation kind.
type Prompts struct {
	title         *template.Template
	retrospective *template.Template
	experience    *template.Template
}

type promptFile struct {
	Title         string `yaml:"title"`
	Retrospective string `yaml:"retrospective"`
	Experience    string `yaml:"experience"`
}

var promptFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// DefaultPrompts returns the embedded prompt set.
func DefaultPrompts() *Prompts {
	p, err := ParsePrompts(defaultPromptsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts are invalid: %v", err))
	}
	return p
}

// LoadPromptsFile reads and parses a prompt set from path.
func LoadPromptsFile(path string) (*Prompts, error) {
	// #nosec G304 -- path comes from operator configuration, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts parses a YAML prompt set. All three templates are required.
func ParsePrompts(data []byte) (*Prompts, error) {
	var f promptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	p := &Prompts{}
	var err error
	if p.title, err = parseTemplate("title", f.Title); err != nil {
		return nil, err
	}
	if p.retrospective, err = parseTemplate("retrospective", f.Retrospective); err != nil {
		return nil, err
	}
	if p.experience, err = parseTemplate("experience", f.Experience); err != nil {
		return nil, err
	}
	return p, nil
}

func parseTemplate(name, body string) (*template.Template, error) {
	if body == "" {
		return nil, fmt.Errorf("prompt %q is missing", name)
	}
	t, err := template.New(name).Funcs(promptFuncs).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %q: %w", name, err)
	}
	return t, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Title renders the title prompt.
func (p *Prompts) Title(language string, req entity.TitleRequest) (string, error) {
	return render(p.title, struct {
		Language      string
		MaxTitleRunes int
		Pairs         []entity.QnA
	}{language, entity.MaxTitleRunes, req.Pairs})
}

// Retrospective renders the retrospective prompt.
func (p *Prompts) Retrospective(language string, req entity.RetrospectiveRequest) (string, error) {
	return render(p.retrospective, struct {
		Language string
		Logs     []entity.DailyLog
	}{language, req.Logs})
}

// Experience renders the experience extraction prompt.
func (p *Prompts) Experience(language string, req entity.ExperienceRequest) (string, error) {
	return render(p.experience, struct {
		Language string
		Content  string
		Keywords []entity.Keyword
		MaxItems int
		MinChars int
		MaxChars int
	}{language, req.RetrospectiveContent, req.Keywords, entity.MaxExperiences, minExperienceChars, maxExperienceChars})
}
