package app

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lesson files are markdown with YAML frontmatter (title, difficulty, tags,
// author) followed by "## " sections: Problem Statement, Description,
// Milestones, Example Output, Common Mistakes, Lesson Goals, and the Agent
// Input / User Input starter-code blocks in python fences. Missing fields
// default to empty.

type Milestone struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

type Lesson struct {
	ID               string
	Title            string
	Difficulty       string
	Tags             []string
	Author           string
	ProblemStatement string
	Description      string
	Milestones       []Milestone
	ExampleOutput    string
	CommonMistakes   []string
	LessonGoals      []string
	AgentCode        string
	UserCode         string
}

type LessonSummary struct {
	ID         string
	Title      string
	Difficulty string
	Tags       []string
}

type lessonFrontmatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Difficulty  string   `yaml:"difficulty"`
	Tags        []string `yaml:"tags"`
	Author      string   `yaml:"author"`
}

var (
	codeFenceRe = regexp.MustCompile("(?s)```(?:python)?[ \t]*\n(.*?)```")
	milestoneRe = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
)

func ParseLesson(id string, data []byte) (*Lesson, error) {
	fm, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, fmt.Errorf("lesson %s: %w", id, err)
	}

	var meta lessonFrontmatter
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
			return nil, fmt.Errorf("lesson %s: invalid frontmatter: %w", id, err)
		}
	}

	secs := splitSections(body)
	lesson := &Lesson{
		ID:               id,
		Title:            meta.Title,
		Difficulty:       meta.Difficulty,
		Tags:             meta.Tags,
		Author:           meta.Author,
		ProblemStatement: strings.TrimSpace(secs["problem statement"]),
		Description:      strings.TrimSpace(secs["description"]),
		Milestones:       parseMilestones(secs["milestones"]),
		ExampleOutput:    extractCode(secs["example output"]),
		CommonMistakes:   parseBullets(secs["common mistakes"]),
		LessonGoals:      parseBullets(secs["lesson goals"]),
		AgentCode:        extractCode(secs["agent input"]),
		UserCode:         extractCode(secs["user input"]),
	}
	if lesson.Description == "" {
		lesson.Description = meta.Description
	}
	return lesson, nil
}

func LoadLesson(path string) (*Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseLesson(id, data)
}

// ListLessons scans dir for *.md files and returns their summaries sorted by
// id. Unparseable files are skipped rather than failing the whole catalog.
func ListLessons(dir string) ([]LessonSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []LessonSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		lesson, err := LoadLesson(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, LessonSummary{
			ID:         lesson.ID,
			Title:      lesson.Title,
			Difficulty: lesson.Difficulty,
			Tags:       lesson.Tags,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func splitFrontmatter(content string) (fm, body string, err error) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", content, nil
	}
	rest := content[strings.Index(content, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated frontmatter")
	}
	fm = rest[:end]
	body = rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return fm, body, nil
}

// splitSections maps lowercased "## " headings to their content, up to the
// next heading of the same level.
func splitSections(body string) map[string]string {
	secs := make(map[string]string)
	var name string
	var buf strings.Builder
	flush := func() {
		if name != "" {
			secs[name] = buf.String()
		}
		buf.Reset()
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "###") {
			flush()
			name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "## ")))
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()
	return secs
}

func extractCode(section string) string {
	if m := codeFenceRe.FindStringSubmatch(section); m != nil {
		return strings.TrimRight(m[1], "\n")
	}
	return strings.TrimSpace(section)
}

func parseBullets(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			out = append(out, strings.TrimSpace(trimmed[2:]))
		}
	}
	return out
}

func parseMilestones(section string) []Milestone {
	var out []Milestone
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := milestoneRe.FindStringSubmatch(trimmed); m != nil {
			n, _ := strconv.Atoi(m[1])
			out = append(out, Milestone{Number: n, Content: m[2]})
		}
	}
	return out
}
