package docs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// maxCustomDocs bounds how many user-written docs are added to one prompt
const maxCustomDocs = 3

// CustomDoc is user-written documentation for a tool the help probe cannot
// reach, such as an internal CLI or a shell function
type CustomDoc struct {
	Filename string
	Command  string
	Aliases  []string
	Keywords []string
	Content  string
}

type frontmatter struct {
	Command  string   `yaml:"command"`
	Aliases  []string `yaml:"aliases"`
	Keywords []string `yaml:"keywords"`
}

// ParseCustomDoc reads a markdown file with YAML frontmatter. Without
// frontmatter the command name is taken from the file name.
func ParseCustomDoc(path string) (*CustomDoc, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fm, content, err := parseFrontmatter(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	doc := &CustomDoc{
		Filename: path,
		Command:  fm.Command,
		Aliases:  fm.Aliases,
		Keywords: fm.Keywords,
		Content:  strings.TrimSpace(content),
	}
	if doc.Command == "" {
		doc.Command = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if doc.Content == "" {
		return nil, fmt.Errorf("no documentation content")
	}

	return doc, nil
}

func parseFrontmatter(lines []string) (frontmatter, string, error) {
	var fm frontmatter
	if len(lines) == 0 {
		return fm, "", fmt.Errorf("empty file")
	}

	if strings.TrimSpace(lines[0]) != "---" {
		return fm, strings.Join(lines, "\n"), nil
	}

	endIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			endIdx = i
			break
		}
	}
	if endIdx == -1 {
		return fm, "", fmt.Errorf("unclosed frontmatter")
	}

	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:endIdx], "\n")), &fm); err != nil {
		return fm, "", fmt.Errorf("failed to parse YAML: %w", err)
	}

	return fm, strings.Join(lines[endIdx+1:], "\n"), nil
}

// LoadCustomDocs parses every .md file in dir. README.md and files starting
// with '_' are skipped, and so is any file that fails to parse. A missing
// directory yields no docs.
func LoadCustomDocs(dir string, logger *zap.Logger) []CustomDoc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("docs")

	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil || len(files) == 0 {
		return nil
	}

	var docs []CustomDoc
	for _, file := range files {
		base := filepath.Base(file)
		if strings.EqualFold(base, "README.md") || strings.HasPrefix(base, "_") {
			continue
		}

		doc, err := ParseCustomDoc(file)
		if err != nil {
			logger.Debug("skipping custom doc", zap.String("file", base), zap.Error(err))
			continue
		}
		docs = append(docs, *doc)
	}

	logger.Debug("loaded custom docs", zap.String("dir", dir), zap.Int("count", len(docs)))
	return docs
}

// MatchCustomDocs returns up to limit docs relevant to request, best first.
// A doc whose command or alias is named in the request always outranks
// keyword-only matches. Docs for excluded command names are ignored.
func MatchCustomDocs(request string, docs []CustomDoc, limit int, excluded []string) []Entry {
	words := make(map[string]bool)
	for _, w := range tokenize(request) {
		words[w] = true
	}
	if len(words) == 0 {
		return nil
	}

	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[strings.ToLower(name)] = true
	}

	type scored struct {
		doc   CustomDoc
		score int
	}
	var matches []scored
	for _, doc := range docs {
		if skip[strings.ToLower(doc.Command)] {
			continue
		}
		if s := scoreCustomDoc(doc, words); s > 0 {
			matches = append(matches, scored{doc, s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	entries := make([]Entry, len(matches))
	for i, m := range matches {
		entries[i] = Entry{Command: m.doc.Command, Help: m.doc.Content}
	}
	return entries
}

func scoreCustomDoc(doc CustomDoc, words map[string]bool) int {
	score := 0
	if words[strings.ToLower(doc.Command)] {
		score += 100
	}
	for _, alias := range doc.Aliases {
		if words[strings.ToLower(alias)] {
			score += 80
			break
		}
	}
	for _, keyword := range doc.Keywords {
		if words[strings.ToLower(keyword)] {
			score += 10
		}
	}
	return score
}
