// Package flaggen builds flag tokens of the form PREFIX{name_adjective}
// from two word lists.
package flaggen

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "ISEN"

var (
	defaultNames = []string{
		"pingouin", "renard", "hibou", "loutre", "panda", "faucon",
		"dragon", "koala", "lynx", "castor", "corbeau", "phoque",
	}
	defaultAdjectives = []string{
		"rapide", "furtif", "curieux", "brillant", "tenace", "malin",
		"discret", "agile", "intrepide", "patient", "vif", "rusé",
	}
)

// Generator draws one word from each list per token. It is safe for
// concurrent use.
type Generator struct {
	prefix     string
	names      []string
	adjectives []string
}

// New creates a generator over the given lists. Empty lists fall back to
// built-in words.
func New(prefix string, names, adjectives []string) *Generator {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	if len(names) == 0 {
		names = defaultNames
	}
	if len(adjectives) == 0 {
		adjectives = defaultAdjectives
	}
	return &Generator{prefix: prefix, names: names, adjectives: adjectives}
}

// Load reads the word lists at namesPath and adjectivesPath. An empty path or
// a missing file selects the built-in list for that slot.
func Load(prefix, namesPath, adjectivesPath string, logger *slog.Logger) (*Generator, error) {
	names, err := loadWords(namesPath, logger)
	if err != nil {
		return nil, err
	}
	adjectives, err := loadWords(adjectivesPath, logger)
	if err != nil {
		return nil, err
	}
	return New(prefix, names, adjectives), nil
}

// Generate returns a fresh token. Uniqueness is not checked.
func (g *Generator) Generate() string {
	name := g.names[rand.IntN(len(g.names))]
	adj := g.adjectives[rand.IntN(len(g.adjectives))]
	return fmt.Sprintf("%s{%s_%s}", g.prefix, name, adj)
}

func loadWords(path string, logger *slog.Logger) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if logger != nil {
				logger.Warn("word list not found, using built-in words", "path", path)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if word := strings.TrimSpace(scanner.Text()); word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}
	return words, nil
}
