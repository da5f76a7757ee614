package service

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed intents.yaml
var intentsYAML []byte

//go:embed stopwords.yaml
var stopwordsYAML []byte

// intentEntry maps trigger phrases to the curated terms searched when any
// trigger occurs in the visitor's query.
type intentEntry struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Terms    []string `yaml:"terms"`
}

type intentFile struct {
	Intents []intentEntry `yaml:"intents"`
}

type stopwordFile struct {
	Arabic  []string `yaml:"arabic"`
	English []string `yaml:"english"`
}

var (
	intentTable = mustLoadIntents()
	stopwords   = mustLoadStopwords()
)

func mustLoadIntents() []intentEntry {
	var f intentFile
	if err := yaml.Unmarshal(intentsYAML, &f); err != nil {
		panic(fmt.Sprintf("knowledge: parse intents.yaml: %v", err))
	}
	return f.Intents
}

func mustLoadStopwords() map[string]struct{} {
	var f stopwordFile
	if err := yaml.Unmarshal(stopwordsYAML, &f); err != nil {
		panic(fmt.Sprintf("knowledge: parse stopwords.yaml: %v", err))
	}
	set := make(map[string]struct{}, len(f.Arabic)+len(f.English))
	for _, w := range f.Arabic {
		set[w] = struct{}{}
	}
	for _, w := range f.English {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// matchIntent scans the table in order and returns the term set of the
// first entry with a trigger contained in the case-folded query.
func matchIntent(folded string) ([]string, bool) {
	for _, entry := range intentTable {
		for _, trigger := range entry.Triggers {
			if strings.Contains(folded, strings.ToLower(trigger)) {
				return entry.Terms, true
			}
		}
	}
	return nil, false
}

// extractKeywords tokenizes on whitespace and drops stopwords and tokens of
// two runes or fewer. Length is counted in runes so short Arabic words are
// treated the same as short Latin ones.
func extractKeywords(folded string) []string {
	var keywords []string
	for _, token := range strings.Fields(folded) {
		if len([]rune(token)) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}
