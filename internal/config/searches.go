package config

import (
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// SearchSet is the hot-reloadable part of the configuration: which queries
// and experience buckets the poller fans out over.
type SearchSet struct {
	Queries    []string `yaml:"queries"`
	Experience []string `yaml:"experience"`
}

// LoadSearchesFile reads a YAML search set:
//
//	queries:
//	  - младший юрист
//	experience:
//	  - noExperience
//
// An empty experience list is allowed (no server-side experience filter).
// An empty queries list is rejected: a poller with nothing to search is a
// misconfiguration, not a quiet no-op.
func LoadSearchesFile(path string) (SearchSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SearchSet{}, err
	}
	var set SearchSet
	if err := yaml.Unmarshal(b, &set); err != nil {
		return SearchSet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	set.Queries = compactList(set.Queries)
	set.Experience = compactList(set.Experience)
	if len(set.Queries) == 0 {
		return SearchSet{}, fmt.Errorf("%s: queries list is empty", path)
	}
	return set, nil
}

func compactList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
