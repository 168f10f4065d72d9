// Package seed loads per-list seed files (YAML, JSON or TOML) holding
// blocklist patterns and send rules, and applies them to the running stores.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/parsers"
	"github.com/haukened/outreach-gate/internal/outreach/services/gate"
)

// ListSeed is the content of one seed file.
type ListSeed struct {
	Path      string
	ListID    string
	Patterns  []string
	SendRules []domain.SendRuleRow
}

type seedFile struct {
	ListID    string     `koanf:"list_id"`
	Patterns  []string   `koanf:"patterns"`
	SendRules []seedRule `koanf:"send_rules"`
}

type seedRule struct {
	Label        string `koanf:"label"`
	Kind         string `koanf:"kind"`
	Weekdays     []int  `koanf:"weekdays"`
	TimeStart    string `koanf:"time_start"`
	TimeEnd      string `koanf:"time_end"`
	SpecificDate string `koanf:"specific_date"`
	RangeStart   string `koanf:"range_start"`
	RangeEnd     string `koanf:"range_end"`
}

// LoadSeedDirectory walks dir and loads every supported seed file in lexical
// path order. Files with other extensions are ignored.
func LoadSeedDirectory(dir string) ([]ListSeed, error) {
	var seeds []ListSeed
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		s, ok, err := loadSeedFile(path)
		if err != nil {
			return fmt.Errorf("error parsing seed file %s: %w", path, err)
		}
		if ok {
			seeds = append(seeds, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(seeds, func(i, j int) bool { return seeds[i].Path < seeds[j].Path })
	return seeds, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

// loadSeedFile parses one file. ok is false for unsupported extensions.
func loadSeedFile(path string) (ListSeed, bool, error) {
	parser := parserFor(path)
	if parser == nil {
		return ListSeed{}, false, nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return ListSeed{}, false, fmt.Errorf("failed to load seed file: %w", err)
	}
	var sf seedFile
	if err := k.Unmarshal("", &sf); err != nil {
		return ListSeed{}, false, fmt.Errorf("failed to decode seed file: %w", err)
	}
	listID := strings.TrimSpace(sf.ListID)
	if listID == "" {
		return ListSeed{}, false, errors.New("missing 'list_id'")
	}

	s := ListSeed{Path: path, ListID: listID}
	for _, p := range sf.Patterns {
		if p = strings.TrimSpace(p); p != "" {
			s.Patterns = append(s.Patterns, p)
		}
	}
	for i, r := range sf.SendRules {
		row := r.toRow(listID)
		if err := row.Validate(); err != nil {
			return ListSeed{}, false, fmt.Errorf("send_rules[%d]: %w", i, err)
		}
		s.SendRules = append(s.SendRules, row)
	}
	return s, true, nil
}

func (r seedRule) toRow(listID string) domain.SendRuleRow {
	return domain.SendRuleRow{
		ListID:       listID,
		Label:        strings.TrimSpace(r.Label),
		Kind:         r.Kind,
		Enabled:      true,
		Weekdays:     r.Weekdays,
		TimeStart:    optional(r.TimeStart),
		TimeEnd:      optional(r.TimeEnd),
		SpecificDate: optional(r.SpecificDate),
		RangeStart:   optional(r.RangeStart),
		RangeEnd:     optional(r.RangeEnd),
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Summary counts what Apply changed.
type Summary struct {
	Lists             int
	PatternsAdded     int
	PatternsExisting  int
	SendRulesAdded    int
	SendRulesExisting int
}

// Apply writes seeds into the stores. It is idempotent: patterns already
// active in the list are counted as existing, and a send rule is skipped when
// the list already has a live rule with the same label and kind.
func Apply(ctx context.Context, seeds []ListSeed, bl blocklist.Repository, rules *gate.SendRules, logger log.Logger) (Summary, error) {
	var sum Summary
	for _, s := range seeds {
		sum.Lists++
		entries := make([]parsers.Entry, len(s.Patterns))
		for i, p := range s.Patterns {
			entries[i] = parsers.Entry{Line: i + 1, Raw: p}
		}
		res, err := bl.Import(ctx, s.ListID, entries)
		if err != nil {
			return sum, fmt.Errorf("seed %s: %w", s.Path, err)
		}
		if len(res.Rejected) > 0 {
			r := res.Rejected[0]
			return sum, fmt.Errorf("seed %s: pattern %q rejected: %s", s.Path, r.Input, r.Code)
		}
		sum.PatternsAdded += res.Added
		sum.PatternsExisting += res.Duplicates

		existing, err := rules.List(ctx, s.ListID)
		if err != nil {
			return sum, fmt.Errorf("seed %s: %w", s.Path, err)
		}
		have := make(map[string]struct{}, len(existing))
		for _, r := range existing {
			have[ruleKey(r)] = struct{}{}
		}
		for _, row := range s.SendRules {
			if _, ok := have[ruleKey(row)]; ok {
				sum.SendRulesExisting++
				continue
			}
			if _, err := rules.Create(ctx, row); err != nil {
				return sum, fmt.Errorf("seed %s: %w", s.Path, err)
			}
			have[ruleKey(row)] = struct{}{}
			sum.SendRulesAdded++
		}
		logger.Info(map[string]any{
			"file":     s.Path,
			"list_id":  s.ListID,
			"patterns": res.Added,
			"rules":    len(s.SendRules),
		}, "seed applied")
	}
	return sum, nil
}

func ruleKey(r domain.SendRuleRow) string {
	kind, err := domain.ParseRuleKind(r.Kind)
	if err != nil {
		return r.Kind + "|" + r.Label
	}
	return kind.String() + "|" + r.Label
}
