package order

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

// Identity is the branch extracted from the CSV preamble. Compound markers
// like "ANKARA(KIZILAY)" yield Primary=KIZILAY (the inner, more specific
// label) and Fallback=ANKARA; plain markers yield only Primary. Both empty
// means no usable branch marker was found, which is fatal for every
// category writer.
type Identity struct {
	Primary  string
	Fallback string
}

// IsZero reports whether no branch marker was found.
func (id Identity) IsZero() bool {
	return id.Primary == "" && id.Fallback == ""
}

// Candidates returns the resolution candidates in priority order.
func (id Identity) Candidates() []string {
	var out []string
	if id.Primary != "" {
		out = append(out, id.Primary)
	}
	if id.Fallback != "" {
		out = append(out, id.Fallback)
	}
	return out
}

// Segment classifies a branch into the region that decides which physical
// sheet or day variant applies.
type Segment string

const (
	SegmentIzmir    Segment = "IZMIR"
	SegmentKusadasi Segment = "KUSADASI"
	SegmentGeneral  Segment = "GENEL"
)

// AliasTable holds the static branch rename and region tables. The defaults
// are embedded; deployments with renamed branches point SEVKIYAT_ALIAS_FILE
// at an override.
type AliasTable struct {
	Aliases       map[string]string   `yaml:"aliases"`
	IzmirBranches []string            `yaml:"izmir_branches"`
	KusadasiHints []string            `yaml:"kusadasi_hints"`
	DaySheets     map[string][]string `yaml:"day_sheets"`

	normalized map[string]string
}

//go:embed branches.yaml
var defaultBranchTables []byte

// DefaultAliasTable loads the embedded tables.
func DefaultAliasTable() *AliasTable {
	t, err := parseAliasTable(defaultBranchTables)
	if err != nil {
		// the embedded file is validated by tests; a parse failure here is
		// a build defect, not a runtime condition
		panic(err)
	}
	return t
}

// LoadAliasTable reads tables from an override file, or the embedded
// defaults when path is empty.
func LoadAliasTable(path string) (*AliasTable, error) {
	if path == "" {
		return DefaultAliasTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("order: read alias file: %w", err)
	}
	return parseAliasTable(data)
}

func parseAliasTable(data []byte) (*AliasTable, error) {
	var t AliasTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("order: parse alias table: %w", err)
	}
	t.normalized = make(map[string]string, len(t.Aliases))
	for k, v := range t.Aliases {
		t.normalized[textnorm.Normalize(k)] = textnorm.Normalize(v)
	}
	return &t, nil
}

// qualifier words sometimes appended to the CSV branch value but absent from
// the alias keys and sheet labels.
var trailingQualifiers = []string{"DEPO", "SUBE", "SUBESI", "AVM"}

// Canonical maps a normalized branch name through the alias table. When the
// raw value carries an extra trailing qualifier word, lookup is retried with
// the qualifier stripped.
func (t *AliasTable) Canonical(name string) string {
	up := textnorm.Normalize(name)
	if t == nil {
		return up
	}
	if v, ok := t.normalized[up]; ok {
		return v
	}
	if stripped, ok := stripTrailingQualifier(up); ok {
		if v, ok := t.normalized[stripped]; ok {
			return v
		}
		return stripped
	}
	return up
}

func stripTrailingQualifier(up string) (string, bool) {
	for _, q := range trailingQualifiers {
		if strings.HasSuffix(up, " "+q) {
			return strings.TrimSpace(strings.TrimSuffix(up, " "+q)), true
		}
	}
	return up, false
}

// Segment classifies the branch by the hint lists.
func (t *AliasTable) Segment(id Identity) Segment {
	for _, cand := range id.Candidates() {
		up := textnorm.Normalize(cand)
		for _, hint := range t.KusadasiHints {
			if strings.Contains(up, textnorm.Normalize(hint)) {
				return SegmentKusadasi
			}
		}
		for _, b := range t.IzmirBranches {
			if strings.Contains(up, textnorm.Normalize(b)) {
				return SegmentIzmir
			}
		}
	}
	return SegmentGeneral
}

// CandidateSheets returns the worksheet names a multi-day branch may target,
// or nil for single-sheet branches.
func (t *AliasTable) CandidateSheets(id Identity) []string {
	for _, cand := range id.Candidates() {
		if sheets, ok := t.DaySheets[textnorm.Normalize(cand)]; ok {
			return sheets
		}
	}
	return nil
}

var parenGroup = regexp.MustCompile(`\(([^)]+)\)`)

// ResolveIdentity scans the preamble for the branch marker line and extracts
// the identity. The marker is found by keyword, not position: a line whose
// normalized text contains SUBE together with KODU or ADI.
func ResolveIdentity(preamble []string, aliases *AliasTable) Identity {
	for _, line := range preamble {
		up := textnorm.Normalize(line)
		if !strings.Contains(up, "SUBE") {
			continue
		}
		if !strings.Contains(up, "KODU") && !strings.Contains(up, "ADI") {
			continue
		}
		return parseMarker(line, aliases)
	}
	return Identity{}
}

// parseMarker extracts the identity from one marker line such as
// `ŞUBE KODU/ADI: 187 - ANKARA(KIZILAY)`.
func parseMarker(line string, aliases *AliasTable) Identity {
	part := line
	if i := strings.Index(part, ":"); i >= 0 {
		part = part[i+1:]
	}
	if i := strings.Index(part, "-"); i >= 0 {
		part = part[i+1:]
	}
	part = strings.TrimSpace(part)
	part = strings.Trim(part, `"'`)
	part = strings.TrimSpace(part)
	if part == "" {
		return Identity{}
	}

	if m := parenGroup.FindStringSubmatch(part); m != nil {
		inner := strings.TrimSpace(m[1])
		outer := strings.TrimSpace(part[:strings.Index(part, "(")])
		return Identity{
			Primary:  aliases.Canonical(inner),
			Fallback: aliases.Canonical(outer),
		}
	}

	up := textnorm.Normalize(part)
	if strings.HasSuffix(up, " DEPO") {
		up = strings.TrimSpace(strings.TrimSuffix(up, " DEPO"))
	}
	return Identity{Primary: aliases.Canonical(up)}
}
