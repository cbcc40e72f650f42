package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentity(t *testing.T) {
	aliases := DefaultAliasTable()

	tests := []struct {
		name     string
		preamble []string
		primary  string
		fallback string
	}{
		{
			name:     "compound marker yields inner primary and outer fallback",
			preamble: []string{"Rapor", "ŞUBE KODU/ADI: 187 - ANKARA(KIZILAY)"},
			primary:  "KIZILAY",
			fallback: "ANKARA",
		},
		{
			name:     "plain marker yields primary only",
			preamble: []string{"ŞUBE KODU : 242 - BALÇOVA"},
			primary:  "BALCOVA",
		},
		{
			name:     "trailing depot word trimmed",
			preamble: []string{"SUBE ADI: URLA DEPO"},
			primary:  "URLA",
		},
		{
			name:     "alias rewrite applied",
			preamble: []string{"ŞUBE ADI: 11 - VEGA"},
			primary:  "FOLKART VEGA",
		},
		{
			name:     "quoted value",
			preamble: []string{`SUBE KODU: 5 - "FORUM"`},
			primary:  "FORUM",
		},
		{
			name:     "no marker line",
			preamble: []string{"Tarih: 01.02.2026", "Rapor tipi: Gunluk"},
		},
		{
			name:     "keyword required, not position",
			preamble: []string{"bos satir", "", "ŞUBE ADI: POINT"},
			primary:  "POINT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ResolveIdentity(tt.preamble, aliases)
			assert.Equal(t, tt.primary, id.Primary)
			assert.Equal(t, tt.fallback, id.Fallback)
			assert.Equal(t, tt.primary == "" && tt.fallback == "", id.IsZero())
		})
	}
}

func TestIdentityCandidates(t *testing.T) {
	id := Identity{Primary: "KIZILAY", Fallback: "ANKARA"}
	assert.Equal(t, []string{"KIZILAY", "ANKARA"}, id.Candidates())
	assert.Equal(t, []string{"URLA"}, Identity{Primary: "URLA"}.Candidates())
	assert.Empty(t, Identity{}.Candidates())
}

func TestAliasTableCanonical(t *testing.T) {
	aliases := DefaultAliasTable()

	t.Run("direct alias", func(t *testing.T) {
		assert.Equal(t, "MAVIBAHCE", aliases.Canonical("Mavibahe"))
	})

	t.Run("alias with trailing qualifier", func(t *testing.T) {
		assert.Equal(t, "FOLKART VEGA", aliases.Canonical("VEGA SUBESI"))
	})

	t.Run("unknown name passes through normalized", func(t *testing.T) {
		assert.Equal(t, "KARSIYAKA", aliases.Canonical("Karşıyaka"))
	})

	t.Run("unknown name with qualifier stripped", func(t *testing.T) {
		assert.Equal(t, "BORNOVA", aliases.Canonical("BORNOVA DEPO"))
	})
}

func TestSegment(t *testing.T) {
	aliases := DefaultAliasTable()

	assert.Equal(t, SegmentIzmir, aliases.Segment(Identity{Primary: "GAZIEMIR"}))
	assert.Equal(t, SegmentKusadasi, aliases.Segment(Identity{Primary: "KUŞADASI"}))
	assert.Equal(t, SegmentKusadasi, aliases.Segment(Identity{Primary: "MERKEZ", Fallback: "AYDIN"}))
	assert.Equal(t, SegmentGeneral, aliases.Segment(Identity{Primary: "KIZILAY"}))
}

func TestCandidateSheets(t *testing.T) {
	aliases := DefaultAliasTable()

	sheets := aliases.CandidateSheets(Identity{Primary: "FORUM"})
	require.Len(t, sheets, 3)
	assert.Contains(t, sheets, "SALI KARSIYAKA")

	assert.Nil(t, aliases.CandidateSheets(Identity{Primary: "KIZILAY"}))
}
