package ha

import (
	"slices"
	"testing"

	"github.com/matzehuels/topostack/pkg/classify"
	"github.com/matzehuels/topostack/pkg/registry"
)

func TestFind(t *testing.T) {
	c := classify.New(registry.Default())

	tests := []struct {
		name      string
		hostnames []string
		want      []Pair
	}{
		{
			name:      "one pair among three",
			hostnames: []string{"npccosr01", "npccosr02", "wpcaccsw11"},
			want:      []Pair{{"npccosr01", "npccosr02"}},
		},
		{
			name:      "different datacenter",
			hostnames: []string{"npccosr01", "wpccosr02"},
			want:      nil,
		},
		{
			name:      "different type",
			hostnames: []string{"npccosr01", "npccosw02"},
			want:      nil,
		},
		{
			name:      "same sequence different spelling",
			hostnames: []string{"npccosr01", "NPCCOSR01"},
			want:      nil,
		},
		{
			name:      "unresolved never pairs",
			hostnames: []string{"core-a", "core-b"},
			want:      nil,
		},
		{
			name:      "triple yields three pairs",
			hostnames: []string{"npcdisw03", "npcdisw01", "npcdisw02"},
			want: []Pair{
				{"npcdisw01", "npcdisw02"},
				{"npcdisw01", "npcdisw03"},
				{"npcdisw02", "npcdisw03"},
			},
		},
		{
			name:      "type_count identities pair with each other",
			hostnames: []string{"sr01", "sr02", "npccosr03"},
			want:      []Pair{{"sr01", "sr02"}},
		},
		{
			name:      "duplicates ignored",
			hostnames: []string{"npccosr01", "npccosr02", "npccosr01"},
			want:      []Pair{{"npccosr01", "npccosr02"}},
		},
		{
			name:      "empty",
			hostnames: nil,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(c, tt.hostnames)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Find() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindMatchesPairwise(t *testing.T) {
	c := classify.New(registry.Default())
	hosts := []string{
		"npccosr01", "npccosr02", "npccosw01", "wpccosr01", "wpccosr02",
		"sr01", "sr02", "sw01", "garbage", "npcaccsw11", "npcaccsw12", "NPCACCSW13",
	}

	got := make(map[Pair]bool)
	for _, p := range Find(c, hosts) {
		got[p] = true
	}

	for i, a := range hosts {
		for _, b := range hosts[i+1:] {
			want := AreHAPair(c.Classify(a), c.Classify(b))
			if got[NewPair(a, b)] != want {
				t.Errorf("pair(%s, %s) = %v, want %v", a, b, got[NewPair(a, b)], want)
			}
		}
	}
}

func TestAreHAPairSymmetricIrreflexive(t *testing.T) {
	c := classify.New(registry.Default())
	a, b := c.Classify("npccosr01"), c.Classify("npccosr02")

	if !AreHAPair(a, b) || !AreHAPair(b, a) {
		t.Error("AreHAPair should be symmetric")
	}
	if AreHAPair(a, a) {
		t.Error("AreHAPair should be irreflexive")
	}
}

func TestNewPairNormalizes(t *testing.T) {
	if got := NewPair("b", "a"); got != (Pair{"a", "b"}) {
		t.Errorf("NewPair(b, a) = %v", got)
	}
	if !NewPair("x", "y").Contains("y") {
		t.Error("Contains(y) = false")
	}
}

func TestPartners(t *testing.T) {
	got := Partners([]Pair{{"a", "c"}, {"a", "b"}})
	if !slices.Equal(got["a"], []string{"b", "c"}) {
		t.Errorf("Partners()[a] = %v", got["a"])
	}
	if !slices.Equal(got["b"], []string{"a"}) {
		t.Errorf("Partners()[b] = %v", got["b"])
	}
}
