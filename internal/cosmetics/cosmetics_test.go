package cosmetics

import (
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	table := Default()

	tests := []struct {
		id   string
		want string
	}{
		{"CID_029_Athena_Commando_F_Halloween", "Black Knight"},
		{"cid_028_athena_commando_f", "Renegade Raider"},
		{"CID_999_Athena_Commando_M_Funky_Disco", "Funky Disco"},
		{"CID_999_Athena_Commando_F", "Outfit"},
		{"EID_123", "Emote"},
		{"EID_HappyDance", "Happydance"},
		{"BID_555_RedCape", "Redcape"},
		{"Pickaxe_ID_777", "Pickaxe"},
		{"", "Cosmetic"},
		{"   ", "Cosmetic"},
		{"___", "Cosmetic"},
	}

	for _, tt := range tests {
		if got := table.Name(tt.id); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestSameID(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"CID_028_Athena_Commando_F", "cid_028_athena_commando_f", true},
		{" cid_028 ", "CID_028_Athena_Commando_F", true},
		{"cid_028", "cid_029", false},
		{"", "cid_028", false},
	}

	for _, tt := range tests {
		if got := SameID(tt.a, tt.b); got != tt.want {
			t.Errorf("SameID(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	c := Default().Describe("CID_029_Athena_Commando_F_Halloween")

	if c.Type != "Outfit" {
		t.Errorf("Expected type Outfit, got %s", c.Type)
	}
	if c.Rarity != "Legendary" {
		t.Errorf("Expected rarity Legendary, got %s", c.Rarity)
	}
	if !strings.Contains(c.Image, "cid_029_athena_commando_f_halloween") {
		t.Errorf("Expected image url to contain the id, got %s", c.Image)
	}
}

func TestRarityHints(t *testing.T) {
	table := Default()

	if got := table.Rarity("CID_900_Athena_Commando_M_Marvel"); got != "Marvel Series" {
		t.Errorf("Expected Marvel Series, got %s", got)
	}
	if got := table.Rarity("CID_901_Athena_Commando_M_Plain"); got != "Uncommon" {
		t.Errorf("Expected default rarity, got %s", got)
	}
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("special: [")); err == nil {
		t.Error("Expected parse error for malformed table")
	}
}
