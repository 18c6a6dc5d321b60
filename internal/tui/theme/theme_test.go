package theme

import "testing"

func TestByNameFallsBackToFlexoki(t *testing.T) {
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Errorf("ByName(tokyo-night) = %q", got)
	}
	if got := ByName("no-such-theme").Name; got != FlexokiDark.Name {
		t.Errorf("unknown theme = %q, want %q", got, FlexokiDark.Name)
	}
}

func TestSetActive(t *testing.T) {
	t.Cleanup(func() { SetActive(FlexokiDark.Name) })
	SetActive("catppuccin-mocha")
	if Active.Name != "catppuccin-mocha" {
		t.Errorf("Active = %q", Active.Name)
	}
}

func TestEveryThemeHasMoneyColors(t *testing.T) {
	for _, th := range All {
		if th.Gain == "" || th.Loss == "" || th.Caution == "" {
			t.Errorf("%s is missing money colors", th.Name)
		}
	}
	if len(Names()) != len(All) {
		t.Errorf("Names() = %v", Names())
	}
}
