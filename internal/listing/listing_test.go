package listing

import "testing"

func TestLooksLikeDateCell(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"10/19/2025 2:30 PM", true},
		{"Oct 19, 2025", true},
		{"-", true},
		{"", true},
		{"  ", true},
		{"No start date", true},
		{"No due date", true},
		{"2:30 pm", true},
		{"9 AM", true},
		{"Essay 1", false},
		{"Edit", false},
		{"Week 3 readings", false},
	}
	for _, tt := range tests {
		if got := LooksLikeDateCell(tt.text); got != tt.want {
			t.Errorf("LooksLikeDateCell(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestKindSpecs(t *testing.T) {
	due := Due.Spec()
	if due.ToggleID != "z_k" || due.ToggleViaScript {
		t.Errorf("due spec = %+v, want plain-click toggle z_k", due)
	}
	start := Start.Spec()
	if start.ToggleID != "z_o" || !start.ToggleViaScript {
		t.Errorf("start spec = %+v, want scripted toggle z_o", start)
	}
	if start.DialogTimeout <= due.DialogTimeout {
		t.Errorf("start dialog timeout %v should exceed due %v", start.DialogTimeout, due.DialogTimeout)
	}
}

func TestKindsOrder(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 2 || kinds[0] != Due || kinds[1] != Start {
		t.Errorf("Kinds() = %v, want [due start]", kinds)
	}
}

func TestActivationAlternate(t *testing.T) {
	if ActivateClick.Alternate() != ActivateScript {
		t.Error("click alternate should be script")
	}
	if ActivateScript.Alternate() != ActivateClick {
		t.Error("script alternate should be click")
	}
}
