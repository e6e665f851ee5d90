package model

import "testing"

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses {
		if !IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "Published", "archived"} {
		if IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = true", s)
		}
	}
}

func TestIsValidLocation(t *testing.T) {
	for _, l := range ValidLocations {
		if !IsValidLocation(l) {
			t.Errorf("IsValidLocation(%q) = false", l)
		}
	}
	for _, l := range []string{"", "topbar", "Navbar"} {
		if IsValidLocation(l) {
			t.Errorf("IsValidLocation(%q) = true", l)
		}
	}
}
