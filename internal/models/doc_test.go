package models

import "testing"

func TestBasename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a.md", "a"},
		{"Projects/launch plan.md", "launch plan"},
		{"deep/nested/x.md", "x"},
		{"Projects\\windows\\y.md", "y"},
		{"no-extension", "no-extension"},
	}
	for _, tc := range cases {
		if got := Basename(tc.in); got != tc.want {
			t.Errorf("Basename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFolder(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a.md", ""},
		{"Tasks/a.md", "Tasks"},
		{"deep/nested/x.md", "deep/nested"},
	}
	for _, tc := range cases {
		if got := Folder(tc.in); got != tc.want {
			t.Errorf("Folder(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
