package watcher

import "testing"

func TestIsHiddenOrSystemDir(t *testing.T) {
	cases := map[string]bool{
		".git":                      true,
		".SynologyWorkingDirectory": true,
		"@eaDir":                    true,
		"#recycle":                  true,
		"docs":                      false,
		"":                          false,
	}
	for name, want := range cases {
		if got := isHiddenOrSystemDir(name); got != want {
			t.Errorf("isHiddenOrSystemDir(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIgnoredMatchesConfiguredAndDefaultPatterns(t *testing.T) {
	w := &Watcher{ignorePatterns: append(append([]string{}, defaultIgnorePatterns...), "*.bak")}

	cases := map[string]bool{
		"/root/a.tmp":     true,
		"/root/a.partial": true,
		"/root/.DS_Store": true,
		"/root/x.bak":     true,
		"/root/.hidden/a": true,
		"/root/a.txt":     false,
	}
	for path, want := range cases {
		if got := w.ignored(path); got != want {
			t.Errorf("ignored(%q) = %v, want %v", path, got, want)
		}
	}
}
