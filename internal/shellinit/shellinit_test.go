package shellinit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		shell string
		want  []string
	}{
		{"zsh", []string{"zle -N termbuddy-command", "bindkey '^M' termbuddy-command", "$BUFFER"}},
		{"bash", []string{"bind -x", "READLINE_LINE", "READLINE_POINT"}},
		{"fish", []string{"function termbuddy-command", "commandline -r", "bind \\r termbuddy-command"}},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			got, err := Snippet(tt.shell)
			if err != nil {
				t.Fatalf("Snippet failed: %v", err)
			}
			if !strings.Contains(got, Marker) {
				t.Error("snippet must contain the install marker")
			}
			if !strings.Contains(got, "::*") {
				t.Error("snippet must trigger on the :: prefix")
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("snippet missing %q", w)
				}
			}
		})
	}
}

func TestSnippetUnsupported(t *testing.T) {
	if _, err := Snippet("tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/bin/zsh", "zsh", true},
		{"/usr/local/bin/bash", "bash", true},
		{"/opt/homebrew/bin/fish", "fish", true},
		{"/bin/tcsh", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Detect(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Detect(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRCFile(t *testing.T) {
	home := "/home/u"
	tests := map[string]string{
		"zsh":  "/home/u/.zshrc",
		"bash": "/home/u/.bashrc",
		"fish": "/home/u/.config/fish/config.fish",
	}
	for shell, want := range tests {
		got, err := RCFile(home, shell)
		if err != nil {
			t.Fatalf("RCFile(%s) failed: %v", shell, err)
		}
		if got != filepath.FromSlash(want) {
			t.Errorf("RCFile(%s) = %s, want %s", shell, got, want)
		}
	}
	if _, err := RCFile(home, "ksh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestInstallCreatesFile(t *testing.T) {
	rc := filepath.Join(t.TempDir(), ".config", "fish", "config.fish")

	added, err := Install(rc, "fish")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if !added {
		t.Error("expected integration to be added")
	}

	data, err := os.ReadFile(rc)
	if err != nil {
		t.Fatalf("rc file not created: %v", err)
	}
	if !strings.Contains(string(data), Marker) {
		t.Error("rc file missing integration")
	}
}

func TestInstallAppendsOnce(t *testing.T) {
	rc := filepath.Join(t.TempDir(), ".zshrc")
	original := "export PATH=$HOME/bin:$PATH\n"
	if err := os.WriteFile(rc, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	if added, err := Install(rc, "zsh"); err != nil || !added {
		t.Fatalf("first Install = %v, %v", added, err)
	}
	if added, err := Install(rc, "zsh"); err != nil || added {
		t.Fatalf("second Install = %v, %v; want false, nil", added, err)
	}

	data, _ := os.ReadFile(rc)
	content := string(data)
	if !strings.HasPrefix(content, original) {
		t.Error("existing rc content must be preserved")
	}
	if n := strings.Count(content, "zle -N "+Marker); n != 1 {
		t.Errorf("expected integration once, found %d times", n)
	}
}

func TestInstallUnsupportedShell(t *testing.T) {
	rc := filepath.Join(t.TempDir(), ".kshrc")
	if _, err := Install(rc, "ksh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
	if _, err := os.Stat(rc); !os.IsNotExist(err) {
		t.Error("no file should be written for an unsupported shell")
	}
}
