package exclude

import "testing"

func TestEmptyPatternsExcludeNothing(t *testing.T) {
	m, err := Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Matches("/anything/at/all") {
		t.Error("empty pattern set should exclude nothing")
	}
}

func TestMatchesBaseName(t *testing.T) {
	m, err := Compile([]string{"*.log"})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("/var/data/app.log") {
		t.Error("expected basename match on *.log")
	}
	if m.Matches("/var/data/app.txt") {
		t.Error("did not expect match on .txt")
	}
}

func TestMatchesFullPath(t *testing.T) {
	m, err := Compile([]string{"/home/user/*/node_modules/*"})
	if err != nil {
		t.Fatal(err)
	}
	if !m.Matches("/home/user/project/node_modules/left-pad") {
		t.Error("expected full-path match for node_modules segment")
	}
}

func TestCompileInvalidPattern(t *testing.T) {
	if _, err := Compile([]string{"[unterminated"}); err == nil {
		t.Fatal("expected compile error for malformed glob")
	}
}
