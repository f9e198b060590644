package hasher

import (
	"bytes"
	"strings"
	"testing"

	"github.com/snapsync/snapsync/pkg/models"
)

func TestSumKnownVectors(t *testing.T) {
	cases := []struct {
		algo models.HashAlgorithm
		want string
	}{
		{models.Sha1, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{models.Sha256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}
	for _, c := range cases {
		got, err := Sum(c.algo, strings.NewReader(""))
		if err != nil {
			t.Fatalf("Sum(%s): %v", c.algo, err)
		}
		if string(got) != c.want {
			t.Errorf("Sum(%s) = %s, want %s", c.algo, got, c.want)
		}
	}
}

func TestSumUnknownAlgorithm(t *testing.T) {
	if _, err := Sum("bogus", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestParseAlgorithm(t *testing.T) {
	if _, err := ParseAlgorithm("Sha512"); err != nil {
		t.Fatalf("ParseAlgorithm(Sha512): %v", err)
	}
	if _, err := ParseAlgorithm("md5"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestTeeSumMatchesSum(t *testing.T) {
	data := []byte("the quick brown fox")
	var dest bytes.Buffer

	tee, err := NewTeeSum(models.Sha256, &dest)
	if err != nil {
		t.Fatalf("NewTeeSum: %v", err)
	}
	if _, err := tee.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want, err := Sum(models.Sha256, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if tee.Token() != want {
		t.Errorf("TeeSum token = %s, want %s", tee.Token(), want)
	}
	if !bytes.Equal(dest.Bytes(), data) {
		t.Errorf("TeeSum forwarded bytes = %q, want %q", dest.Bytes(), data)
	}
}

func TestLenMatchesDigestSize(t *testing.T) {
	tok, err := Sum(models.Sha256, strings.NewReader("abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(tok) != Len(models.Sha256) {
		t.Errorf("Len(Sha256) = %d, actual token length %d", Len(models.Sha256), len(tok))
	}
}
