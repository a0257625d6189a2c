package normalize

import (
	"math"
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	got := Tokens("Office Visit, Level 3 (of the patient)")
	want := []string{"office", "visit", "level", "3", "patient"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens = %v, want %v", got, want)
	}
}

func TestDescription_EqualAfterNormalization(t *testing.T) {
	a := Description("CBC w/ Differential")
	b := Description("cbc  differential")
	if a != b {
		t.Errorf("expected %q == %q", a, b)
	}
}

func TestJaccard(t *testing.T) {
	a := TokenSet("comprehensive metabolic panel")
	b := TokenSet("metabolic panel comprehensive blood")
	if got := Jaccard(a, b); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Jaccard = %v, want 0.75", got)
	}
	if got := Jaccard(nil, nil); got != 0 {
		t.Errorf("Jaccard(empty, empty) = %v, want 0", got)
	}
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Error("Jaccard should be symmetric")
	}
}

func TestModifiers(t *testing.T) {
	s := "59, rt"
	got := Modifiers(&s)
	if !reflect.DeepEqual(got, []string{"59", "RT"}) {
		t.Errorf("Modifiers = %v", got)
	}
	if Modifiers(nil) != nil {
		t.Error("Modifiers(nil) should be nil")
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-03-05", "03/05/2024", "3/5/2024", "Mar 5, 2024"} {
		d := ParseDate(in)
		if d == nil {
			t.Fatalf("ParseDate(%q) = nil", in)
		}
		if DateKey(d) != "2024-03-05" {
			t.Errorf("ParseDate(%q) = %s", in, DateKey(d))
		}
	}
	if ParseDate("yesterday") != nil {
		t.Error("expected nil for unparseable date")
	}
}

func TestJoinedHash_SeparatorMatters(t *testing.T) {
	raw := []byte("bill")
	if JoinedHash(raw, "ab", "c") == JoinedHash(raw, "a", "bc") {
		t.Error("expected different hashes for different part boundaries")
	}
	if JoinedHash(raw) != ContentHash(raw) {
		t.Error("JoinedHash with no parts should equal ContentHash")
	}
}
