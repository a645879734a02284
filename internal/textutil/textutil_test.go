package textutil_test

import (
	"testing"

	"docket/internal/textutil"
)

func TestNormalizeEntityNameDropsCorporateSuffixes(t *testing.T) {
	cases := map[string]string{
		"Acme Holdings LLC":      "acme holdings",
		"Acme Holdings, L.L.C.":  "acme holdings",
		"ACME HOLDINGS":          "acme holdings",
		"Smith & Wesson Corp.":   "smith wesson",
		"Johnson Controls, Inc.": "johnson controls",
	}
	for input, want := range cases {
		if got := textutil.NormalizeEntityName(input); got != want {
			t.Fatalf("NormalizeEntityName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeEntityNameDropsHonorifics(t *testing.T) {
	if got := textutil.NormalizeEntityName("Mr. John Smith, Jr."); got != "john smith" {
		t.Fatalf("unexpected normalization %q", got)
	}
	if got := textutil.NormalizeEntityName("Hon. Jane Doe"); got != "jane doe" {
		t.Fatalf("unexpected normalization %q", got)
	}
}

func TestNormalizeEntityNameKeepsSomethingForSuffixOnlyNames(t *testing.T) {
	if got := textutil.NormalizeEntityName("LLC"); got == "" {
		t.Fatal("expected fallback for suffix-only name")
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := textutil.NewFingerprint("first national bank of springfield")
	b := textutil.NewFingerprint("first national bank springfield")
	c := textutil.NewFingerprint("county water authority")

	if sim := textutil.CosineSimilarity(a, a); sim < 0.999 {
		t.Fatalf("self similarity should be 1, got %f", sim)
	}
	near := textutil.CosineSimilarity(a, b)
	far := textutil.CosineSimilarity(a, c)
	if near <= far {
		t.Fatalf("expected near pair to score above far pair: %f vs %f", near, far)
	}
	if far != 0 {
		t.Fatalf("disjoint names should score 0, got %f", far)
	}
	if sim := textutil.CosineSimilarity(nil, a); sim != 0 {
		t.Fatalf("nil fingerprint should score 0, got %f", sim)
	}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	tokens := textutil.Tokenize("J. P. Morgan & Co")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Fatalf("short token %q survived", token)
		}
	}
}
