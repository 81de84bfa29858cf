package ident

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

var uuidShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestNewPrefixesAndUnique(t *testing.T) {
	g := New()
	seen := make(map[string]struct{})
	for range 1000 {
		id := g.New(PrefixSale)
		if !strings.HasPrefix(id, "sale-") {
			t.Fatalf("missing prefix: %s", id)
		}
		if !uuidShape.MatchString(strings.TrimPrefix(id, "sale-")) {
			t.Fatalf("unexpected shape: %s", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewFallsBackWithoutEntropy(t *testing.T) {
	g := NewWithEntropy(failingReader{})
	a, b := g.New(PrefixInvoice), g.New(PrefixInvoice)
	if !strings.HasPrefix(a, "tr-inv-") || !uuidShape.MatchString(strings.TrimPrefix(a, "tr-inv-")) {
		t.Fatalf("unexpected fallback id %s", a)
	}
	if a == b {
		t.Fatalf("fallback ids collided: %s", a)
	}
}

func TestZeroValueGenerator(t *testing.T) {
	var g *Generator
	if id := g.New(PrefixUser); !strings.HasPrefix(id, "u-") {
		t.Fatalf("unexpected id %s", id)
	}
}

func TestQRCodeShape(t *testing.T) {
	shape := regexp.MustCompile(`^QR-[0-9A-Z]{8}$`)
	for _, g := range []*Generator{New(), NewWithEntropy(failingReader{})} {
		code := g.QRCode()
		if !shape.MatchString(code) {
			t.Fatalf("unexpected qr code %q", code)
		}
	}
}
