// Package ident generates prefixed entity identifiers and ticket codes.
package ident

import (
	"crypto/rand"
	"fmt"
	"io"
	mathrand "math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes, one per entity kind.
const (
	PrefixOrganization = "org"
	PrefixUser         = "u"
	PrefixEvent        = "evt"
	PrefixCategory     = "cat"
	PrefixTable        = "tbl"
	PrefixSale         = "sale"
	PrefixHistory      = "h"
	PrefixNotification = "notif"
	PrefixTransaction  = "tr"
	PrefixInvoice      = "tr-inv"
	PrefixPayment      = "tr-pay"
	PrefixExpense      = "exp"
	PrefixAnnouncement = "ann"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces identifiers of the form "{prefix}-{uuid}". The zero
// value reads from crypto/rand.
type Generator struct {
	entropy io.Reader
}

// New returns a generator backed by crypto/rand.
func New() *Generator { return &Generator{} }

// NewWithEntropy returns a generator reading randomness from r. When r fails
// the generator degrades to math/rand.
func NewWithEntropy(r io.Reader) *Generator { return &Generator{entropy: r} }

func (g *Generator) reader() io.Reader {
	if g == nil || g.entropy == nil {
		return rand.Reader
	}
	return g.entropy
}

// New returns a fresh identifier with the given prefix.
func (g *Generator) New(prefix string) string {
	id, err := uuid.NewRandomFromReader(g.reader())
	if err != nil {
		return prefix + "-" + fallbackHex()
	}
	return prefix + "-" + id.String()
}

// QRCode returns a ticket code "QR-" followed by 8 upper-case base36 characters.
func (g *Generator) QRCode() string {
	var buf [8]byte
	if _, err := io.ReadFull(g.reader(), buf[:]); err != nil {
		for i := range buf {
			buf[i] = byte(mathrand.IntN(256))
		}
	}
	var b strings.Builder
	b.WriteString("QR-")
	for _, c := range buf {
		b.WriteByte(base36[int(c)%len(base36)])
	}
	return b.String()
}

func fallbackHex() string {
	var parts [5]string
	for i, n := range []int{8, 4, 4, 4, 12} {
		var b strings.Builder
		for range n {
			fmt.Fprintf(&b, "%x", mathrand.IntN(16))
		}
		parts[i] = b.String()
	}
	return strings.Join(parts[:], "-")
}
