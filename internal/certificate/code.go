package certificate

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CodePattern matches every code produced by Generator.
var CodePattern = regexp.MustCompile(`^CERT-\d{2}-[0-9A-Z]+-[0-9A-Z]{6}$`)

const (
	codePrefix    = "CERT"
	codeRandomLen = 6
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generator produces certificate codes of the form
// CERT-{YY}-{base36 unix millis}-{6 random base36 chars}.
// No registry is consulted; collisions are left to chance.
type Generator struct {
	Now    func() time.Time
	Random io.Reader
}

// NewGenerator returns a generator on the wall clock and crypto/rand.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Random: rand.Reader}
}

// New returns a fresh code.
func (g *Generator) New() (string, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	src := rand.Reader
	if g.Random != nil {
		src = g.Random
	}

	t := now()
	suffix, err := randomBase36(src, codeRandomLen)
	if err != nil {
		return "", fmt.Errorf("failed to generate code suffix: %w", err)
	}
	year := fmt.Sprintf("%02d", t.Year()%100)
	stamp := strconv.FormatInt(t.UnixMilli(), 36)

	return strings.ToUpper(strings.Join([]string{codePrefix, year, stamp, suffix}, "-")), nil
}

func randomBase36(src io.Reader, n int) (string, error) {
	max := big.NewInt(int64(len(base36)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(src, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(base36[idx.Int64()])
	}
	return b.String(), nil
}
