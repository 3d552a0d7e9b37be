/*
codes.go - Token normalization and offline batch generation

PURPOSE:
  Codes are minted offline in batches, printed on packaging, and
  exported to CSV for the print shop. The registry stores canonical
  uppercase tokens; all lookups normalize first.

TOKEN FORMAT:
  <PREFIX>-<RANDOM>, e.g. BOTTLE-7KQ2MX (repeatable, 25 points) or
  SPECIAL-A8F3J2QW (single-use, 50 points). The random part draws from
  an unambiguous uppercase alphanumeric alphabet.
*/
package redeem

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loop/rewards-engine/points"
)

// NormalizeToken converts raw client input to the canonical registry
// form: surrounding whitespace trimmed, uppercased.
func NormalizeToken(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// =============================================================================
// BATCH GENERATION
// =============================================================================

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BatchSpec describes one batch of codes to mint.
type BatchSpec struct {
	Count       int
	Prefix      string // e.g. "BOTTLE", "SPECIAL"
	LabelPrefix string // e.g. "Bottle Code"
	TokenLength int    // random suffix length
	Value       points.Points
	SingleUse   bool
	StartsAt    *time.Time
	EndsAt      *time.Time
}

// Generator mints code batches into a Store.
type Generator struct {
	store Store
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// Generate mints spec.Count codes and inserts them. Token collisions
// within the registry are retried with a fresh random suffix.
func (g *Generator) Generate(ctx context.Context, spec BatchSpec) ([]Code, error) {
	if spec.Count <= 0 {
		return nil, nil
	}
	if spec.TokenLength <= 0 {
		spec.TokenLength = 6
	}

	now := time.Now().UTC()
	batch := "generic"
	if spec.SingleUse {
		batch = "unique"
	}

	codes := make([]Code, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		var code Code
		for attempt := 0; ; attempt++ {
			suffix, err := randomToken(spec.TokenLength)
			if err != nil {
				return codes, err
			}
			code = Code{
				ID:        uuid.New(),
				Token:     fmt.Sprintf("%s-%s", NormalizeToken(spec.Prefix), suffix),
				Label:     fmt.Sprintf("%s %d", spec.LabelPrefix, i+1),
				Value:     spec.Value,
				IsUnique:  spec.SingleUse,
				StartsAt:  spec.StartsAt,
				EndsAt:    spec.EndsAt,
				Metadata:  map[string]string{"batch": batch, "generated_at": now.Format(time.RFC3339)},
				CreatedAt: now,
			}
			err = g.store.CreateCode(ctx, code)
			if err == nil {
				break
			}
			if errors.Is(err, ErrDuplicateToken) && attempt < 5 {
				continue
			}
			return codes, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}

// =============================================================================
// CSV EXPORT
// =============================================================================

// WriteCSV exports codes for printing. Columns match the print shop
// hand-off format.
func WriteCSV(w io.Writer, codes []Code) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "label", "points_value", "type", "generated_at"}); err != nil {
		return err
	}
	for _, c := range codes {
		kind := "generic"
		if c.IsUnique {
			kind = "unique"
		}
		record := []string{
			c.Token,
			c.Label,
			strconv.FormatFloat(c.Value.Float64(), 'f', -1, 64),
			kind,
			c.Metadata["generated_at"],
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
