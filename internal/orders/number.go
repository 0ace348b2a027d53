package orders

import (
	"context"
	"fmt"
	"time"
)

// NumberPrefix précède tous les numéros de commande.
const NumberPrefix = "PV"

// Sequencer alloue le prochain numéro de séquence pour une période donnée
// (clé "AAMM"). L'implémentation Redis (INCR) est atomique : jamais de
// lecture compter-puis-formater, deux checkouts concurrents reçoivent deux
// séquences distinctes.
type Sequencer interface {
	Next(ctx context.Context, period string) (int64, error)
}

// NumberGenerator produit les numéros de commande lisibles :
// PV + année sur 2 chiffres + mois sur 2 chiffres + séquence sur 6 chiffres.
type NumberGenerator struct {
	Seq Sequencer
	Now func() time.Time
}

func NewNumberGenerator(seq Sequencer) *NumberGenerator {
	return &NumberGenerator{Seq: seq, Now: time.Now}
}

func (g *NumberGenerator) Generate(ctx context.Context) (string, error) {
	now := g.Now()
	period := fmt.Sprintf("%02d%02d", now.Year()%100, int(now.Month()))
	seq, err := g.Seq.Next(ctx, period)
	if err != nil {
		return "", fmt.Errorf("allocation numéro de commande: %w", err)
	}
	return fmt.Sprintf("%s%s%06d", NumberPrefix, period, seq), nil
}
