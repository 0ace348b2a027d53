package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

var (
	// ErrOutOfStock : condition métier récupérable, le checkout échoue
	// proprement côté client. Pas une panne système.
	ErrOutOfStock = errors.New("stock insuffisant")

	// ErrContention : trop de tentatives CAS perdues d'affilée sur la même
	// variante. Le client peut réessayer.
	ErrContention = errors.New("stock en forte contention, réessayer")
)

// maxCASRetries borne la boucle compare-and-swap ; au-delà on abandonne
// plutôt que de boucler sous contention.
const maxCASRetries = 8

// Store est l'accès bas niveau au compteur de stock d'une variante.
// CompareAndSwap doit être atomique : c'est lui qui porte la garantie
// "deux réservations concurrentes de la dernière pièce → une seule gagne".
type Store interface {
	Stock(ctx context.Context, productID gocql.UUID, v models.Variant) (int, error)
	CompareAndSwap(ctx context.Context, productID gocql.UUID, v models.Variant, old, new int) (bool, error)
}

// Ledger gère les réservations de stock par variante.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Reserve décrémente atomiquement le stock de la variante si stock >= qty.
// Échoue avec ErrOutOfStock sans effet de bord sinon. L'atomicité repose sur
// une boucle lire → compare-and-swap : si une écriture concurrente gagne, on
// relit et on réévalue la borne.
func (l *Ledger) Reserve(ctx context.Context, productID gocql.UUID, v models.Variant, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantité invalide: %d", qty)
	}
	for range maxCASRetries {
		current, err := l.store.Stock(ctx, productID, v)
		if err != nil {
			return err
		}
		if current < qty {
			return ErrOutOfStock
		}
		ok, err := l.store.CompareAndSwap(ctx, productID, v, current, current-qty)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrContention
}

// Release restitue qty au stock de la variante. L'appelant garantit qu'une
// commande ne libère son stock qu'une seule fois (drapeau stock_released sur
// la commande) ; Release lui-même ne déduplique pas.
func (l *Ledger) Release(ctx context.Context, productID gocql.UUID, v models.Variant, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantité invalide: %d", qty)
	}
	for range maxCASRetries {
		current, err := l.store.Stock(ctx, productID, v)
		if err != nil {
			return err
		}
		ok, err := l.store.CompareAndSwap(ctx, productID, v, current, current+qty)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrContention
}
