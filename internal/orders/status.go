package orders

import (
	"fmt"

	"vestia_back_end/internal/models"
)

// Table des transitions légales du cycle de vie d'une commande.
// pending → paid → processing → shipped → delivered est le chemin nominal ;
// pending|paid → cancelled et paid → refunded sont les sorties.
// delivered, cancelled et refunded sont terminaux.
var transitions = map[string][]string{
	models.OrderPending:    {models.OrderPaid, models.OrderCancelled},
	models.OrderPaid:       {models.OrderProcessing, models.OrderCancelled, models.OrderRefunded},
	models.OrderProcessing: {models.OrderShipped},
	models.OrderShipped:    {models.OrderDelivered},
	models.OrderDelivered:  {},
	models.OrderCancelled:  {},
	models.OrderRefunded:   {},
}

// InvalidTransitionError : transition refusée par la table ci-dessus.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition de statut illégale: %s → %s", e.From, e.To)
}

// CanTransition indique si from → to est une transition légale.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal : aucun départ possible depuis ce statut.
func IsTerminal(status string) bool {
	next, known := transitions[status]
	return known && len(next) == 0
}

// ValidStatus : le statut figure dans la table.
func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}
