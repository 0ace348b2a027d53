// Package payments réconcilie les événements webhook du prestataire avec
// l'état des commandes. Chaque événement peut être livré plusieurs fois :
// tout traitement ici est idempotent.
package payments

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
	"vestia_back_end/internal/orders"
)

// Event : corps du webhook Asaas.
type Event struct {
	Event   string       `json:"event"`
	Payment EventPayment `json:"payment"`
}

// EventPayment : sous-ensemble utile de la cobrança dans l'événement.
// ExternalReference porte l'ID de commande interne.
type EventPayment struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	Value             float64 `json:"value"`
	BillingType       string  `json:"billingType"`
	ExternalReference string  `json:"externalReference"`
}

// Action : effet interne déduit d'un type d'événement.
type Action int

const (
	ActionNone Action = iota
	ActionConfirm
	ActionRefund
	ActionOverdue
	ActionCancel
)

// ActionFor route les types d'événements Asaas vers leur effet interne.
// Les événements inconnus sont acquittés sans effet : le prestataire
// coupe les webhooks qui accumulent les échecs.
func ActionFor(event string) Action {
	switch event {
	case "PAYMENT_CONFIRMED", "PAYMENT_RECEIVED":
		return ActionConfirm
	case "PAYMENT_REFUNDED":
		return ActionRefund
	case "PAYMENT_OVERDUE":
		return ActionOverdue
	case "PAYMENT_DELETED":
		return ActionCancel
	default:
		return ActionNone
	}
}

// Notifier envoie la confirmation de commande au client. Meilleur effort :
// un échec d'email ne doit jamais faire rejouer un webhook.
type Notifier interface {
	OrderPaid(ctx context.Context, order *models.Order)
}

// Reconciler applique les événements de paiement aux commandes.
type Reconciler struct {
	Orders   orders.Repository
	Service  *orders.Service
	Notifier Notifier
}

func NewReconciler(repo orders.Repository, svc *orders.Service, notifier Notifier) *Reconciler {
	return &Reconciler{Orders: repo, Service: svc, Notifier: notifier}
}

// Process applique un événement webhook. Renvoie nil pour tout ce qui doit
// être acquitté (y compris commande introuvable) ; seule une panne de
// persistance remonte en erreur pour provoquer une relivraison.
func (r *Reconciler) Process(ctx context.Context, evt Event) error {
	action := ActionFor(evt.Event)
	if action == ActionNone {
		log.Printf("⚠️ Webhook ignoré (événement non géré): %s", evt.Event)
		return nil
	}

	orderID, parseErr := gocql.ParseUUID(evt.Payment.ExternalReference)
	if parseErr != nil {
		log.Printf("⚠️ Webhook sans référence de commande exploitable: %s (%s)", evt.Event, evt.Payment.ID)
		return nil
	}

	order, err := r.Orders.Get(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		// Commande d'un autre environnement ou déjà purgée : on acquitte.
		log.Printf("⚠️ Webhook pour commande inconnue: %s (%s)", evt.Payment.ExternalReference, evt.Event)
		return nil
	}
	if err != nil {
		return err
	}

	switch action {
	case ActionConfirm:
		return r.confirm(ctx, order, evt.Payment)
	case ActionRefund:
		return r.refund(ctx, order)
	case ActionOverdue:
		return r.overdue(ctx, order)
	case ActionCancel:
		return r.cancel(ctx, order)
	}
	return nil
}

// confirm passe la commande en payée. Idempotent : un second
// PAYMENT_CONFIRMED (ou le doublon RECEIVED après CONFIRMED) ne produit ni
// double entrée d'historique ni double notification.
func (r *Reconciler) confirm(ctx context.Context, order *models.Order, payment EventPayment) error {
	if order.Status != models.OrderPending {
		log.Printf("🔁 Paiement déjà traité pour la commande %s (statut %s)", order.OrderNumber, order.Status)
		return nil
	}

	now := time.Now()
	order.Payment.Status = models.PaymentPaid
	order.Payment.PaidAt = &now
	if payment.ID != "" {
		order.Payment.TransactionID = payment.ID
	}
	orders.ApplyStatus(order, models.OrderPaid, "Paiement confirmé via webhook")

	if err := r.Orders.Update(ctx, order); err != nil {
		return err
	}
	log.Printf("✅ Commande %s payée (%s)", order.OrderNumber, payment.ID)

	if r.Notifier != nil {
		r.Notifier.OrderPaid(ctx, order)
	}
	return nil
}

// refund traite un estorno confirmé côté prestataire. Le remboursement est
// un fait accompli : on l'applique même depuis un statut avancé, en
// recréditant le stock une seule fois.
func (r *Reconciler) refund(ctx context.Context, order *models.Order) error {
	if order.Status == models.OrderRefunded || order.Status == models.OrderCancelled {
		log.Printf("🔁 Remboursement déjà appliqué pour la commande %s", order.OrderNumber)
		return nil
	}

	r.Service.ReleaseStock(ctx, order)

	order.Payment.Status = models.PaymentRefunded
	orders.ApplyStatus(order, models.OrderRefunded, "Remboursement confirmé par le prestataire")

	if err := r.Orders.Update(ctx, order); err != nil {
		return err
	}
	log.Printf("✅ Commande %s remboursée", order.OrderNumber)
	return nil
}

// overdue marque l'échec de paiement sans annuler : le client peut encore
// régler ou repasser commande.
func (r *Reconciler) overdue(ctx context.Context, order *models.Order) error {
	if order.Status != models.OrderPending {
		return nil
	}
	if order.Payment.Status == models.PaymentFailed {
		return nil
	}

	order.Payment.Status = models.PaymentFailed
	order.StatusHistory = append(order.StatusHistory, models.StatusChange{
		Status: order.Status,
		Date:   time.Now(),
		Note:   "Paiement expiré (boleto/PIX non réglé)",
	})
	order.UpdatedAt = time.Now()

	if err := r.Orders.Update(ctx, order); err != nil {
		return err
	}
	log.Printf("⚠️ Paiement expiré pour la commande %s", order.OrderNumber)
	return nil
}

// cancel traite la suppression de la cobrança : annulation uniquement si la
// commande attend encore son paiement.
func (r *Reconciler) cancel(ctx context.Context, order *models.Order) error {
	if order.Status != models.OrderPending {
		log.Printf("🔁 Suppression de cobrança ignorée: commande %s en statut %s", order.OrderNumber, order.Status)
		return nil
	}
	return r.Service.Cancel(ctx, order, "Cobrança supprimée par le prestataire")
}
