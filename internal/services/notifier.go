package services

import (
	"context"
	"log"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
	"vestia_back_end/internal/utils"
)

// UserEmailLookup récupère l'email d'un client pour la notification.
type UserEmailLookup func(ctx context.Context, userID gocql.UUID) (string, error)

// EmailNotifier envoie la confirmation de paiement avec le reçu PDF en
// pièce jointe. Tout est best-effort : un échec est logué, jamais remonté
// au webhook.
type EmailNotifier struct {
	LookupEmail UserEmailLookup
}

func NewEmailNotifier(lookup UserEmailLookup) *EmailNotifier {
	return &EmailNotifier{LookupEmail: lookup}
}

func (n *EmailNotifier) OrderPaid(ctx context.Context, order *models.Order) {
	email, err := n.LookupEmail(ctx, order.UserID)
	if err != nil || email == "" {
		log.Printf("⚠️ Email du client %s introuvable, confirmation non envoyée: %v", order.UserID, err)
		return
	}

	html := utils.GenerateOrderConfirmationHTML(*order)

	pdf, err := utils.GenerateReceiptPDF(*order)
	if err != nil {
		log.Printf("⚠️ Génération du reçu PDF échouée pour %s: %v", order.OrderNumber, err)
		pdf = nil // l'e-mail part sans pièce jointe
	}

	subject := "Pedido " + order.OrderNumber + " confirmado"
	if err := utils.SendConfirmationEmail(email, subject, html, pdf); err != nil {
		log.Printf("❌ Envoi de la confirmation de %s échoué: %v", order.OrderNumber, err)
		return
	}
	log.Printf("✅ Confirmation de la commande %s envoyée à %s", order.OrderNumber, email)
}
