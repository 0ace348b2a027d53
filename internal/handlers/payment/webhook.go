package payment

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"vestia_back_end/internal/payments"
)

// Dépendances injectées au démarrage (routes.Setup)
var Reconciler *payments.Reconciler

//
// 🔔 POST /api/payments/webhook
//
// Réception des notifications Asaas. Le prestataire rejoue tout événement
// non acquitté en 200 : on ne renvoie une erreur QUE si la persistance a
// échoué, jamais pour un événement inconnu ou déjà traité.
//
func AsaasWebhook(c *gin.Context) {
	// Jeton partagé configuré côté Asaas (en-tête asaas-access-token)
	if expected := os.Getenv("ASAAS_WEBHOOK_TOKEN"); expected != "" {
		if c.GetHeader("asaas-access-token") != expected {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "jeton webhook invalide"})
			return
		}
	}

	var evt payments.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		// Payload illisible : acquitter, rejouer ne changera rien
		log.Println("⚠️ Webhook Asaas illisible:", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := Reconciler.Process(ctx, evt); err != nil {
		// Persistance en échec : 500 pour que Asaas relivre l'événement
		log.Printf("❌ Webhook %s (paiement %s) non persisté: %v", evt.Event, evt.Payment.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "traitement différé, relivraison attendue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
