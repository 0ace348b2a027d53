package payment

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/gateway"
	"vestia_back_end/internal/models"
)

// Dépendances injectées au démarrage (routes.Setup)
var (
	OrderRepo *database.ScyllaOrderRepo
	Gateway   *gateway.Client
)

//
// 💳 GET /api/payments/orders/:id (client)
//
// Statut de paiement d'une commande. Tant que la commande attend son
// paiement, on interroge aussi le prestataire pour refléter un règlement
// que le webhook n'aurait pas encore livré.
//
func GetOrderPayment(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := OrderRepo.Get(ctx, orderID)
	if err != nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	resp := gin.H{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"payment":      order.Payment,
	}

	// Vue fraîche du prestataire pour les paiements encore en attente
	if order.Payment.TransactionID != "" &&
		(order.Payment.Status == models.PaymentPending || order.Payment.Status == models.PaymentProcessing) {
		remote, err := Gateway.GetPayment(ctx, order.Payment.TransactionID)
		if err != nil {
			if !errors.Is(err, gateway.ErrUnavailable) {
				log.Println("⚠️ Consultation paiement Asaas:", err)
			}
		} else {
			resp["provider_status"] = remote.Status
			if remote.InvoiceURL != "" {
				resp["invoice_url"] = remote.InvoiceURL
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

//
// 💳 GET /api/payments/orders/:id/pix (client)
//
// Redonne le QR Code PIX d'une commande en attente (copia e cola + image).
//
func GetOrderPix(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order, err := OrderRepo.Get(ctx, orderID)
	if err != nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if order.Payment.Method != models.MethodPix || order.Payment.PixCode == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun paiement PIX pour cette commande"})
		return
	}
	if order.Status != models.OrderPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'attend plus de paiement"})
		return
	}

	qr := order.Payment.PixQrCode
	if qr == "" {
		if encoded, err := gateway.EncodePixQR(order.Payment.PixCode); err == nil {
			qr = encoded
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"pix_code":    order.Payment.PixCode,
		"pix_qr_code": qr,
	})
}
