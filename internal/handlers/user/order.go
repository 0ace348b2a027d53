package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/cache"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/gateway"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/orders"
)

// Dépendances injectées au démarrage (routes.Setup)
var (
	Orders    *orders.Service
	OrderRepo *database.ScyllaOrderRepo
	Gateway   *gateway.Client
)

//
// 💳 POST /api/checkout
// Crée la commande (réservation de stock tout-ou-rien) puis la cobrança
// chez le prestataire. Si la cobrança échoue, la commande est annulée et le
// stock restitué : le client peut réessayer immédiatement.
//
func Checkout(c *gin.Context) {
	crt, uid, ok := currentCart(c)
	if !ok {
		return
	}

	var input struct {
		ShippingAddress models.Address      `json:"shipping_address"`
		PaymentMethod   string              `json:"payment_method"`
		Notes           string              `json:"notes"`
		Card            *gateway.CardDetails `json:"card,omitempty"`
		Installments    int                 `json:"installments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	switch input.PaymentMethod {
	case models.MethodPix, models.MethodBoleto:
	case models.MethodCreditCard, models.MethodDebitCard:
		if input.Card == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données de carte requises"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Méthode de paiement non supportée"})
		return
	}

	if input.ShippingAddress.Street == "" || input.ShippingAddress.City == "" || input.ShippingAddress.ZipCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse de livraison incomplète"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Client Asaas (créé au premier achat, réutilisé ensuite)
	user, err := cache.GetUserFromCache(uid.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	customerID, err := ensureAsaasCustomer(ctx, user)
	if err != nil {
		respondGatewayError(c, err)
		return
	}

	// 2. Création de la commande : réservation du stock, totaux, numéro
	order, err := Orders.Create(ctx, uid, crt, input.ShippingAddress, input.PaymentMethod, input.Notes)
	if err != nil {
		var oos *orders.OutOfStockError
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		case errors.As(err, &oos):
			c.JSON(http.StatusConflict, gin.H{"error": "Stock insuffisant", "product": oos.Product})
		default:
			log.Println("❌ Erreur création commande:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		}
		return
	}

	// 3. Cobrança chez le prestataire
	charge := gateway.ChargeRequest{
		CustomerID:        customerID,
		Value:             order.Pricing.Total,
		Description:       "Pedido " + order.OrderNumber,
		ExternalReference: order.ID.String(),
	}

	var chargeErr error
	switch input.PaymentMethod {
	case models.MethodPix:
		chargeErr = chargePix(ctx, order, charge)
	case models.MethodCreditCard, models.MethodDebitCard:
		chargeErr = chargeCard(ctx, order, charge, *input.Card, *user, input.Installments)
	case models.MethodBoleto:
		chargeErr = chargeBoleto(ctx, order, charge)
	}
	// Les champs carte ne servent plus : jamais persistés, jamais logués.
	input.Card = nil

	if chargeErr != nil {
		// Compensation : la cobrança n'existe pas, la commande non plus
		if cancelErr := Orders.Cancel(ctx, order, "Échec de la création du paiement"); cancelErr != nil {
			log.Printf("❌ Annulation compensatoire de %s échouée: %v", order.OrderNumber, cancelErr)
		}
		respondGatewayError(c, chargeErr)
		return
	}

	if err := OrderRepo.Update(ctx, order); err != nil {
		log.Printf("❌ Persistance des infos de paiement de %s échouée: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement paiement"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande créée",
		"order":   order,
	})
}

func chargePix(ctx context.Context, order *models.Order, charge gateway.ChargeRequest) error {
	pix, err := Gateway.CreatePixCharge(ctx, charge)
	if err != nil {
		return err
	}
	order.Payment.TransactionID = pix.ID
	order.Payment.PixCode = pix.Pix.Payload
	order.Payment.PixQrCode = pix.Pix.EncodedImage
	// QR absent chez le prestataire : on le génère localement
	if order.Payment.PixQrCode == "" && order.Payment.PixCode != "" {
		if encoded, err := gateway.EncodePixQR(order.Payment.PixCode); err == nil {
			order.Payment.PixQrCode = encoded
		}
	}
	return nil
}

func chargeCard(ctx context.Context, order *models.Order, charge gateway.ChargeRequest, card gateway.CardDetails, user models.User, installments int) error {
	holder := gateway.CardHolderInfo{
		Name:    card.HolderName,
		Email:   user.Email,
		CpfCnpj: user.CPF,
		Phone:   user.Phone,
	}
	if len(user.Addresses) > 0 {
		holder.PostalCode = user.Addresses[0].ZipCode
		holder.AddressNumber = user.Addresses[0].Number
	}

	payment, err := Gateway.CreateCardCharge(ctx, charge, card, holder, installments)
	if err != nil {
		return err
	}
	order.Payment.TransactionID = payment.ID
	// Une carte CONFIRMED est payée immédiatement : la commande passe en
	// paid sans attendre le webhook (qui devient alors un no-op). Tout
	// autre statut reste en analyse côté prestataire.
	if payment.Status == gateway.StatusConfirmed {
		now := time.Now()
		order.Payment.Status = models.PaymentPaid
		order.Payment.PaidAt = &now
		orders.ApplyStatus(order, models.OrderPaid, "Pagamento confirmado")
	} else {
		order.Payment.Status = models.PaymentProcessing
	}
	return nil
}

func chargeBoleto(ctx context.Context, order *models.Order, charge gateway.ChargeRequest) error {
	payment, err := Gateway.CreateBoletoCharge(ctx, charge)
	if err != nil {
		return err
	}
	order.Payment.TransactionID = payment.ID
	order.Payment.BoletoURL = payment.BankSlipURL
	order.Payment.BoletoBarcode = payment.IdentificationField
	return nil
}

// ensureAsaasCustomer renvoie l'ID client Asaas, en le créant au besoin et
// en le mémorisant sur le profil.
func ensureAsaasCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.AsaasCustomerID != "" {
		return user.AsaasCustomerID, nil
	}

	// Peut-être déjà créé sous un autre compte avec le même CPF
	if user.CPF != "" {
		if existing, err := Gateway.FindCustomerByCpfCnpj(ctx, user.CPF); err == nil && existing != nil {
			saveAsaasCustomerID(ctx, user, existing.ID)
			return existing.ID, nil
		}
	}

	customer, err := Gateway.CreateCustomer(ctx, gateway.CustomerRequest{
		Name:              user.Name,
		Email:             user.Email,
		CpfCnpj:           user.CPF,
		Phone:             user.Phone,
		ExternalReference: user.ID.String(),
	})
	if err != nil {
		return "", err
	}
	saveAsaasCustomerID(ctx, user, customer.ID)
	return customer.ID, nil
}

func saveAsaasCustomerID(ctx context.Context, user *models.User, customerID string) {
	user.AsaasCustomerID = customerID
	session, err := database.GetUsersSession()
	if err != nil {
		return
	}
	if err := session.Query(`UPDATE users SET asaas_customer_id = ?, updated_at = ? WHERE user_id = ?`,
		customerID, time.Now(), user.ID).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ ID client Asaas non mémorisé pour %s: %v", user.ID, err)
	}
	cache.InvalidateUserCache(user.ID.String())
}

func respondGatewayError(c *gin.Context, err error) {
	var apiErr *gateway.Error
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Description})
		return
	}
	if errors.Is(err, gateway.ErrUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Prestataire de paiement indisponible, réessayez"})
		return
	}
	log.Println("❌ Erreur prestataire de paiement:", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur paiement"})
}

//
// 📦 GET /api/orders
//
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}
	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := OrderRepo.ListByUser(ctx, uid, limit)
	if err != nil {
		log.Println("❌ Erreur récupération commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	// Filtre de statut optionnel (?status=paid)
	if status := c.Query("status"); status != "" {
		filtered := list[:0]
		for _, o := range list {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}
		list = filtered
	}

	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

//
// 📦 GET /api/orders/number/:number
//
func GetOrderByNumber(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order, err := OrderRepo.GetByNumber(ctx, c.Param("number"))
	if err != nil || order.UserID.String() != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	c.JSON(http.StatusOK, order)
}

//
// 📦 GET /api/orders/:id
//
func GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	order, ok := ownOrder(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

//
// ❌ POST /api/orders/:id/cancel
// Annulation client : uniquement avant expédition (pending ou paid).
//
func CancelOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	order, ok := ownOrder(c, userID)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&input)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wasPaid := order.Status == models.OrderPaid

	if err := Orders.Cancel(ctx, order, input.Reason); err != nil {
		if errors.Is(err, orders.ErrCannotCancel) {
			c.JSON(http.StatusConflict, gin.H{"error": "Cette commande ne peut plus être annulée"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur annulation"})
		return
	}

	// Cobrança côté prestataire : suppression si impayée, estorno si payée
	if order.Payment.TransactionID != "" {
		if wasPaid {
			if _, err := Gateway.Refund(ctx, order.Payment.TransactionID, nil); err != nil {
				log.Printf("⚠️ Estorno de %s non lancé: %v", order.OrderNumber, err)
			}
		} else {
			if err := Gateway.Delete(ctx, order.Payment.TransactionID); err != nil {
				log.Printf("⚠️ Suppression de la cobrança de %s échouée: %v", order.OrderNumber, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Commande annulée", "order": order})
}

// ownOrder charge la commande du path param en vérifiant qu'elle appartient
// bien à l'utilisateur connecté.
func ownOrder(c *gin.Context, userID string) (*models.Order, bool) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order, err := OrderRepo.Get(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}
	if order.UserID.String() != userID {
		// Ne pas révéler l'existence de la commande
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return nil, false
	}
	return order, true
}
