package store

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/orders"
	"vestia_back_end/internal/utils"
)

// Dépendances injectées au démarrage (routes.Setup)
var (
	Orders    *orders.Service
	OrderRepo *database.ScyllaOrderRepo
)

//
// 🏪 POST /api/stores (vendeur)
//
func CreateStore(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		EnableTryOn bool   `json:"enable_tryon"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom de boutique requis"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Une seule boutique par vendeur
	if existing, err := database.GetStoreByOwner(ctx, userID); err == nil && existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Vous avez déjà une boutique"})
		return
	}

	now := time.Now()
	s := &models.Store{
		ID:          gocql.TimeUUID(),
		OwnerID:     userID,
		Name:        input.Name,
		Slug:        utils.Slugify(input.Name),
		Description: input.Description,
		Settings:    models.StoreSettings{EnableTryOn: input.EnableTryOn},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := database.SaveStore(ctx, s); err != nil {
		log.Println("❌ Erreur création boutique:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création boutique"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Boutique créée", "store": s})
}

//
// ✏️ PUT /api/stores/me (vendeur)
//
func UpdateMyStore(c *gin.Context) {
	s, ok := ownStore(c)
	if !ok {
		return
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		EnableTryOn *bool   `json:"enable_tryon"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if input.Name != nil {
		s.Name = *input.Name
		s.Slug = utils.Slugify(*input.Name)
	}
	if input.Description != nil {
		s.Description = *input.Description
	}
	if input.EnableTryOn != nil {
		s.Settings.EnableTryOn = *input.EnableTryOn
	}
	if input.IsActive != nil {
		s.IsActive = *input.IsActive
	}
	s.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.SaveStore(ctx, s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour boutique"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Boutique mise à jour", "store": s})
}

//
// 🏪 GET /api/stores/me (vendeur)
//
func GetMyStore(c *gin.Context) {
	s, ok := ownStore(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s)
}

//
// 🔎 GET /api/stores/:id (public)
//
func GetStore(c *gin.Context) {
	storeID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID boutique invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := database.GetStore(ctx, storeID)
	if err != nil || !s.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Boutique introuvable"})
		return
	}

	c.JSON(http.StatusOK, s)
}

//
// 📋 GET /api/stores/me/orders (vendeur)
//
// Les commandes multi-boutiques apparaissent chez chaque vendeur concerné,
// filtrées sur ses articles.
//
func GetStoreOrders(c *gin.Context) {
	s, ok := ownStore(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	orderList, err := OrderRepo.ListByStore(ctx, s.ID, 100)
	if err != nil {
		log.Println("❌ Erreur commandes boutique:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	// Vue vendeur : uniquement ses articles, pas ceux des autres boutiques
	type sellerOrder struct {
		ID          gocql.UUID         `json:"id"`
		OrderNumber string             `json:"order_number"`
		Status      string             `json:"status"`
		Items       []models.OrderItem `json:"items"`
		Shipping    models.ShippingInfo `json:"shipping"`
		Address     models.Address     `json:"shipping_address"`
		CreatedAt   time.Time          `json:"created_at"`
	}

	out := make([]sellerOrder, 0, len(orderList))
	for _, o := range orderList {
		so := sellerOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Shipping:    o.Shipping,
			Address:     o.ShippingAddress,
			CreatedAt:   o.CreatedAt,
		}
		for _, item := range o.Items {
			if item.StoreID == s.ID {
				so.Items = append(so.Items, item)
			}
		}
		out = append(out, so)
	}

	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

//
// 🚚 PUT /api/stores/me/orders/:id/status (vendeur)
//
// Avancement du traitement : paid → processing → shipped → delivered.
// Les transitions de paiement (paid, refunded) restent du ressort du webhook.
//
func UpdateOrderStatus(c *gin.Context) {
	s, ok := ownStore(c)
	if !ok {
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var input struct {
		Status       string `json:"status"`
		Carrier      string `json:"carrier"`
		TrackingCode string `json:"tracking_code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	switch input.Status {
	case models.OrderProcessing, models.OrderShipped, models.OrderDelivered:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut non autorisé pour un vendeur"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := Orders.Orders.Get(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	// La commande doit contenir au moins un article de la boutique
	concerned := false
	for _, item := range order.Items {
		if item.StoreID == s.ID {
			concerned = true
			break
		}
	}
	if !concerned {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	now := time.Now()
	if input.Status == models.OrderShipped {
		if input.TrackingCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Code de suivi requis pour l'expédition"})
			return
		}
		order.Shipping.Carrier = input.Carrier
		order.Shipping.TrackingCode = input.TrackingCode
		order.Shipping.ShippedAt = &now
	}
	if input.Status == models.OrderDelivered {
		order.Shipping.DeliveredAt = &now
	}

	note := "Statut mis à jour par la boutique " + s.Name
	if err := Orders.UpdateStatus(ctx, order, input.Status, note); err != nil {
		var invalid *orders.InvalidTransitionError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
			return
		}
		log.Println("❌ Erreur mise à jour statut:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour statut"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Statut mis à jour", "order": order})
}

func ownStore(c *gin.Context) (*models.Store, bool) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := database.GetStoreByOwner(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vous n'avez pas encore de boutique"})
		return nil, false
	}
	return s, true
}
