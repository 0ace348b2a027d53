package tryon

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/cache"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/tryon"
)

// Dépendances injectées au démarrage (routes.Setup)
var (
	Repo  *database.ScyllaTryOnRepo
	Queue tryon.Queue
)

//
// 🪞 POST /api/tryon (client)
//
// Crée une demande de prova virtuelle : photo du client + image du vêtement.
// La génération est asynchrone, le résultat arrive par polling ou WebSocket.
//
func CreateTryOn(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string          `json:"product_id"`
		Variant   *models.Variant `json:"variant"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productID, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Le client doit avoir une photo de corps
	user, err := cache.GetUserFromCache(userID.String())
	if err != nil || user.BodyPhoto == nil || user.BodyPhoto.URL == "" {
		c.JSON(http.StatusPreconditionFailed, gin.H{
			"error": "Ajoutez d'abord une photo de corps à votre profil",
		})
		return
	}

	// 2. Le produit doit autoriser la prova
	product, err := database.GetProduct(ctx, productID)
	if err != nil || !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if !product.TryOnSettings.Enabled {
		c.JSON(http.StatusConflict, gin.H{"error": "La prova virtuelle n'est pas disponible pour ce produit"})
		return
	}

	// 3. La boutique aussi
	store, err := database.GetStore(ctx, product.StoreID)
	if err != nil || !store.Settings.EnableTryOn {
		c.JSON(http.StatusConflict, gin.H{"error": "La boutique n'a pas activé la prova virtuelle"})
		return
	}

	// 4. Image de vêtement : la dédiée prova si présente, sinon la principale
	garment := product.TryOnImage
	if garment == nil {
		for i := range product.Images {
			if product.Images[i].IsMain {
				garment = &product.Images[i]
				break
			}
		}
		if garment == nil && len(product.Images) > 0 {
			garment = &product.Images[0]
		}
	}
	if garment == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce produit n'a pas d'image exploitable pour la prova"})
		return
	}

	t := &models.TryOn{
		ID:           gocql.TimeUUID(),
		UserID:       userID,
		ProductID:    product.ID,
		StoreID:      product.StoreID,
		UserImage:    *user.BodyPhoto,
		ProductImage: *garment,
		Variant:      input.Variant,
		Category:     tryon.CategoryFor(product),
		Status:       models.TryOnPending,
		CreatedAt:    time.Now(),
	}

	if err := Repo.Insert(ctx, t); err != nil {
		log.Println("❌ Erreur création demande prova:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	if err := Queue.Enqueue(ctx, t.ID); err != nil {
		// La demande existe en base, le balayeur la reprendra
		log.Println("⚠️ Demande prova créée mais non mise en file:", err)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Prova en cours de génération",
		"tryon":   t,
		"channel": tryon.Channel(t.ID),
	})
}

//
// 🔎 GET /api/tryon/:id (client)
//
func GetTryOn(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t, err := Repo.Get(ctx, id)
	if err != nil || t.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	c.JSON(http.StatusOK, t)
}

//
// 🗂️ GET /api/tryon (client, historique)
//
func ListTryOns(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := Repo.ListByUser(ctx, userID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération historique"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tryons": list, "count": len(list)})
}
