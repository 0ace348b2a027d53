package product

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
)

// Dépendances injectées au démarrage (routes.Setup)
var OrderRepo *database.ScyllaOrderRepo

//
// ⭐ POST /api/products/:id/reviews (client)
//
func CreateReview(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Rating < 1 || input.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "La note doit être entre 1 et 5"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := database.GetProduct(ctx, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	// Achat vérifié : au moins une commande payée contenant ce produit
	if !hasPurchased(ctx, userID, productID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Seuls les acheteurs du produit peuvent laisser un avis"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	// Un avis par client et par produit
	var existing gocql.UUID
	err = session.Query(`
		SELECT id FROM reviews_by_product WHERE product_id = ? AND user_id = ? ALLOW FILTERING`,
		productID, userID,
	).Scan(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Vous avez déjà laissé un avis sur ce produit"})
		return
	}

	userName := "Cliente Vestia"
	if cached, err := cache.GetUserFromCache(userID.String()); err == nil && cached.Name != "" {
		userName = cached.Name
	}

	review := models.Review{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}

	err = session.Query(`
		INSERT INTO reviews_by_product (product_id, id, user_id, user_name, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ProductID, review.ID, review.UserID, review.UserName,
		review.Rating, review.Comment, review.CreatedAt,
	).Exec()
	if err != nil {
		log.Println("❌ Erreur création avis:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement avis"})
		return
	}

	refreshRating(ctx, p)

	c.JSON(http.StatusCreated, gin.H{"message": "Avis enregistré", "review": review})
}

//
// ⭐ GET /api/products/:id/reviews (public)
//
func ListReviews(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	iter := session.Query(`
		SELECT product_id, id, user_id, user_name, rating, comment, created_at
		FROM reviews_by_product WHERE product_id = ?`, productID).Iter()

	var reviews []models.Review
	var r models.Review
	for iter.Scan(&r.ProductID, &r.ID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt) {
		reviews = append(reviews, r)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération avis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

// hasPurchased vérifie qu'au moins une commande payée (ou plus avancée)
// de ce client contient le produit.
func hasPurchased(ctx context.Context, userID, productID gocql.UUID) bool {
	if OrderRepo == nil {
		return false
	}
	orderList, err := OrderRepo.ListByUser(ctx, userID, 100)
	if err != nil {
		return false
	}
	for _, o := range orderList {
		if o.Status == models.OrderPending || o.Status == models.OrderCancelled {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true
			}
		}
	}
	return false
}

// refreshRating recalcule la moyenne à partir de tous les avis du produit.
func refreshRating(ctx context.Context, p *models.Product) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	iter := session.Query(`
		SELECT rating FROM reviews_by_product WHERE product_id = ?`, p.ID).Iter()

	var rating, total, count int
	for iter.Scan(&rating) {
		total += rating
		count++
	}
	if err := iter.Close(); err != nil {
		log.Println("⚠️ Recalcul de la note impossible:", err)
		return
	}

	p.Rating = models.RatingStats{Count: count}
	if count > 0 {
		p.Rating.Average = float64(total) / float64(count)
	}
	if err := database.SaveProduct(ctx, p); err != nil {
		log.Println("⚠️ Note recalculée mais produit non mis à jour:", err)
	}
}
