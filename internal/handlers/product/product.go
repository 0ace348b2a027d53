package product

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
	"vestia_back_end/internal/utils"
)

// sellerStore récupère la boutique du vendeur connecté.
func sellerStore(c *gin.Context) (*models.Store, bool) {
	userID := c.GetString("user_id")
	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := database.GetStoreByOwner(ctx, uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vous n'avez pas encore de boutique"})
		return nil, false
	}
	return store, true
}

//
// 🟢 POST /api/products (vendeur)
//
func CreateProduct(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	var input struct {
		Name             string                  `json:"name"`
		Description      string                  `json:"description"`
		ShortDescription string                  `json:"short_description"`
		CategoryID       string                  `json:"category_id"`
		Brand            string                  `json:"brand"`
		SKU              string                  `json:"sku"`
		Price            float64                 `json:"price"`
		ComparePrice     *float64                `json:"compare_price"`
		Variants         []models.ProductVariant `json:"variants"`
		Attributes       models.ProductAttrs     `json:"attributes"`
		TryOnSettings    models.TryOnSettings    `json:"tryon_settings"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if input.Name == "" || input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom et prix requis"})
		return
	}

	categoryID, err := gocql.ParseUUID(input.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie invalide"})
		return
	}

	// Pas deux variantes identiques
	for i := range input.Variants {
		for j := i + 1; j < len(input.Variants); j++ {
			a := models.Variant{Size: input.Variants[i].Size, Color: input.Variants[i].Color}
			b := models.Variant{Size: input.Variants[j].Size, Color: input.Variants[j].Color}
			if a.Matches(b) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Variantes en double (même taille et couleur)"})
				return
			}
		}
		if input.Variants[i].Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Stock négatif interdit"})
			return
		}
	}

	now := time.Now()
	p := &models.Product{
		ID:               gocql.TimeUUID(),
		StoreID:          store.ID,
		Name:             input.Name,
		Slug:             utils.Slugify(input.Name),
		Description:      input.Description,
		ShortDescription: input.ShortDescription,
		CategoryID:       categoryID,
		Brand:            input.Brand,
		SKU:              input.SKU,
		Price:            input.Price,
		ComparePrice:     input.ComparePrice,
		Variants:         input.Variants,
		Attributes:       input.Attributes,
		TryOnSettings:    input.TryOnSettings,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Prova désactivée si la boutique ne l'autorise pas
	if !store.Settings.EnableTryOn {
		p.TryOnSettings.Enabled = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.SaveProduct(ctx, p); err != nil {
		log.Println("❌ Erreur création produit:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit"})
		return
	}

	// Compteur boutique, best-effort
	if session, err := database.GetProductsSession(); err == nil {
		if err := session.Query(`
			UPDATE store_stats SET total_products = total_products + 1 WHERE store_id = ?`,
			store.ID).WithContext(ctx).Exec(); err != nil {
			log.Println("⚠️ Compteur total_products non incrémenté:", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Produit créé", "product": p})
}

//
// ✏️ PUT /api/products/:id (vendeur)
//
func UpdateProduct(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	p, ok := ownProduct(c, store)
	if !ok {
		return
	}

	var input struct {
		Name             *string                  `json:"name"`
		Description      *string                  `json:"description"`
		ShortDescription *string                  `json:"short_description"`
		Brand            *string                  `json:"brand"`
		Price            *float64                 `json:"price"`
		ComparePrice     *float64                 `json:"compare_price"`
		Variants         *[]models.ProductVariant `json:"variants"`
		Attributes       *models.ProductAttrs     `json:"attributes"`
		TryOnSettings    *models.TryOnSettings    `json:"tryon_settings"`
		IsActive         *bool                    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if input.Name != nil {
		p.Name = *input.Name
		p.Slug = utils.Slugify(*input.Name)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.ShortDescription != nil {
		p.ShortDescription = *input.ShortDescription
	}
	if input.Brand != nil {
		p.Brand = *input.Brand
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prix invalide"})
			return
		}
		p.Price = *input.Price
	}
	if input.ComparePrice != nil {
		p.ComparePrice = input.ComparePrice
	}
	if input.Variants != nil {
		p.Variants = *input.Variants
	}
	if input.Attributes != nil {
		p.Attributes = *input.Attributes
	}
	if input.TryOnSettings != nil {
		p.TryOnSettings = *input.TryOnSettings
		if !store.Settings.EnableTryOn {
			p.TryOnSettings.Enabled = false
		}
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.SaveProduct(ctx, p); err != nil {
		log.Println("❌ Erreur mise à jour produit:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit mis à jour", "product": p})
}

//
// ❌ DELETE /api/products/:id (vendeur, soft delete)
//
func DeleteProduct(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	p, ok := ownProduct(c, store)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := database.DeleteProduct(ctx, p.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression produit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit désactivé"})
}

//
// 🔎 GET /api/products/:id (public)
//
func GetProduct(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := database.GetProduct(ctx, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if !p.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	refreshVariantStock(ctx, p)
	c.JSON(http.StatusOK, p)
}

//
// 📃 GET /api/products (public, filtres store_id / category_id)
//
func ListProducts(c *gin.Context) {
	var storeID, categoryID *gocql.UUID
	if raw := c.Query("store_id"); raw != "" {
		id, err := gocql.ParseUUID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "store_id invalide"})
			return
		}
		storeID = &id
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := gocql.ParseUUID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category_id invalide"})
			return
		}
		categoryID = &id
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := database.ListProducts(ctx, storeID, categoryID, 50)
	if err != nil {
		log.Println("❌ Erreur listing produits:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération produits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": list, "count": len(list)})
}

// refreshVariantStock remplace le stock figé du document produit par le
// stock vivant de product_stock.
func refreshVariantStock(ctx context.Context, p *models.Product) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}
	stock := database.NewScyllaStockStore(session)
	for i := range p.Variants {
		variant := models.Variant{Size: p.Variants[i].Size, Color: p.Variants[i].Color}
		if current, err := stock.Stock(ctx, p.ID, variant); err == nil {
			p.Variants[i].Stock = current
		}
	}
}

func ownProduct(c *gin.Context, store *models.Store) (*models.Product, bool) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p, err := database.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération produit"})
		}
		return nil, false
	}
	if p.StoreID != store.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Ce produit n'appartient pas à votre boutique"})
		return nil, false
	}
	return p, true
}
