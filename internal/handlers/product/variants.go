package product

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
)

//
// 📦 PUT /api/products/:id/stock (vendeur)
//
// Réajustement manuel du stock d'une variante. Écriture directe dans
// product_stock, jamais utilisée par le checkout (lui passe par le CAS).
//
func SetVariantStock(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	p, ok := ownProduct(c, store)
	if !ok {
		return
	}

	var input struct {
		Size  string       `json:"size"`
		Color models.Color `json:"color"`
		Stock int          `json:"stock"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock négatif interdit"})
		return
	}

	wanted := models.Variant{Size: input.Size, Color: input.Color}

	// La variante doit exister sur le produit
	idx := -1
	for i := range p.Variants {
		existing := models.Variant{Size: p.Variants[i].Size, Color: p.Variants[i].Color}
		if existing.Matches(wanted) {
			idx = i
			break
		}
	}
	if idx == -1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variante inconnue pour ce produit"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stockStore := database.NewScyllaStockStore(session)
	if err := stockStore.SetStock(ctx, p.ID, wanted, input.Stock); err != nil {
		log.Println("❌ Erreur mise à jour stock:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour stock"})
		return
	}

	// On fige aussi la valeur dans le document produit (affichage)
	p.Variants[idx].Stock = input.Stock
	p.UpdatedAt = time.Now()
	if err := database.SaveProduct(ctx, p); err != nil {
		log.Println("⚠️ Stock mis à jour mais document produit non synchronisé:", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock mis à jour",
		"size":    wanted.Size,
		"color":   wanted.Color.Name,
		"stock":   input.Stock,
	})
}

//
// 📊 GET /api/products/:id/stock (vendeur)
//
func GetVariantStock(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	p, ok := ownProduct(c, store)
	if !ok {
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stockStore := database.NewScyllaStockStore(session)
	out := make([]gin.H, 0, len(p.Variants))
	for i := range p.Variants {
		v := models.Variant{Size: p.Variants[i].Size, Color: p.Variants[i].Color}
		current, err := stockStore.Stock(ctx, p.ID, v)
		if err != nil {
			current = p.Variants[i].Stock
		}
		out = append(out, gin.H{
			"size":  v.Size,
			"color": v.Color.Name,
			"stock": current,
		})
	}

	c.JSON(http.StatusOK, gin.H{"product_id": p.ID, "variants": out})
}
