package user

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/cart"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
)

// Dépendances injectées au démarrage (routes.Setup)
var (
	Carts   *database.RedisCartStore
	Coupons cart.Resolver
)

func cartResponse(crt *models.Cart) gin.H {
	return gin.H{
		"items":       crt.Items,
		"coupon":      crt.Coupon,
		"subtotal":    cart.Subtotal(crt),
		"discount":    cart.DiscountAmount(crt),
		"total":       cart.Total(crt),
		"total_items": cart.TotalItems(crt),
	}
}

func currentCart(c *gin.Context) (*models.Cart, gocql.UUID, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return nil, gocql.UUID{}, false
	}
	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return nil, gocql.UUID{}, false
	}
	crt, err := Carts.Get(context.Background(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return nil, gocql.UUID{}, false
	}
	return crt, uid, true
}

//
// 🛒 GET /api/cart
//
func GetCart(c *gin.Context) {
	crt, _, ok := currentCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(crt))
}

//
// 🟢 POST /api/cart/items
//
func AddToCart(c *gin.Context) {
	crt, _, ok := currentCart(c)
	if !ok {
		return
	}

	var input struct {
		ProductID string          `json:"product_id"`
		Variant   *models.Variant `json:"variant"`
		Quantity  int             `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productID, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 🧩 Snapshot du produit : nom, image et prix capturés à l'ajout
	product, err := database.GetProduct(ctx, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit indisponible"})
		return
	}

	// Le produit a des variantes : il faut en choisir une
	price := product.Price
	if len(product.Variants) > 0 {
		if input.Variant == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Taille et couleur requises"})
			return
		}
		found := false
		for _, v := range product.Variants {
			if (models.Variant{Size: v.Size, Color: v.Color}).Matches(*input.Variant) {
				found = true
				if v.Price != nil {
					price = *v.Price
				}
				break
			}
		}
		if !found {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Variante inexistante pour ce produit"})
			return
		}
	}

	image := ""
	for _, img := range product.Images {
		if img.IsMain {
			image = img.URL
			break
		}
	}
	if image == "" && len(product.Images) > 0 {
		image = product.Images[0].URL
	}

	item := models.CartItem{
		ProductID: product.ID,
		StoreID:   product.StoreID,
		Name:      product.Name,
		Image:     image,
		Variant:   input.Variant,
		Quantity:  input.Quantity,
		Price:     price,
	}

	if err := cart.AddItem(crt, item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Carts.Save(ctx, crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté au panier", "cart": cartResponse(crt)})
}

//
// 🔁 PUT /api/cart/items/:index
//
func UpdateCartItem(c *gin.Context) {
	crt, _, ok := currentCart(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index invalide"})
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if err := cart.UpdateQuantity(crt, index, input.Quantity); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, cart.ErrItemNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if err := Carts.Save(context.Background(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, cartResponse(crt))
}

//
// ❌ DELETE /api/cart/items/:index
//
func RemoveFromCart(c *gin.Context) {
	crt, _, ok := currentCart(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Index invalide"})
		return
	}

	if err := cart.RemoveItem(crt, index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err := Carts.Save(context.Background(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé du panier", "cart": cartResponse(crt)})
}

//
// 🎟️ POST /api/cart/coupon
//
func ApplyCoupon(c *gin.Context) {
	crt, _, ok := currentCart(c)
	if !ok {
		return
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code requis"})
		return
	}

	coupon, err := Coupons.Resolve(input.Code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Coupon invalide ou expiré"})
		return
	}

	cart.ApplyCoupon(crt, coupon)
	if err := Carts.Save(context.Background(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon appliqué", "cart": cartResponse(crt)})
}

//
// 🎟️ DELETE /api/cart/coupon
//
func RemoveCoupon(c *gin.Context) {
	crt, _, ok := currentCart(c)
	if !ok {
		return
	}

	cart.RemoveCoupon(crt)
	if err := Carts.Save(context.Background(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon retiré", "cart": cartResponse(crt)})
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(c *gin.Context) {
	_, uid, ok := currentCart(c)
	if !ok {
		return
	}

	if err := Carts.Clear(context.Background(), uid); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé avec succès"})
}
