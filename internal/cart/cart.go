package cart

import (
	"errors"
	"time"

	"vestia_back_end/internal/models"
)

var (
	ErrItemNotFound    = errors.New("article introuvable dans le panier")
	ErrInvalidQuantity = errors.New("quantité minimale : 1")
)

// AddItem ajoute un article au panier. Si un article avec le même produit ET
// exactement la même variante (taille + nom de couleur) existe déjà, les
// quantités sont fusionnées ; sinon une nouvelle ligne est ajoutée.
func AddItem(c *models.Cart, item models.CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if sameLine(c.Items[i], item) {
			c.Items[i].Quantity += item.Quantity
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = time.Now()
	return nil
}

// UpdateQuantity remplace la quantité d'une ligne (index dans le panier).
func UpdateQuantity(c *models.Cart, index, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if index < 0 || index >= len(c.Items) {
		return ErrItemNotFound
	}
	c.Items[index].Quantity = quantity
	c.UpdatedAt = time.Now()
	return nil
}

// RemoveItem retire une ligne du panier.
func RemoveItem(c *models.Cart, index int) error {
	if index < 0 || index >= len(c.Items) {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	c.UpdatedAt = time.Now()
	return nil
}

// ApplyCoupon pose le coupon résolu sur le panier.
func ApplyCoupon(c *models.Cart, coupon models.CartCoupon) {
	c.Coupon = &coupon
	c.UpdatedAt = time.Now()
}

// RemoveCoupon retire le coupon du panier.
func RemoveCoupon(c *models.Cart) {
	c.Coupon = nil
	c.UpdatedAt = time.Now()
}

// Clear vide le panier et retire le coupon. Appelé après la création de la
// commande ; le panier lui-même n'est jamais supprimé.
func Clear(c *models.Cart) {
	c.Items = nil
	c.Coupon = nil
	c.UpdatedAt = time.Now()
}

// Subtotal = Σ prix × quantité.
func Subtotal(c *models.Cart) float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// DiscountAmount calcule la remise du coupon sur le sous-total.
func DiscountAmount(c *models.Cart) float64 {
	if c.Coupon == nil {
		return 0
	}
	if c.Coupon.Type == models.CouponPercentage {
		return Subtotal(c) * c.Coupon.Discount / 100
	}
	return c.Coupon.Discount
}

// Total = sous-total - remise, jamais négatif : un coupon fixe peut dépasser
// le sous-total, on plafonne à zéro.
func Total(c *models.Cart) float64 {
	t := Subtotal(c) - DiscountAmount(c)
	if t < 0 {
		return 0
	}
	return t
}

// TotalItems compte le nombre total d'articles (somme des quantités).
func TotalItems(c *models.Cart) int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func sameLine(a, b models.CartItem) bool {
	if a.ProductID != b.ProductID {
		return false
	}
	if a.Variant == nil || b.Variant == nil {
		return a.Variant == nil && b.Variant == nil
	}
	return a.Variant.Matches(*b.Variant)
}
