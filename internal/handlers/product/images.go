package product

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/services"
)

const maxProductImageSize = 10 << 20 // 10 MB

//
// 📤 POST /api/products/:id/images (vendeur)
//
func UploadProductImage(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	p, ok := ownProduct(c, store)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' requis"})
		return
	}
	if file.Size > maxProductImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop lourde (max 10 Mo)"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, key, err := services.UploadImage(ctx, services.PrefixProducts, file)
	if err != nil {
		log.Println("❌ Erreur upload image produit:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload image"})
		return
	}

	img := models.Image{URL: url, PublicID: key, IsMain: len(p.Images) == 0}
	if c.PostForm("tryon") == "true" {
		// Image dédiée à la prova virtuelle (vêtement à plat, fond neutre)
		p.TryOnImage = &img
	} else {
		p.Images = append(p.Images, img)
	}
	p.UpdatedAt = time.Now()

	if err := database.SaveProduct(ctx, p); err != nil {
		services.DeleteImage(ctx, key)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement image"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Image ajoutée", "image": img})
}

//
// 🗑️ DELETE /api/products/:id/images (vendeur)
//
func DeleteProductImage(c *gin.Context) {
	store, ok := sellerStore(c)
	if !ok {
		return
	}

	p, ok := ownProduct(c, store)
	if !ok {
		return
	}

	var input struct {
		PublicID string `json:"public_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.PublicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "public_id requis"})
		return
	}

	found := false
	if p.TryOnImage != nil && p.TryOnImage.PublicID == input.PublicID {
		p.TryOnImage = nil
		found = true
	} else {
		kept := p.Images[:0]
		for _, img := range p.Images {
			if img.PublicID == input.PublicID {
				found = true
				continue
			}
			kept = append(kept, img)
		}
		p.Images = kept
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image introuvable sur ce produit"})
		return
	}

	// Si l'image principale part, la première restante la remplace
	hasMain := false
	for i := range p.Images {
		if p.Images[i].IsMain {
			hasMain = true
			break
		}
	}
	if !hasMain && len(p.Images) > 0 {
		p.Images[0].IsMain = true
	}
	p.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.SaveProduct(ctx, p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement produit"})
		return
	}

	if err := services.DeleteImage(ctx, input.PublicID); err != nil {
		log.Println("⚠️ Image retirée du produit mais pas du bucket:", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image supprimée"})
}
