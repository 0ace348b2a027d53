package product

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/utils"
)

//
// 🗂️ POST /api/categories (admin)
//
func CreateCategory(c *gin.Context) {
	var input struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
		Order    int     `json:"order"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom requis"})
		return
	}

	cat := models.Category{
		ID:        gocql.TimeUUID(),
		Name:      input.Name,
		Slug:      utils.Slugify(input.Name),
		Order:     input.Order,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if input.ParentID != nil {
		parentID, err := gocql.ParseUUID(*input.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent_id invalide"})
			return
		}
		cat.ParentID = &parentID
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	err = session.Query(`
		INSERT INTO categories (id, name, slug, parent_id, image, sort_order, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Slug, cat.ParentID, "", cat.Order, cat.IsActive, cat.CreatedAt, cat.UpdatedAt,
	).Exec()
	if err != nil {
		log.Println("❌ Erreur création catégorie:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création catégorie"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Catégorie créée", "category": cat})
}

//
// 🗂️ GET /api/categories (public)
//
func ListCategories(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	iter := session.Query(`
		SELECT id, name, slug, parent_id, image, sort_order, is_active, created_at, updated_at
		FROM categories`).Iter()

	var categories []models.Category
	var cat models.Category
	var parentID *gocql.UUID
	var imageJSON string
	for iter.Scan(&cat.ID, &cat.Name, &cat.Slug, &parentID, &imageJSON,
		&cat.Order, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt) {
		if !cat.IsActive {
			continue
		}
		cat.ParentID = parentID
		cat.Image = nil
		if imageJSON != "" {
			var img models.Image
			if json.Unmarshal([]byte(imageJSON), &img) == nil {
				cat.Image = &img
			}
		}
		categories = append(categories, cat)
		parentID = nil
	}
	if err := iter.Close(); err != nil {
		log.Println("❌ Erreur listing catégories:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération catégories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

//
// ✏️ PUT /api/categories/:id (admin)
//
func UpdateCategory(c *gin.Context) {
	categoryID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID catégorie invalide"})
		return
	}

	var input struct {
		Name     *string `json:"name"`
		Order    *int    `json:"order"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Base de données indisponible"})
		return
	}

	var cat models.Category
	var parentID *gocql.UUID
	var imageJSON string
	err = session.Query(`
		SELECT id, name, slug, parent_id, image, sort_order, is_active, created_at, updated_at
		FROM categories WHERE id = ?`, categoryID,
	).Scan(&cat.ID, &cat.Name, &cat.Slug, &parentID, &imageJSON,
		&cat.Order, &cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Catégorie introuvable"})
		return
	}

	if input.Name != nil {
		cat.Name = *input.Name
		cat.Slug = utils.Slugify(*input.Name)
	}
	if input.Order != nil {
		cat.Order = *input.Order
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}
	cat.UpdatedAt = time.Now()

	err = session.Query(`
		UPDATE categories SET name = ?, slug = ?, sort_order = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		cat.Name, cat.Slug, cat.Order, cat.IsActive, cat.UpdatedAt, categoryID,
	).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour catégorie"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Catégorie mise à jour", "category": cat})
}
