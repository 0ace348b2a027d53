package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/cache"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/services"
)

//
// ✏️ PUT /api/me
//
func UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		CPF   string `json:"cpf"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	if err := session.Query(`UPDATE users SET name = ?, phone = ?, cpf = ?, updated_at = ? WHERE user_id = ?`,
		input.Name, input.Phone, input.CPF, time.Now(), uid).Exec(); err != nil {
		log.Println("❌ Erreur mise à jour profil:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour profil"})
		return
	}

	cache.InvalidateUserCache(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour"})
}

//
// 🏠 PUT /api/me/addresses
//
func SaveAddresses(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Addresses []models.Address `json:"addresses"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// Une seule adresse par défaut
	defaultSeen := false
	for i := range input.Addresses {
		if input.Addresses[i].IsDefault {
			if defaultSeen {
				input.Addresses[i].IsDefault = false
			}
			defaultSeen = true
		}
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	uid, err := gocql.ParseUUID(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide"})
		return
	}

	raw, _ := json.Marshal(input.Addresses)
	if err := session.Query(`UPDATE users SET addresses = ?, updated_at = ? WHERE user_id = ?`,
		string(raw), time.Now(), uid).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement adresses"})
		return
	}

	cache.InvalidateUserCache(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Adresses enregistrées", "addresses": input.Addresses})
}

//
// 📸 POST /api/me/body-photo
// Photo corps pour le provador virtuel. Stockée en préfixe privé, servie
// uniquement en URL signée.
//
func UploadBodyPhoto(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo requise"})
		return
	}
	if file.Size > 10<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo trop lourde (max 10 Mo)"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url, key, err := services.UploadImage(ctx, services.PrefixBodyPhotos, file)
	if err != nil {
		log.Println("❌ Erreur upload photo corps:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur téléversement photo"})
		return
	}

	photo := models.Image{URL: url, PublicID: key}
	raw, _ := json.Marshal(photo)

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	uid, _ := gocql.ParseUUID(userID)
	if err := session.Query(`UPDATE users SET body_photo = ?, updated_at = ? WHERE user_id = ?`,
		string(raw), time.Now(), uid).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement photo"})
		return
	}

	cache.InvalidateUserCache(userID)

	signed, err := services.GenerateSignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		signed = ""
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo enregistrée", "signed_url": signed})
}

//
// ❌ DELETE /api/me/body-photo
//
func DeleteBodyPhoto(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil || user.BodyPhoto == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucune photo enregistrée"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := services.DeleteImage(ctx, user.BodyPhoto.PublicID); err != nil {
		log.Println("⚠️ Suppression objet MinIO échouée:", err)
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	uid, _ := gocql.ParseUUID(userID)
	if err := session.Query(`UPDATE users SET body_photo = '', updated_at = ? WHERE user_id = ?`,
		time.Now(), uid).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression photo"})
		return
	}

	cache.InvalidateUserCache(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Photo supprimée"})
}
