package user

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"vestia_back_end/internal/cache"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/utils"
)

// ================== AUTH LOCALE ==================

func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		CPF      string `json:"cpf"`
		Seller   bool   `json:"seller"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Email == "" || input.Password == "" || input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom, email et mot de passe requis"})
		return
	}

	// email déjà pris ?
	var existingID gocql.UUID
	if err := database.GetPreparedGetUserByEmail().Bind(input.Email).Scan(&existingID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	role := models.RoleCustomer
	if input.Seller {
		role = models.RoleSeller
	}

	now := time.Now()
	user := models.User{
		ID:        gocql.TimeUUID(),
		Email:     input.Email,
		Password:  hashedPassword,
		Name:      input.Name,
		Phone:     input.Phone,
		CPF:       input.CPF,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := database.GetPreparedInsertUser().Bind(
		user.ID, user.Email, user.Password, user.Name, user.Phone, user.CPF,
		user.Role, "", "", "", user.CreatedAt, user.UpdatedAt).Exec(); err != nil {
		log.Println("❌ Erreur insertion utilisateur:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}
	if err := database.GetPreparedInsertUserByEmail().Bind(user.Email, user.ID).Exec(); err != nil {
		log.Println("❌ Erreur insertion users_by_email:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, _ := utils.GenerateJWT(user)
	c.JSON(http.StatusCreated, gin.H{
		"token":  token,
		"userId": user.ID.String(),
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID gocql.UUID
	if err := database.GetPreparedGetUserByEmail().Bind(input.Email).Scan(&userID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	user := models.User{ID: userID}
	var bodyPhotoJSON, addressesJSON string
	if err := database.GetPreparedGetUserByID().Bind(userID).Scan(
		&user.Email, &user.Password, &user.Name, &user.Phone, &user.CPF, &user.Role,
		&bodyPhotoJSON, &user.AsaasCustomerID, &addressesJSON); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	if bodyPhotoJSON != "" {
		user.BodyPhoto = &models.Image{}
		json.Unmarshal([]byte(bodyPhotoJSON), user.BodyPhoto)
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  token,
		"userId": user.ID.String(),
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
	})
}

// Me renvoie le profil de l'utilisateur connecté (via cache)
func Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, user)
}
