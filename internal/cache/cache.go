package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetUserFromCache récupère un utilisateur depuis Redis ou ScyllaDB
func GetUserFromCache(userID string) (*models.User, error) {
	ctx := context.Background()
	key := "user:" + userID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	userUUID := gocql.UUID(uid)

	var (
		email, name, phone, cpf, role string
		asaasCustomerID               string
		bodyPhotoJSON, addressesJSON  string
	)

	err = session.Query(`SELECT email, name, phone, cpf, role, asaas_customer_id, body_photo, addresses
		FROM users WHERE user_id = ?`, userUUID).Scan(
		&email, &name, &phone, &cpf, &role, &asaasCustomerID, &bodyPhotoJSON, &addressesJSON)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:              userUUID,
		Email:           email,
		Name:            name,
		Phone:           phone,
		CPF:             cpf,
		Role:            role,
		AsaasCustomerID: asaasCustomerID,
	}
	if bodyPhotoJSON != "" {
		user.BodyPhoto = &models.Image{}
		json.Unmarshal([]byte(bodyPhotoJSON), user.BodyPhoto)
	}
	if addressesJSON != "" {
		json.Unmarshal([]byte(addressesJSON), &user.Addresses)
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(user)
	database.Redis.Set(ctx, key, jsonData, UserCacheTTL)

	return user, nil
}

// InvalidateUserCache invalide le cache d'un utilisateur après modification
func InvalidateUserCache(userID string) {
	database.Redis.Del(context.Background(), "user:"+userID)
}
