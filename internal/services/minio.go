package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"

	"vestia_back_end/internal/database"
)

// Préfixes d'objets par usage. Les photos corps vivent dans un préfixe à
// part : elles ne sont servies qu'en URL signée, jamais publiques.
const (
	PrefixProducts   = "products"
	PrefixBodyPhotos = "body-photos"
	PrefixTryOns     = "tryons"
)

func bucket() string {
	return os.Getenv("MINIO_BUCKET")
}

// UploadImage téléverse une image sous <prefix>/<uuid><ext> et renvoie
// (url, objectKey). L'objectKey sert de public_id pour la suppression.
func UploadImage(ctx context.Context, prefix string, file *multipart.FileHeader) (string, string, error) {
	if database.MinIO == nil {
		return "", "", fmt.Errorf("MinIO non initialisé")
	}
	f, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, gocql.TimeUUID().String(), path.Ext(file.Filename))
	_, err = database.MinIO.PutObject(ctx, bucket(), key, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", "", err
	}

	publicURL := fmt.Sprintf("http://%s/%s/%s", os.Getenv("MINIO_ENDPOINT"), bucket(), key)
	return publicURL, key, nil
}

// DeleteImage supprime un objet par sa clé (public_id).
func DeleteImage(ctx context.Context, key string) error {
	if database.MinIO == nil {
		return fmt.Errorf("MinIO non initialisé")
	}
	return database.MinIO.RemoveObject(ctx, bucket(), key, minio.RemoveObjectOptions{})
}

// GenerateSignedURL renvoie une URL signée à durée limitée pour un objet.
// Utilisé pour les photos corps et les résultats de prova.
func GenerateSignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}
	reqParams := make(url.Values)
	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket(), key, duration, reqParams)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}
