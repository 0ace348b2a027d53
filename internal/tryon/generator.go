// Package tryon porte le pipeline de prova virtuelle : file d'attente Redis,
// worker de génération et diffusion du résultat.
package tryon

import (
	"context"
	"errors"
	"fmt"

	"vestia_back_end/internal/models"
)

// ErrProviderUnavailable : le service de génération d'image ne répond pas.
// La demande repassera en file jusqu'à épuisement des tentatives.
var ErrProviderUnavailable = errors.New("service de génération indisponible")

// GenerateRequest : entrées d'une génération. Les URLs pointent vers les
// objets MinIO déjà téléversés.
type GenerateRequest struct {
	PersonImageURL  string
	GarmentImageURL string
	Category        string // upper_body, lower_body, dresses
}

// GenerateResult : sortie du prestataire.
type GenerateResult struct {
	ResultImageURL string
	Provider       string
	RequestID      string
}

// Generator produit l'image composite personne + vêtement.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// MockGenerator : générateur de développement. Renvoie l'image du vêtement
// telle quelle, ce qui suffit pour exercer tout le pipeline sans prestataire.
type MockGenerator struct {
	// Fail force l'échec, utilisé pour tester les reprises.
	Fail bool

	calls int
}

func (m *MockGenerator) Generate(_ context.Context, req GenerateRequest) (*GenerateResult, error) {
	m.calls++
	if m.Fail {
		return nil, ErrProviderUnavailable
	}
	if req.PersonImageURL == "" || req.GarmentImageURL == "" {
		return nil, errors.New("images manquantes pour la génération")
	}
	return &GenerateResult{
		ResultImageURL: req.GarmentImageURL,
		Provider:       "mock",
		RequestID:      fmt.Sprintf("mock-%d", m.calls),
	}, nil
}

// CategoryFor traduit la catégorie produit (top, bottom, dress...) vers la
// taxonomie du générateur. Tout ce qui n'est pas un bas ou une robe passe
// en haut du corps.
func CategoryFor(product *models.Product) string {
	if product == nil {
		return "upper_body"
	}
	switch product.TryOnSettings.Category {
	case "bottom":
		return "lower_body"
	case "dress":
		return "dresses"
	default:
		return "upper_body"
	}
}
