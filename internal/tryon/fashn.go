package tryon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// FashnConfig : accès à l'API Fashn (https://api.fashn.ai).
type FashnConfig struct {
	BaseURL      string
	APIKey       string
	PollInterval time.Duration
}

// FashnGenerator pilote l'API Fashn : soumission de la prédiction puis
// polling du statut jusqu'au résultat. Le contexte appelant borne la durée
// totale (timeout du worker).
type FashnGenerator struct {
	http         *resty.Client
	pollInterval time.Duration
}

func NewFashnGenerator(cfg FashnConfig) *FashnGenerator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &FashnGenerator{http: client, pollInterval: cfg.PollInterval}
}

type fashnRun struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type fashnStatus struct {
	ID     string   `json:"id"`
	Status string   `json:"status"` // starting, in_queue, processing, completed, failed
	Output []string `json:"output,omitempty"`
	Error  *struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *FashnGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.PersonImageURL == "" || req.GarmentImageURL == "" {
		return nil, fmt.Errorf("images manquantes pour la génération")
	}

	var run fashnRun
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model_name": "tryon-v1.6",
			"inputs": map[string]string{
				"model_image":   req.PersonImageURL,
				"garment_image": req.GarmentImageURL,
				"category":      req.Category,
			},
		}).
		SetResult(&run).
		Post("/v1/run")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK || run.ID == "" {
		return nil, fmt.Errorf("%w: soumission refusée (%d)", ErrProviderUnavailable, resp.StatusCode())
	}

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
		case <-ticker.C:
		}

		var status fashnStatus
		resp, err := g.http.R().
			SetContext(ctx).
			SetResult(&status).
			Get("/v1/status/" + run.ID)
		if err != nil || resp.StatusCode() != http.StatusOK {
			continue // erreur transitoire de polling, on réessaie
		}

		switch status.Status {
		case "completed":
			if len(status.Output) == 0 {
				return nil, fmt.Errorf("génération terminée sans image (prédiction %s)", run.ID)
			}
			return &GenerateResult{
				ResultImageURL: status.Output[0],
				Provider:       "fashn",
				RequestID:      run.ID,
			}, nil
		case "failed":
			msg := "génération en échec"
			if status.Error != nil {
				msg = status.Error.Message
			}
			return nil, fmt.Errorf("prédiction %s: %s", run.ID, msg)
		}
		// starting / in_queue / processing : on continue à attendre
	}
}
