package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"vestia_back_end/internal/gateway"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// Asaas construit la configuration du prestataire de paiement. Appelé une
// fois au démarrage ; le client reçoit la config explicitement, il ne lit
// jamais l'environnement lui-même.
func Asaas() gateway.Config {
	baseURL := os.Getenv("ASAAS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://sandbox.asaas.com/api/v3"
	}
	apiKey := os.Getenv("ASAAS_API_KEY")
	if apiKey == "" {
		log.Println("⚠️ ASAAS_API_KEY absent — les paiements échoueront")
	}
	return gateway.Config{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: 15 * time.Second,
	}
}
