package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vestia_back_end/internal/config"
	"vestia_back_end/internal/database"
	"vestia_back_end/internal/routes"
)

func main() {
	config.Load()

	database.ConnectDatabases()
	defer database.CloseScylla()

	// ✅ Initialiser les prepared statements pour améliorer les performances
	database.InitPreparedStatements()

	worker, err := routes.Setup()
	if err != nil {
		log.Fatal("❌ Impossible d'initialiser les dépendances :", err)
	}

	// Worker de prova virtuelle + balayeur des demandes bloquées
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go worker.Run(ctx)
	go worker.RunSweeper(ctx, time.Minute)
	log.Println("✅ Worker de prova virtuelle démarré")

	r := gin.Default()
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Vestia lancé sur le port", port)
	r.Run(":" + port)
}
