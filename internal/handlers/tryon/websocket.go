package tryon

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/gorilla/websocket"

	"vestia_back_end/internal/database"
	"vestia_back_end/internal/models"
	"vestia_back_end/internal/tryon"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// L'authentification passe par le JWT, pas par l'origine
	CheckOrigin: func(r *http.Request) bool { return true },
}

//
// 🔌 GET /api/tryon/:id/ws (client)
//
// Pousse les changements de statut de la prova en temps réel. Le serveur
// relaie le canal Redis pub/sub de la demande et ferme une fois le statut
// terminal atteint.
//
func WatchTryOn(c *gin.Context) {
	userID, err := gocql.ParseUUID(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t, err := Repo.Get(ctx, id)
	cancel()
	if err != nil || t.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande introuvable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("❌ Upgrade WebSocket:", err)
		return
	}
	defer conn.Close()

	// S'abonner AVANT de relire l'état, sinon une mise à jour peut se
	// glisser entre les deux et ne jamais être vue.
	subCtx, stop := context.WithTimeout(context.Background(), 10*time.Minute)
	defer stop()

	sub := database.Redis.Subscribe(subCtx, tryon.Channel(id))
	defer sub.Close()

	// État courant en premier message
	first := tryon.StatusUpdate{
		ID:          t.ID,
		Status:      t.Status,
		ResultImage: t.ResultImage,
		Error:       t.Error,
	}
	if err := conn.WriteJSON(first); err != nil {
		return
	}
	if terminal(t.Status) {
		return
	}

	// Détection de fermeture côté client
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				stop()
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-subCtx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var update tryon.StatusUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				continue
			}
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if terminal(update.Status) {
				return
			}
		}
	}
}

func terminal(status string) bool {
	return status == models.TryOnCompleted || status == models.TryOnFailed
}
