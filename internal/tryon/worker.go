package tryon

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"vestia_back_end/internal/models"
)

// Repository : persistance des demandes de prova. Stuck renvoie les demandes
// abandonnées depuis plus longtemps que la durée donnée : en processing
// (worker tombé), ou en pending jamais démarrées (mise en file perdue).
type Repository interface {
	Get(ctx context.Context, id gocql.UUID) (*models.TryOn, error)
	Update(ctx context.Context, t *models.TryOn) error
	Stuck(ctx context.Context, olderThan time.Duration) ([]*models.TryOn, error)
}

// Worker consomme la file de prova et pilote le générateur. Un seul worker
// par instance suffit : la génération est bornée par le prestataire, pas
// par le CPU local.
type Worker struct {
	Repo      Repository
	Queue     Queue
	Generator Generator
	Publisher Publisher

	// Timeout borne chaque appel au générateur.
	Timeout time.Duration
	// Staleness : âge au-delà duquel une demande en processing est
	// considérée abandonnée (crash du worker pendant la génération).
	Staleness time.Duration
	// MaxAttempts avant de marquer la demande en échec définitif.
	MaxAttempts int
	// PollInterval : attente BRPOP entre deux relèves de la file.
	PollInterval time.Duration
}

func NewWorker(repo Repository, queue Queue, gen Generator, pub Publisher) *Worker {
	return &Worker{
		Repo:         repo,
		Queue:        queue,
		Generator:    gen,
		Publisher:    pub,
		Timeout:      60 * time.Second,
		Staleness:    5 * time.Minute,
		MaxAttempts:  3,
		PollInterval: 5 * time.Second,
	}
}

// Run boucle jusqu'à annulation du contexte. À lancer en goroutine depuis
// main, à côté du balayeur.
func (w *Worker) Run(ctx context.Context) {
	log.Println("✅ Worker de prova virtuelle démarré")
	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Worker de prova virtuelle arrêté")
			return
		default:
		}

		id, err := w.Queue.Dequeue(ctx, w.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("❌ Lecture de la file de prova échouée: %v", err)
			time.Sleep(w.PollInterval)
			continue
		}
		if (id == gocql.UUID{}) {
			continue
		}

		if err := w.ProcessOne(ctx, id); err != nil {
			log.Printf("❌ Traitement prova %s échoué: %v", id, err)
		}
	}
}

// ProcessOne traite une demande : pending -> processing -> completed/failed,
// chaque étape persistée avant de continuer. Une demande déjà terminée
// (doublon en file) est ignorée.
func (w *Worker) ProcessOne(ctx context.Context, id gocql.UUID) error {
	t, err := w.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == models.TryOnCompleted || t.Status == models.TryOnFailed {
		return nil
	}

	now := time.Now()
	t.Status = models.TryOnProcessing
	t.StartedAt = &now
	t.Attempts++
	if err := w.Repo.Update(ctx, t); err != nil {
		return err
	}
	w.publish(ctx, t)

	genCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	result, genErr := w.Generator.Generate(genCtx, GenerateRequest{
		PersonImageURL:  t.UserImage.URL,
		GarmentImageURL: t.ProductImage.URL,
		Category:        t.Category,
	})
	if genErr != nil {
		return w.handleFailure(ctx, t, genErr)
	}

	done := time.Now()
	t.Status = models.TryOnCompleted
	t.ResultImage = result.ResultImageURL
	t.Provider = result.Provider
	t.RequestID = result.RequestID
	t.Error = ""
	t.CompletedAt = &done
	if err := w.Repo.Update(ctx, t); err != nil {
		return err
	}
	w.publish(ctx, t)
	log.Printf("✅ Prova %s générée (%s)", t.ID, result.Provider)
	return nil
}

// handleFailure remet en file tant qu'il reste des tentatives, sinon marque
// l'échec définitif.
func (w *Worker) handleFailure(ctx context.Context, t *models.TryOn, genErr error) error {
	if t.Attempts < w.MaxAttempts {
		t.Status = models.TryOnPending
		t.Error = genErr.Error()
		if err := w.Repo.Update(ctx, t); err != nil {
			return err
		}
		log.Printf("🔁 Prova %s remise en file (tentative %d/%d): %v", t.ID, t.Attempts, w.MaxAttempts, genErr)
		return w.Queue.Enqueue(ctx, t.ID)
	}

	done := time.Now()
	t.Status = models.TryOnFailed
	t.Error = genErr.Error()
	t.CompletedAt = &done
	if err := w.Repo.Update(ctx, t); err != nil {
		return err
	}
	w.publish(ctx, t)
	log.Printf("❌ Prova %s en échec définitif après %d tentatives", t.ID, t.Attempts)
	return nil
}

// Sweep reprend les demandes abandonnées. À lancer périodiquement via
// RunSweeper. Une pending jamais démarrée est simplement remise en file ;
// une processing bloquée repasse par le budget de tentatives.
func (w *Worker) Sweep(ctx context.Context) error {
	stuck, err := w.Repo.Stuck(ctx, w.Staleness)
	if err != nil {
		return err
	}
	for _, t := range stuck {
		if t.Status == models.TryOnPending {
			log.Printf("🧹 Prova %s jamais mise en file, remise en file", t.ID)
			if err := w.Queue.Enqueue(ctx, t.ID); err != nil {
				log.Printf("❌ Remise en file de la prova %s échouée: %v", t.ID, err)
			}
			continue
		}
		log.Printf("🧹 Prova %s bloquée en processing, reprise", t.ID)
		if err := w.handleFailure(ctx, t, ErrProviderUnavailable); err != nil {
			log.Printf("❌ Reprise de la prova %s échouée: %v", t.ID, err)
		}
	}
	return nil
}

// RunSweeper lance le balayage périodique des demandes bloquées.
func (w *Worker) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				log.Printf("❌ Balayage des provas bloquées échoué: %v", err)
			}
		}
	}
}

func (w *Worker) publish(ctx context.Context, t *models.TryOn) {
	if w.Publisher == nil {
		return
	}
	update := StatusUpdate{ID: t.ID, Status: t.Status, ResultImage: t.ResultImage, Error: t.Error}
	if err := w.Publisher.Publish(ctx, update); err != nil {
		log.Printf("⚠️ Publication du statut de prova %s échouée: %v", t.ID, err)
	}
}
