package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/webrall/newsletter-backend/internal/config"
	"github.com/webrall/newsletter-backend/internal/controller"
	"github.com/webrall/newsletter-backend/internal/db"
	"github.com/webrall/newsletter-backend/internal/handler"
	"github.com/webrall/newsletter-backend/internal/mailer"
	"github.com/webrall/newsletter-backend/internal/queue"
	"github.com/webrall/newsletter-backend/internal/repository"
	"github.com/webrall/newsletter-backend/internal/scheduler"
	"github.com/webrall/newsletter-backend/internal/security"
	"github.com/webrall/newsletter-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Init DB
	db.Init()
	if err := db.Migrate(db.DB); err != nil {
		log.Fatalf("failed to migrate DB: %v", err)
	}

	subscriberRepo := &repository.SubscriberRepository{DB: db.DB}
	postRepo := &repository.PostRepository{DB: db.DB}
	jobRepo := &repository.BroadcastJobRepository{DB: db.DB}
	reportRepo := &repository.ReportRepository{DB: db.DB}

	transcripts := mailer.NewTranscriptStore()
	smtpMailer := mailer.New(cfg.SMTP, transcripts)

	dispatcher := &service.DispatchService{
		SubscriberRepo: subscriberRepo,
		Mailer:         smtpMailer,
		SiteName:       cfg.SiteName,
		SiteURL:        cfg.SiteURL,
	}
	subscriptionService := &service.SubscriptionService{
		SubscriberRepo: subscriberRepo,
		PostRepo:       postRepo,
		ReportRepo:     reportRepo,
		Dispatcher:     dispatcher,
	}

	// With AMQP_URL set, ticks go to RabbitMQ and a separate worker binary
	// consumes them. Without it, everything runs in this process.
	var q queue.Queue
	if url := os.Getenv("AMQP_URL"); url != "" {
		amqpQueue, err := queue.NewAMQPQueue(url)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		log.Println("⚠️ AMQP_URL not set, broadcast ticks run in-process")
		q = queue.NewInMemoryQueue()
	}

	batchScheduler := &scheduler.BatchScheduler{
		PostRepo:       postRepo,
		SubscriberRepo: subscriberRepo,
		JobRepo:        jobRepo,
		ReportRepo:     reportRepo,
		Dispatcher:     dispatcher,
		Queue:          q,
	}
	if _, inMemory := q.(*queue.InMemoryQueue); inMemory {
		if err := q.Subscribe(queue.TopicBroadcastTicks, batchScheduler.HandleTick); err != nil {
			log.Fatalf("failed to subscribe to broadcast ticks: %v", err)
		}
	}

	subscribeHandler := &handler.SubscribeHandler{
		Service: subscriptionService,
		Guard:   security.NewGuard(),
	}
	unsubscribeHandler := &handler.UnsubscribeHandler{
		Service:     subscriptionService,
		RedirectURL: cfg.UnsubRedirectURL,
	}
	postController := &controller.PostController{
		PostRepo:  postRepo,
		Scheduler: batchScheduler,
		Service:   subscriptionService,
	}
	subscriberController := &controller.SubscriberController{
		SubscriberRepo: subscriberRepo,
		ReportRepo:     reportRepo,
		Transcripts:    transcripts,
	}

	r := chi.NewRouter()

	// Public intake
	r.Post("/subscribe", subscribeHandler.Subscribe)
	r.Get("/unsubscribe", unsubscribeHandler.Unsubscribe)

	// Posts and sends
	r.Post("/posts", postController.CreatePost)
	r.Get("/posts/{id}", postController.GetPost)
	r.Post("/posts/{id}/publish", postController.PublishPost)
	r.Post("/posts/{id}/send", postController.SendNow)
	r.Post("/send-test", postController.SendTest)

	// Subscribers and reporting
	r.Get("/subscribers", subscriberController.ListSubscribers)
	r.Get("/subscribers/export", subscriberController.ExportCSV)
	r.Get("/report", subscriberController.GetReport)
	r.Get("/smtp/debug", subscriberController.GetSMTPDebug)

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
