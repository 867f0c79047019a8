package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/eventspark/eventspark-api/internal/config"
	"github.com/eventspark/eventspark-api/internal/database"
	"github.com/eventspark/eventspark-api/internal/handler"
	"github.com/eventspark/eventspark-api/internal/queue"
	"github.com/eventspark/eventspark-api/internal/repository"
	"github.com/eventspark/eventspark-api/internal/router"
	"github.com/eventspark/eventspark-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	bookings := repository.NewBookingRepo(db)
	tickets := repository.NewTicketRepo(db)

	var pub *queue.Publisher
	if cfg.AMQPURL != "" {
		pub = queue.NewPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartBookingConsumer(cfg.AMQPURL); err != nil {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	} else {
		log.Printf("no broker configured; event publishing disabled")
	}

	reservations := service.NewReservationService(events, bookings, tickets, pub)
	redemption := service.NewTicketService(tickets, pub)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users),
		Events:   handler.NewEventHandler(events),
		Bookings: handler.NewBookingHandler(reservations, bookings),
		Tickets:  handler.NewTicketHandler(redemption, tickets),
	}, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
