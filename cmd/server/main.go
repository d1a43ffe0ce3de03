package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/yuchankim/trainmail/internal/config"
	"github.com/yuchankim/trainmail/internal/database"
	"github.com/yuchankim/trainmail/internal/events"
	"github.com/yuchankim/trainmail/internal/handler"
	"github.com/yuchankim/trainmail/internal/middleware"
	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/roster"
	"github.com/yuchankim/trainmail/internal/router"
	"github.com/yuchankim/trainmail/internal/service"
	"github.com/yuchankim/trainmail/internal/window"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and cohort cache disabled")
	}

	// Stores.
	trainees := repository.NewMySQLTraineeRepo(db)
	letters := repository.NewMySQLLetterRepo(db)
	letterQueue := repository.NewMySQLLetterQueue(db)
	traineeQueue := repository.NewMySQLTraineeQueue(db)
	tokens := repository.NewTokenRepo(db)

	// Collaborators.
	table := window.DefaultTable()
	phases := window.NewClockProvider(table)
	rosterClient := roster.NewHTTPClient(cfg.RosterBaseURL, 10*time.Second)
	publisher := events.NewAMQPPublisher()

	// Services.
	mail := service.NewMailService(letters, trainees, letterQueue, rosterClient, phases, publisher)
	accounts := service.NewTraineeService(trainees, traineeQueue, rosterClient, phases, mail, cfg.BcryptCost)
	retry := service.NewRetryService(letterQueue, traineeQueue, mail, accounts, phases)

	// Consume posted-letter events into the audit log.
	go func() {
		if err := events.StartLetterConsumer(); err != nil {
			log.Printf("letter consumer: %v", err)
		}
	}()

	// Periodic retry drains. Letters first, then profiles, so a freshly
	// connected profile's flushed letters are not raced by the same pass.
	go func() {
		interval := time.Duration(cfg.DrainEveryMin) * time.Minute
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if err := retry.DrainLetters(ctx); err != nil {
				log.Printf("drain letters: %v", err)
			}
			if err := retry.DrainProfiles(ctx); err != nil {
				log.Printf("drain profiles: %v", err)
			}
			cancel()
		}
	}()

	// HTTP surface.
	e := echo.New()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, accounts, trainees, tokens))
	router.RegisterCohorts(e, handler.NewCohortHandler(table, phases, rdb))
	router.RegisterAccount(e, cfg.JWTSecret,
		handler.NewProfileHandler(accounts, trainees, phases),
		handler.NewLetterHandler(mail, letters),
		limiter)
	router.RegisterAdmin(e, cfg.JWTSecret, handler.NewAdminHandler(retry, letterQueue, traineeQueue))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
