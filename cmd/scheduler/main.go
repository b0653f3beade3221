package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/hartawan/penalty-engine/internal/config"
	"github.com/hartawan/penalty-engine/internal/repository"
	"github.com/hartawan/penalty-engine/internal/service"
)

func main() {
	log.Println("Starting penalty scheduler...")

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanRepo := repository.NewLoanRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	penaltyService := service.NewPenaltyService(loanRepo, installmentRepo, redisClient, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily job to re-evaluate outstanding penalties on every active loan
	_, err = c.AddFunc(cfg.Scheduler.CronSpec, func() {
		log.Println("Running penalty re-evaluation job...")
		reevaluatePenalties(loanRepo, penaltyService)
	})
	if err != nil {
		log.Fatalf("Error scheduling penalty re-evaluation job: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}

// reevaluatePenalties recomputes the outstanding late-fee total for every
// active loan. A failure on one loan is logged and does not block the rest
// of the batch.
func reevaluatePenalties(loanRepo repository.LoanRepository, penaltyService *service.PenaltyService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	loanIDs, err := loanRepo.ListActiveLoanIDs(ctx)
	if err != nil {
		log.Printf("Failed to list active loans: %v", err)
		return
	}

	updated := 0
	for _, loanID := range loanIDs {
		breakdown, err := penaltyService.EvaluatePenalty(ctx, loanID)
		if err != nil {
			log.Printf("Failed to re-evaluate loan %s: %v", loanID, err)
			continue
		}
		updated++
		if breakdown.TotalOutstandingFee.IsPositive() {
			log.Printf("Loan %s: %d installments, outstanding penalty %s",
				loanID, len(breakdown.Entries), breakdown.TotalOutstandingFee)
		}
	}

	log.Printf("Penalty re-evaluation finished: %d/%d loans updated", updated, len(loanIDs))
}
