package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"muvbackoffice/internal/admin"
	"muvbackoffice/internal/config"
	"muvbackoffice/internal/db"
	"muvbackoffice/internal/dedup"
	"muvbackoffice/internal/feed"
	internalhttp "muvbackoffice/internal/http"
	"muvbackoffice/internal/models"
	"muvbackoffice/internal/notify"
	"muvbackoffice/internal/services"
	"muvbackoffice/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)
	hub := feed.NewHub()

	orderSvc := &services.OrderService{
		Store:       st,
		Guard:       dedup.NewGuard(cfg.Orders.InflightLimit),
		Feed:        hub,
		DedupWindow: time.Duration(cfg.Orders.DedupWindowMinutes) * time.Minute,
	}

	seeds := make([]models.Admin, 0, len(cfg.Admin.Seeds))
	for _, seed := range cfg.Admin.Seeds {
		seeds = append(seeds, models.Admin{Email: seed.Email, Name: seed.Name})
	}
	directory := admin.NewDirectory(seeds, st)
	sessions := admin.NewSessions(directory, notify.LogNotifier{}, time.Duration(cfg.Admin.SessionTTLHours)*time.Hour)

	h := internalhttp.NewHandler(orderSvc, sessions, directory, hub, cfg.Orders.RecentLimit)
	srv := internalhttp.NewServer(h)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
