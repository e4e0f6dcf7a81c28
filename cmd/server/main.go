package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance-tracker/internal/config"
	"attendance-tracker/internal/handler"
	"attendance-tracker/internal/i18n"
	"attendance-tracker/internal/mattermost"
	"attendance-tracker/internal/notify"
	"attendance-tracker/internal/scheduler"
	"attendance-tracker/internal/service"
	"attendance-tracker/internal/store"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	i18n.Init(cfg.DefaultLocale)

	cal, err := service.NewCalendar(cfg.Location, cfg.LateAfter)
	if err != nil {
		log.Fatalf("Invalid LATE_AFTER: %v", err)
	}

	// Connect to MongoDB
	db, err := store.NewMongoDB(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())

	// Stores
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	userStore, err := store.NewUserStore(initCtx, db)
	if err != nil {
		log.Fatalf("Failed to init user store: %v", err)
	}
	attendanceStore, err := store.NewAttendanceStore(initCtx, db)
	if err != nil {
		log.Fatalf("Failed to init attendance store: %v", err)
	}
	subscriptionStore, err := store.NewSubscriptionStore(initCtx, db)
	if err != nil {
		log.Fatalf("Failed to init subscription store: %v", err)
	}
	cancelInit()

	// Reminder channels
	var notifiers []notify.Notifier
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		notifiers = append(notifiers, notify.NewWebPush(subscriptionStore, notify.VAPIDConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		}))
	} else {
		log.Println("Web push disabled: VAPID keys not set")
	}
	if cfg.MattermostURL != "" && cfg.MattermostBotToken != "" {
		notifiers = append(notifiers, mattermost.NewClient(cfg.MattermostURL, cfg.MattermostBotToken))
	}

	// Services
	authSvc := service.NewAuthService(userStore, cfg.JWTSecret, cfg.JWTTTL)
	attendanceSvc := service.NewAttendanceService(attendanceStore, cal)
	adminSvc := service.NewAdminService(attendanceStore, userStore, cal)
	notificationSvc := service.NewNotificationService(subscriptionStore, cfg.VAPIDPublicKey)
	reminderSvc := service.NewReminderService(attendanceStore, userStore, cal, notifiers...)

	// Routes
	mux := http.NewServeMux()
	handler.NewAuthHandler(authSvc).RegisterRoutes(mux)
	handler.NewAttendanceHandler(attendanceSvc, authSvc).RegisterRoutes(mux)
	handler.NewAdminHandler(adminSvc, authSvc).RegisterRoutes(mux)
	handler.NewNotificationHandler(notificationSvc, authSvc).RegisterRoutes(mux)

	// Health checks
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Printf("ERROR readiness: %v", err)
			http.Error(w, "mongodb unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Reminders
	var sched *scheduler.Scheduler
	if cfg.RemindersEnabled && len(notifiers) > 0 {
		sched = scheduler.New(cal.Location, 5*time.Minute)
		if err := sched.Add("checkin-reminder", cfg.CheckinReminderCron, reminderSvc.CheckinSweep); err != nil {
			log.Fatalf("Failed to schedule reminders: %v", err)
		}
		if err := sched.Add("checkout-reminder", cfg.CheckoutReminderCron, reminderSvc.CheckoutSweep); err != nil {
			log.Fatalf("Failed to schedule reminders: %v", err)
		}
		sched.Start()
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.LoggingMiddleware(handler.CORSMiddleware(cfg.CORSAllowedOrigins)(handler.LocaleMiddleware(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Attendance service started on :%s (env: %s, tz: %s)", cfg.Port, cfg.Env, cal.Location)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			log.Printf("ERROR stop scheduler: %v", err)
		}
	}
	srv.Shutdown(ctx)
}
