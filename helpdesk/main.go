package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk/helpdesk/config"
	"helpdesk/helpdesk/controllers"
	"helpdesk/helpdesk/routes"
	"helpdesk/helpdesk/services/fanout"
	"helpdesk/helpdesk/sources/cache"
	"helpdesk/helpdesk/sources/memstore"
	"helpdesk/helpdesk/sources/psql"
	"helpdesk/helpdesk/sources/psql/dao"
	"helpdesk/helpdesk/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		users         controllers.UserStore
		sessions      controllers.SessionStore
		notifications controllers.NotificationStore
		applications  controllers.ApplicationStore
		fanoutStore   fanout.NotificationStore
		directory     fanout.AdminDirectory
	)
	storeMode := "postgres"
	if cfg.DBHost == "" {
		storeMode = "memory"
		// No database configured, run on the in-memory store.
		logging.Logger.Warn("DB_HOST not set, using in-memory store")
		mem := memstore.New()
		users, sessions, notifications, applications = mem, mem, mem, mem
		fanoutStore, directory = mem, mem
	} else {
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			logging.Logger.Errorw("database connection error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		userDAO := dao.NewUserDAO(db.DB)
		users = userDAO
		sessions = dao.NewSessionDAO(db.DB)
		notificationDAO := dao.NewNotificationDAO(db.DB)
		notifications = notificationDAO
		applications = dao.NewApplicationDAO(db.DB)
		fanoutStore, directory = notificationDAO, userDAO
	}

	var badges *cache.RedisCache
	if cfg.RedisAddr != "" {
		badges = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, 0)
		if err := badges.Ping(ctx); err != nil {
			logging.Logger.Warnw("redis unreachable, unread counts uncached", "error", err)
			badges.Close()
			badges = nil
		}
		defer badges.Close()
	}

	engine := fanout.NewEngine(fanoutStore, directory, logging.AppLogger)

	authCtrl := controllers.NewAuthController(users, cfg)
	userCtrl := controllers.NewUserController(users)
	chatCtrl := controllers.NewChatController(sessions, users, engine, logging.AppLogger)
	notifCtrl := controllers.NewNotificationController(notifications, users, badges, logging.AppLogger)
	appCtrl := controllers.NewApplicationController(applications, users, engine, logging.AppLogger)
	healthCtrl := controllers.NewHealthController(storeMode)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/users", routes.UserRoutes(userCtrl, cfg))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/notifications", routes.NotificationRoutes(notifCtrl, cfg))
	r.Mount("/applications", routes.ApplicationRoutes(appCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}
	go func() {
		logging.Logger.Infow("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Errorw("server listen error", "error", err)
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorw("server shutdown error", "error", err)
	}
	logging.Logger.Info("server shutdown complete")
}
