package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/hotel-booking/config"
	repository "github.com/ds124wfegd/hotel-booking/internal/database/postgres"
	"github.com/ds124wfegd/hotel-booking/internal/service"
	"github.com/ds124wfegd/hotel-booking/internal/transport"
	"github.com/ds124wfegd/hotel-booking/internal/worker"

	"github.com/ds124wfegd/hotel-booking/pkg/postgres"
	"github.com/ds124wfegd/hotel-booking/pkg/queue"
	redisPkg "github.com/ds124wfegd/hotel-booking/pkg/redis"
	"github.com/ds124wfegd/hotel-booking/pkg/scheduler"
	"github.com/ds124wfegd/hotel-booking/pkg/vnpay"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	roomLogRepo := repository.NewRoomLogRepository(db)

	// Initialize payment processor client
	processor := vnpay.NewClient(vnpay.Config{
		TmnCode:        cfg.VNPay.TmnCode,
		HashSecret:     cfg.VNPay.HashSecret,
		PayURL:         cfg.VNPay.PayURL,
		APIURL:         cfg.VNPay.APIURL,
		ReturnURL:      cfg.VNPay.ReturnURL,
		Version:        cfg.VNPay.Version,
		CurrencyCode:   cfg.VNPay.CurrencyCode,
		Locale:         cfg.VNPay.Locale,
		OrderType:      cfg.VNPay.OrderType,
		ExpireMinutes:  cfg.VNPay.ExpireMinutes,
		RequestTimeout: cfg.VNPay.RequestTimeout,
	})

	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher

	if cfg.Redis.Host != "" {
		redisClient := redisPkg.NewRedisClient(&cfg.Redis)

		redisQueue, err = queue.NewRedisQueue(redisClient, queue.DefaultRedisQueueConfig())
		if err != nil {
			logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
			redisQueue = nil
		} else {
			logrus.Info("Redis queue initialized")
			// Создаем адаптер для очереди
			taskPublisher = service.NewQueueAdapter(redisQueue)
		}
	}

	// Initialize services
	roomService := service.NewRoomService(roomRepo, bookingRepo, roomLogRepo)
	bookingService := service.NewBookingService(bookingRepo, roomRepo, roomLogRepo, cfg.Booking.MaxStayNights, cfg.Booking.MaxPeople)
	paymentService := service.NewPaymentService(
		paymentRepo,
		bookingRepo,
		processor,
		taskPublisher,
		cfg.VNPay.ExpireMinutes,
		time.Duration(cfg.Worker.StaleAfter)*time.Minute,
		cfg.Worker.BatchSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize reconcile worker
	reconcileWorker := worker.NewPaymentReconcileWorker(
		paymentService,
		time.Duration(cfg.Worker.ReconcileInterval)*time.Minute,
	)
	go reconcileWorker.Start(ctx)
	logrus.Info("Reconcile worker started")

	// Start queue consumer if queue is available
	if redisQueue != nil {
		go func() {
			if err := redisQueue.Subscribe(ctx, func(task *queue.Task) error {
				return reconcileWorker.HandleTask(ctx, task)
			}); err != nil {
				logrus.Errorf("Queue subscriber error: %v", err)
			}
		}()
		logrus.Info("Queue subscriber started")

		// Periodic queue depth logging
		if rq, ok := redisQueue.(*queue.RedisQueue); ok {
			statsScheduler := scheduler.NewScheduler("queue-stats", func(ctx context.Context) error {
				stats, err := rq.GetStats(ctx)
				if err != nil {
					return err
				}
				logrus.WithFields(logrus.Fields{
					"main":       stats.MainQueue,
					"delayed":    stats.DelayedQueue,
					"processing": stats.Processing,
					"dlq":        stats.DLQ,
				}).Info("Queue depth")
				return nil
			}, 5*time.Minute)
			go statsScheduler.Start(ctx)
		}
	}

	// Initialize handlers
	roomHandler := transport.NewRoomHandler(roomService)
	bookingHandler := transport.NewBookingHandler(bookingService)
	paymentHandler := transport.NewPaymentHandler(paymentService)

	// Setup HTTP server
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(roomHandler, bookingHandler, paymentHandler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if redisQueue != nil {
		if err := redisQueue.Close(); err != nil {
			logrus.Errorf("error occured on queue shutting down: %s", err.Error())
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
