package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizgen-api/internal/config"
	"github.com/yourusername/quizgen-api/internal/handler"
	"github.com/yourusername/quizgen-api/internal/middleware"
	pgRepo "github.com/yourusername/quizgen-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/quizgen-api/internal/repository/redis"
	"github.com/yourusername/quizgen-api/internal/service"
	"github.com/yourusername/quizgen-api/internal/service/attempt"
	ws "github.com/yourusername/quizgen-api/internal/websocket"
	"github.com/yourusername/quizgen-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	quizRepo := pgRepo.NewQuizRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Pub/Sub провайдер для живых результатов
	pubSubProvider, err := ws.NewRedisPubSub(redisClient)
	if err != nil {
		log.Printf("Failed to initialize Redis PubSub: %v", err)
		os.Exit(1)
	}
	hub := ws.NewHub(pubSubProvider)

	// Инициализируем сервисы
	generationService := service.NewGenerationService(&cfg.Generator)
	quizService := service.NewQuizService(quizRepo, cacheRepo, generationService, cfg.Quiz.QuestionCount)
	resultService := service.NewResultService(submissionRepo, pubSubProvider)

	attemptConfig := attempt.DefaultConfig()
	if cfg.Quiz.QuestionTimeSec > 0 {
		attemptConfig.QuestionTimeSec = cfg.Quiz.QuestionTimeSec
	}
	attemptTTL := time.Duration(cfg.Quiz.AttemptTTLMinutes) * time.Minute
	attemptManager := service.NewAttemptManager(quizRepo, resultService, attemptConfig, attemptTTL)

	// Инициализируем обработчики
	quizHandler := handler.NewQuizHandler(quizService, resultService)
	attemptHandler := handler.NewAttemptHandler(attemptManager)
	reportHandler := handler.NewReportHandler(attemptManager, quizService, resultService)
	wsHandler := handler.NewWSHandler(hub)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListQuizzes)

			// Генерация уходит во внешний AI-сервис — строгий лимит
			quizzes.POST("", rateLimiter.Limit(middleware.GenerationRateLimitConfig()), quizHandler.CreateQuiz)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.DELETE("", quizHandler.DeleteQuiz)
				quizWithID.GET("/results", quizHandler.GetQuizResults)
				quizWithID.GET("/results/export", quizHandler.ExportQuizResults)
				quizWithID.POST("/attempts", attemptHandler.StartAttempt)

				submission := quizWithID.Group("/submissions/:sid")
				submission.Use(middleware.ExtractUintParam("sid", "submissionID"))
				{
					submission.GET("/report", reportHandler.SubmissionReport)
				}
			}
		}

		attempts := api.Group("/attempts/:aid")
		attempts.Use(middleware.ExtractUUIDParam("aid", "attemptID"))
		attempts.Use(rateLimiter.Limit(middleware.AttemptRateLimitConfig()))
		{
			attempts.GET("", attemptHandler.GetAttempt)
			attempts.POST("/name", attemptHandler.SetName)
			attempts.POST("/begin", attemptHandler.Begin)
			attempts.POST("/select", attemptHandler.SelectOption)
			attempts.POST("/submit", attemptHandler.Submit)
			attempts.POST("/advance", attemptHandler.Advance)
			attempts.POST("/resubmit", attemptHandler.Resubmit)
			attempts.GET("/report", reportHandler.AttemptReport)
		}
	}

	// WebSocket маршрут живых результатов
	wsGroup := router.Group("/ws/quizzes/:id")
	wsGroup.Use(middleware.ExtractUintParam("id", "quizID"))
	{
		wsGroup.GET("/results", wsHandler.LiveResults)
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем компоненты в обратном порядке зависимостей
	attemptManager.Shutdown()
	hub.Close()
	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
