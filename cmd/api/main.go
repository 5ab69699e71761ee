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

	"github.com/yourusername/duel-api/internal/config"
	"github.com/yourusername/duel-api/internal/handler"
	"github.com/yourusername/duel-api/internal/matchmaking"
	"github.com/yourusername/duel-api/internal/middleware"
	pgRepo "github.com/yourusername/duel-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/duel-api/internal/repository/redis"
	"github.com/yourusername/duel-api/internal/service"
	"github.com/yourusername/duel-api/internal/service/duelmanager"
	ws "github.com/yourusername/duel-api/internal/websocket"
	"github.com/yourusername/duel-api/pkg/auth"
	"github.com/yourusername/duel-api/pkg/database"
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

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	duelRepo := pgRepo.NewDuelRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Сервис проверки JWT; токены выпускает внешний сервис аккаунтов
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Инициализация WebSocket (PubSubProvider создается здесь) ---
	var pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{} // Провайдер по умолчанию

	// Создаем PubSubProvider только если кластеризация включена
	if cfg.WebSocket.Cluster.Enabled {
		log.Println("Инициализация Redis PubSub для межинстансовой ретрансляции событий...")
		redisPubSubClient, errPubSub := database.NewUniversalRedisClient(cfg.Redis)
		if errPubSub != nil {
			log.Printf("Ошибка при инициализации Redis клиента для PubSub: %v. Ретрансляция будет неактивна.", errPubSub)
		} else {
			redisProvider, errProv := ws.NewRedisPubSub(redisPubSubClient)
			if errProv != nil {
				log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Ретрансляция будет неактивна.", errProv)
				redisPubSubClient.Close()
			} else {
				log.Println("Redis PubSub провайдер успешно инициализирован")
				pubSubProvider = redisProvider
			}
		}
	}

	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	notifier := ws.NewEventNotifier(wsHub, pubSubProvider)
	if cfg.WebSocket.Cluster.Enabled {
		go func() {
			if err := notifier.RunRelay(ctx); err != nil {
				log.Printf("Ошибка ретрансляции событий: %v", err)
			}
		}()
	}

	wsManager := ws.NewManager(wsHub)
	// --- Конец инициализации WebSocket ---

	// Конфигурация жизненного цикла дуэлей
	duelConfig := &duelmanager.Config{
		ClassicQuestionLimit: cfg.Duel.ClassicQuestionLimit,
		FrenzyQuestionLimit:  cfg.Duel.FrenzyQuestionLimit,
		FrenzyDurationSec:    cfg.Duel.FrenzyDurationSec,
		DuelTimeout:          cfg.Duel.DuelTimeout(),
		SweepInterval:        cfg.Duel.SweepInterval(),
	}

	// Инициализируем сервисы
	// Таймеры FRENZY-дуэлей живут в контексте приложения, а не запроса
	duelService := service.NewDuelService(ctx, duelRepo, userRepo, questionRepo, cacheRepo, notifier, duelConfig)
	pairingQueue := matchmaking.NewPairingQueue()
	matchmakingService := service.NewMatchmakingService(pairingQueue, duelService, duelRepo, userRepo)
	userService := service.NewUserService(userRepo)

	// Фоновая зачистка брошенных дуэлей
	sweeper := service.NewExpirySweeper(duelService, duelConfig.SweepInterval)
	go sweeper.Run(ctx)

	// Инициализируем обработчики
	queueHandler := handler.NewQueueHandler(matchmakingService)
	duelHandler := handler.NewDuelHandler(duelService)
	userHandler := handler.NewUserHandler(userService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, duelService, jwtService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(cacheRepo)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		// Production: не доверять прокси-заголовкам
		// Если используете load balancer, замените nil на []string{"IP_БАЛАНСИРОВЩИКА"}
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS (список синхронизирован с CheckOrigin в ws_handler.go)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(rateLimiter.LimitByIP(middleware.DefaultAPIRateLimitConfig()))
	{
		// Лидерборд (публичный маршрут)
		api.GET("/leaderboard", userHandler.GetLeaderboard)

		// Пользователи
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", userHandler.GetMe)

			userWithID := users.Group("/:id")
			userWithID.Use(middleware.ExtractUintParam("id", "userID"))
			{
				userWithID.GET("", userHandler.GetUser)
			}
		}

		// Очередь подбора соперника
		queue := api.Group("/queue")
		queue.Use(authMiddleware.RequireAuth())
		queue.Use(rateLimiter.Limit(middleware.DefaultQueueRateLimitConfig()))
		{
			queue.POST("/join", queueHandler.JoinQueue)
			queue.POST("/leave", queueHandler.LeaveQueue)
			queue.GET("/size", queueHandler.QueueSize)
		}

		// Счетчики WebSocket-подсистемы
		api.GET("/ws/metrics", authMiddleware.RequireAuth(), wsHandler.Metrics)

		// Дуэли
		duels := api.Group("/duels")
		duels.Use(authMiddleware.RequireAuth())
		{
			duels.GET("/active", duelHandler.GetActiveDuel)

			// Группа маршрутов, требующих duelID
			duelWithID := duels.Group("/:id")
			duelWithID.Use(middleware.ExtractUUIDParam("id", "duelID"))
			{
				duelWithID.GET("", duelHandler.GetDuel)
				duelWithID.POST("/answers", duelHandler.SubmitAnswers)
				duelWithID.POST("/leave", duelHandler.LeaveDuel)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

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

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Отправляем сигнал завершения для всех горутин
	cancel()

	// Закрываем PubSubProvider, если он был создан
	if pubSubProvider != nil {
		if err := pubSubProvider.Close(); err != nil {
			log.Printf("Error closing PubSub provider: %v", err)
		}
	}

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
