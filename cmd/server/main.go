// cmd/server/main.go
package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"keratoscan-back/internal/auth"
	"keratoscan-back/internal/config"
	"keratoscan-back/internal/database"
	"keratoscan-back/internal/handlers"
	"keratoscan-back/internal/inference"
	"keratoscan-back/internal/intake"
	"keratoscan-back/internal/middleware"
	"keratoscan-back/internal/models"
	"keratoscan-back/internal/report"
	"keratoscan-back/internal/repository"
	"keratoscan-back/internal/storage"
	"keratoscan-back/pkg/logger"
	"keratoscan-back/pkg/metrics"
)

func main() {
	log := logger.New(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize MinIO client")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	users := repository.NewUserRepository(db)
	patients := repository.NewPatientRepository(db)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	classifier := inference.NewClient(cfg.ModelURL)
	intakeSvc := intake.NewService(patients, minioClient, m, log)
	reports := report.NewGenerator(minioClient, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(m))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	public := r.Group("/api")
	{
		public.POST("/users/login", handlers.Login(users, tokens, m))
		public.POST("/users/logout", handlers.Logout)
	}

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/profile", handlers.GetProfile(users))

		it := protected.Group("/", middleware.RequireRole(models.RoleIT))
		{
			it.GET("/users", handlers.ListUsers(users))
			it.POST("/users", handlers.CreateUser(users))
			it.PUT("/users/:id", handlers.UpdateUser(users))
			it.DELETE("/users/:id", handlers.DeleteUser(users))
			it.DELETE("/patients/:idNumber", handlers.DeletePatient(patients, minioClient, log))
		}

		clinical := protected.Group("/", middleware.RequireRole(models.RoleDoctor, models.RoleTopographer))
		{
			clinical.POST("/analyze", handlers.AnalyzeImage(classifier))
		}

		viewers := protected.Group("/", middleware.RequireRole(models.RoleDoctor, models.RoleIT))
		{
			viewers.GET("/patients", handlers.ListPatients(patients, minioClient, log))
			viewers.GET("/patients/:idNumber", handlers.GetPatient(patients, minioClient, log))
			viewers.GET("/patients/:idNumber/report", handlers.DownloadReport(patients, reports, m))
		}

		protected.POST("/patients", middleware.RequireRole(models.RoleTopographer),
			handlers.IntakePatient(intakeSvc, minioClient, log))
		protected.POST("/patients/:idNumber/report", middleware.RequireRole(models.RoleDoctor),
			handlers.DownloadReport(patients, reports, m))
	}

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
