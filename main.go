package main

import (
	"torchtally/config"
	"torchtally/handlers"
	"torchtally/logger"
	"torchtally/middleware"
	"torchtally/models"
	"torchtally/routes"
	"torchtally/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewWithDefaults()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.FantasyPlayer{},
		&models.Season{},
		&models.Castaway{},
		&models.Episode{},
		&models.ScoringRule{},
		&models.CastawayEpisodeEvent{},
		&models.FantasyRoster{},
		&models.Prediction{},
	); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient := config.InitRedis(cfg)

	scoringService := services.NewScoringService(db, redisClient, log)
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.CommissionerKey)
	seasonService := services.NewSeasonService(db, scoringService)
	ruleService := services.NewRuleService(db, scoringService)
	castawayService := services.NewCastawayService(db, scoringService)
	episodeService := services.NewEpisodeService(db, scoringService)
	rosterService := services.NewRosterService(db, scoringService)
	predictionService := services.NewPredictionService(db, scoringService)
	suggestionService := services.NewSuggestionService(db, cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel, log)

	hub := services.NewHub(log)
	go hub.Run()

	h := &routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		Season:      handlers.NewSeasonHandler(seasonService),
		Castaway:    handlers.NewCastawayHandler(castawayService),
		Episode:     handlers.NewEpisodeHandler(episodeService, scoringService, hub),
		Rule:        handlers.NewRuleHandler(ruleService, scoringService, hub),
		Roster:      handlers.NewRosterHandler(rosterService),
		Prediction:  handlers.NewPredictionHandler(predictionService),
		Leaderboard: handlers.NewLeaderboardHandler(scoringService),
		Suggestion:  handlers.NewSuggestionHandler(suggestionService),
	}

	router := gin.Default()
	router.Use(middleware.CORS())

	routes.SetupRoutes(router, h, hub, seasonService, cfg.JWTSecret, log)

	log.Info("starting server", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
