package routes

import (
	"net/http"
	"strconv"

	"torchtally/handlers"
	"torchtally/middleware"
	"torchtally/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins for development
	},
}

type Handlers struct {
	Auth        *handlers.AuthHandler
	Season      *handlers.SeasonHandler
	Castaway    *handlers.CastawayHandler
	Episode     *handlers.EpisodeHandler
	Rule        *handlers.RuleHandler
	Roster      *handlers.RosterHandler
	Prediction  *handlers.PredictionHandler
	Leaderboard *handlers.LeaderboardHandler
	Suggestion  *handlers.SuggestionHandler
}

func SetupRoutes(
	router *gin.Engine,
	h *Handlers,
	hub *services.Hub,
	seasonService *services.SeasonService,
	jwtSecret string,
	log *zap.Logger,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/profile", h.Auth.GetProfile)
			protected.GET("/auth/players", h.Auth.ListPlayers)

			seasons := protected.Group("/seasons")
			{
				seasons.GET("", h.Season.ListSeasons)
				seasons.GET("/:seasonID", h.Season.GetSeason)

				// Standings
				seasons.GET("/:seasonID/leaderboard", h.Leaderboard.Leaderboard)
				seasons.GET("/:seasonID/castaway-rankings", h.Leaderboard.CastawayRankings)
				seasons.GET("/:seasonID/recap/:episodeNumber", h.Leaderboard.WeeklyRecap)

				// Reads
				seasons.GET("/:seasonID/castaways", h.Castaway.ListCastaways)
				seasons.GET("/:seasonID/castaways/:castawayID", h.Castaway.GetCastaway)
				seasons.GET("/:seasonID/episodes", h.Episode.ListEpisodes)
				seasons.GET("/:seasonID/episodes/:episodeID", h.Episode.GetEpisode)
				seasons.GET("/:seasonID/rules", h.Rule.ListRules)
				seasons.GET("/:seasonID/rosters", h.Roster.ListRosters)
				seasons.GET("/:seasonID/rosters/player/:playerID", h.Roster.GetPlayerRoster)
				seasons.GET("/:seasonID/predictions", h.Prediction.ListPredictions)
				seasons.GET("/:seasonID/predictions/mine", h.Prediction.MyPredictions)

				// Any player can make predictions during setup/drafting
				seasons.POST("/:seasonID/predictions", h.Prediction.CreatePrediction)

				// Commissioner-only writes
				commish := seasons.Group("")
				commish.Use(middleware.RequireCommissioner())
				{
					commish.POST("", h.Season.CreateSeason)
					commish.PATCH("/:seasonID", h.Season.UpdateSeason)
					commish.PATCH("/:seasonID/status", h.Season.UpdateStatus)
					commish.DELETE("/:seasonID", h.Season.DeleteSeason)

					commish.POST("/:seasonID/castaways", h.Castaway.CreateCastaway)
					commish.POST("/:seasonID/castaways/bulk", h.Castaway.BulkCreateCastaways)
					commish.PATCH("/:seasonID/castaways/:castawayID", h.Castaway.UpdateCastaway)
					commish.DELETE("/:seasonID/castaways/:castawayID", h.Castaway.DeleteCastaway)

					commish.POST("/:seasonID/episodes", h.Episode.CreateEpisode)
					commish.PATCH("/:seasonID/episodes/:episodeID", h.Episode.UpdateEpisode)
					commish.DELETE("/:seasonID/episodes/:episodeID", h.Episode.DeleteEpisode)
					commish.GET("/:seasonID/episodes/:episodeID/template", h.Episode.GetScoringTemplate)
					commish.POST("/:seasonID/episodes/:episodeID/score", h.Episode.SubmitScores)
					commish.POST("/:seasonID/episodes/:episodeID/suggestions", h.Suggestion.GenerateSuggestions)

					commish.POST("/:seasonID/rules", h.Rule.CreateRule)
					commish.PATCH("/:seasonID/rules/:ruleID", h.Rule.UpdateRule)
					commish.DELETE("/:seasonID/rules/:ruleID", h.Rule.DeleteRule)
					commish.POST("/:seasonID/rules/rescore-season", h.Rule.RescoreSeason)

					commish.POST("/:seasonID/rosters/draft", h.Roster.DraftPick)
					commish.POST("/:seasonID/rosters/free-agent", h.Roster.FreeAgentPickup)
					commish.PATCH("/:seasonID/rosters/:rosterID", h.Roster.ToggleEntry)

					commish.PATCH("/:seasonID/predictions/:predictionID", h.Prediction.ResolvePrediction)
				}
			}
		}
	}

	// WebSocket endpoint for live standings updates
	router.GET("/ws/seasons/:seasonID", func(c *gin.Context) {
		seasonID, err := strconv.ParseUint(c.Param("seasonID"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid season ID"})
			return
		}

		// Season must exist before we hold a socket open for it
		if _, err := seasonService.GetSeason(uint(seasonID)); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed",
				zap.Uint64("season_id", seasonID), zap.Error(err))
			return
		}

		hub.RegisterClient(conn, uint(seasonID))
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
