package main

import (
	"fmt"
	"log"
	"os"

	_ "musicbox/docs"
	"musicbox/internal/auth"
	"musicbox/internal/handlers"
	"musicbox/internal/models"
	"musicbox/internal/storage"
	"musicbox/internal/tasks"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Музыкальный стриминг: очередь воспроизведения
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(&models.User{}, &models.Artist{}, &models.Album{}, &models.Song{}, &models.QueueEntry{}, &models.HistoryEntry{}); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.InitRedis()

	tasks.InitScheduler()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.Static("/static", "./static")

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/refresh", handlers.RefreshToken)
	}

	songs := r.Group("/songs")
	{
		songs.GET("", handlers.GetSongsHandler)
		songs.GET("/:id", handlers.GetSongHandler)
	}

	userQueue := r.Group("/user/queue", auth.AuthMiddleware())
	{
		userQueue.GET("", handlers.GetQueueHandler)
		userQueue.POST("/add", handlers.AddToQueueHandler)
		userQueue.DELETE("/remove/:song_id", handlers.RemoveFromQueueHandler)
		userQueue.PUT("/update-current", handlers.UpdateCurrentHandler)
		userQueue.POST("/next", handlers.NextTrackHandler)
		userQueue.POST("/previous", handlers.PreviousTrackHandler)
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
