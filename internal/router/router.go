package router

import (
	"time"

	"notably/config"
	"notably/internal/cache"
	"notably/internal/handler"
	"notably/internal/middleware"
	"notably/internal/repository"
	"notably/internal/service"
	"notably/internal/ws"
	"notably/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, presence *cache.PresenceCache) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupMessageRepo := repository.NewGroupMessageRepository(db)
	readRepo := repository.NewReadReceiptRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	broadcastSvc := service.NewBroadcastService(hub, groupRepo, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo, broadcastSvc)
	readSvc := service.NewReadService(messageRepo, groupMessageRepo, readRepo, groupRepo, broadcastSvc)
	messagingSvc := service.NewMessagingService(messageRepo, groupMessageRepo, friendshipRepo, groupRepo, userRepo, notifSvc, broadcastSvc)
	bellSvc := service.NewBellService(notificationRepo, groupRepo, groupMessageRepo, readSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, presence)
	userHandler := handler.NewUserHandler(userRepo, presence)
	friendHandler := handler.NewFriendHandler(friendshipRepo, userRepo, notifSvc, broadcastSvc)
	messageHandler := handler.NewMessageHandler(messagingSvc, readSvc, notifSvc)
	groupHandler := handler.NewGroupHandler(groupRepo, userRepo, messagingSvc, readSvc, notifSvc, broadcastSvc)
	noteHandler := handler.NewNoteHandler(noteRepo, userRepo, notifSvc, broadcastSvc)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, notifSvc, bellSvc)
	uploadHandler := handler.NewUploadHandler(cloud)
	adminHandler := handler.NewAdminHandler(adminRepo, userRepo, messageRepo, groupMessageRepo, notificationRepo, presence, broadcastSvc)
	wsHandler := handler.NewWSHandler(&cfg.JWT, hub, groupRepo, presence)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMw, authHandler.Logout)
		}

		api.GET("/me", authMw, userHandler.Me)
		api.PATCH("/me", authMw, userHandler.UpdateProfile)
		api.GET("/users/:id", authMw, userHandler.Get)
		api.GET("/search", authMw, userHandler.Search)
		api.POST("/upload", authMw, uploadHandler.Upload)

		friends := api.Group("/friends")
		friends.Use(authMw)
		{
			friends.GET("", friendHandler.List)
			friends.DELETE("/:user_id", friendHandler.Remove)
			friends.POST("/:user_id/request", friendHandler.Request)
			friends.POST("/:user_id/block", friendHandler.Block)
		}
		friendRequests := api.Group("/friend-requests")
		friendRequests.Use(authMw)
		{
			friendRequests.GET("", friendHandler.ListPending)
			friendRequests.POST("/:id/accept", friendHandler.Accept)
			friendRequests.POST("/:id/decline", friendHandler.Decline)
		}

		messages := api.Group("/messages")
		messages.Use(authMw)
		{
			messages.POST("", messageHandler.Send)
			messages.PATCH("/:id", messageHandler.Edit)
			messages.DELETE("/:id", messageHandler.Recall)
			messages.DELETE("/:id/me", messageHandler.DeleteForMe)
			messages.POST("/:id/read", messageHandler.MarkRead)
		}
		conversations := api.Group("/conversations")
		conversations.Use(authMw)
		{
			conversations.GET("/:user_id", messageHandler.Conversation)
			conversations.POST("/:user_id/read", messageHandler.MarkConversationRead)
			conversations.GET("/:user_id/unread-count", messageHandler.UnreadCount)
		}

		groups := api.Group("/groups")
		groups.Use(authMw)
		{
			groups.POST("", groupHandler.Create)
			groups.GET("", groupHandler.ListMine)
			groups.GET("/:id", groupHandler.Get)
			groups.PATCH("/:id", groupHandler.Update)
			groups.POST("/:id/leave", groupHandler.Leave)
			groups.DELETE("/:id/members/:user_id", groupHandler.RemoveMember)
			groups.PATCH("/:id/members/:user_id", groupHandler.UpdateMemberRole)
			groups.POST("/:id/invites", groupHandler.Invite)
			groups.POST("/:id/messages", groupHandler.SendMessage)
			groups.GET("/:id/messages", groupHandler.Messages)
			groups.POST("/:id/read", groupHandler.MarkAllRead)
			groups.GET("/:id/unread-count", groupHandler.UnreadCount)
		}
		groupInvites := api.Group("/group-invites")
		groupInvites.Use(authMw)
		{
			groupInvites.GET("", groupHandler.ListInvites)
			groupInvites.POST("/:invite_id/accept", groupHandler.AcceptInvite)
			groupInvites.POST("/:invite_id/decline", groupHandler.DeclineInvite)
		}
		groupMessages := api.Group("/group-messages")
		groupMessages.Use(authMw)
		{
			groupMessages.PATCH("/:message_id", groupHandler.EditMessage)
			groupMessages.DELETE("/:message_id", groupHandler.RecallMessage)
			groupMessages.DELETE("/:message_id/me", groupHandler.DeleteMessageForMe)
			groupMessages.POST("/:message_id/read", groupHandler.MarkMessageRead)
		}

		notes := api.Group("/notes")
		notes.Use(authMw)
		{
			notes.POST("", noteHandler.Create)
			notes.GET("", noteHandler.List)
			notes.GET("/:id", noteHandler.Get)
			notes.PATCH("/:id", noteHandler.Update)
			notes.DELETE("/:id", noteHandler.Delete)
			notes.POST("/:id/pin", noteHandler.Pin)
			notes.POST("/:id/share", noteHandler.Share)
			notes.DELETE("/:id/share/:user_id", noteHandler.Unshare)
		}

		bell := api.Group("/bell")
		bell.Use(authMw)
		{
			bell.GET("", notificationHandler.Bell)
			bell.GET("/badge", notificationHandler.Badge)
			bell.POST("/dismiss", notificationHandler.Dismiss)
			bell.POST("/read/friend-requests", notificationHandler.MarkFriendRequestsRead)
			bell.POST("/read/group-invites", notificationHandler.MarkGroupInvitesRead)
		}
		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.PATCH("/users/:id/role", adminHandler.UpdateUserRole)
			admin.GET("/notifications", adminHandler.Notifications)
			admin.DELETE("/messages/:id", adminHandler.RecallMessage)
			admin.DELETE("/group-messages/:id", adminHandler.RecallGroupMessage)
			admin.POST("/alert", adminHandler.Alert)
		}
	}

	r.GET("/ws", wsHandler.Serve)

	return r
}
