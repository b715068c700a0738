package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/hirebridge/hirebridge/auth"
	"github.com/hirebridge/hirebridge/handlers"
	"github.com/hirebridge/hirebridge/middleware"
	gateway "github.com/hirebridge/hirebridge/websocket"
)

func ChatRoutes(app *fiber.App, jwtSecret string, verifier *auth.Verifier, conversations *handlers.ConversationHandler, ws *gateway.Handler) {
	api := app.Group("/api/v1")

	chats := api.Group("/conversations", middleware.Protected(jwtSecret), middleware.PrincipalRequired(verifier))
	chats.Post("", conversations.CreateConversation)
	chats.Get("", conversations.ListConversations)
	chats.Get("/:conversationId", conversations.GetConversation)
	chats.Post("/:conversationId/messages", conversations.SendMessage)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(ws.ServeWS))
}
