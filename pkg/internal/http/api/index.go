package api

import (
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL).Name("API")
	{
		messages := api.Group("/messages").Name("Messages API")
		{
			messages.Get("/", listMessageDict)
			messages.Get("/:messageId", getMessageDict)
			messages.Delete("/:messageId/cache", invalidateMessageDict)
		}

		api.Delete("/recipients/:recipientId/cache", invalidateDisplayRecipient)
		api.Delete("/realm-filters/cache", invalidateRealmFilters)
	}
}
