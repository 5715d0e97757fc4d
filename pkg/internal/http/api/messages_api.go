package api

import (
	"errors"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

func getMessageDict(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("messageId", 0)
	if id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "message id must be a positive integer")
	}
	applyMarkdown := c.QueryBool("apply_markdown", true)

	dict, err := services.Dicts.MessageToDict(c.UserContext(), uint(id), applyMarkdown)
	if errors.Is(err, services.ErrMessageNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	} else if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(dict)
}

func listMessageDict(c *fiber.Ctx) error {
	var data struct {
		IDs           []uint `query:"ids" validate:"required,min=1,max=1000,dive,gt=0"`
		ApplyMarkdown *bool  `query:"apply_markdown"`
	}

	if err := exts.BindQueryAndValidate(c, &data); err != nil {
		return err
	}

	dicts, err := services.Dicts.BuildMessageDicts(c.UserContext(), data.IDs, lo.FromPtrOr(data.ApplyMarkdown, true))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"count": len(dicts),
		"data":  dicts,
	})
}

func invalidateMessageDict(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("messageId", 0)
	if id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "message id must be a positive integer")
	}

	if err := services.Dicts.InvalidateMessageDict(c.UserContext(), uint(id)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
