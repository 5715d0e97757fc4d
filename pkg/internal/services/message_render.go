package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/markdown"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

type Renderer interface {
	Render(content string, filters []markdown.Filter) (string, error)
	Version() int
}

// NeedsRender reports whether a stored render is absent or older than current.
func NeedsRender(rendered *string, version *int, current int) bool {
	return rendered == nil || version == nil || *version < current
}

// RenderGate renders message content on demand and stores the result on the record.
type RenderGate struct {
	Renderer Renderer
	Filters  RealmFilterSource
	Store    MessageStore
}

func (v *RenderGate) NeedsRender(rendered *string, version *int) bool {
	return NeedsRender(rendered, version, v.Renderer.Version())
}

// Render returns nil when the content is unparseable.
func (v *RenderGate) Render(ctx context.Context, content string, domain string) (*string, error) {
	filters, err := v.Filters.RealmFilters(ctx, strings.ToLower(domain))
	if err != nil {
		return nil, fmt.Errorf("unable to load realm filters of %s: %w", domain, err)
	}

	out, err := v.Renderer.Render(content, filters)
	if err != nil {
		if !errors.Is(err, markdown.ErrUnparseable) {
			log.Warn().Err(err).Msg("Renderer failed with an unexpected error, treating content as unparseable.")
		}
		return nil, nil
	}
	return &out, nil
}

// RenderMessage renders content and persists it with the current renderer version.
// When message is nil the record is fetched by id first, a missing record is an error.
// A failed save is logged and ignored, the fresh render is returned regardless.
func (v *RenderGate) RenderMessage(ctx context.Context, message *models.Message, id uint, content string, domain string) (*string, error) {
	rendered, saveErr, err := v.renderMessage(ctx, message, id, content, domain)
	if err != nil {
		return nil, err
	}
	if saveErr != nil {
		log.Warn().Err(saveErr).Uint("message", id).Msg("An error occurred when saving rendered content, it will be rendered again later.")
	}
	return rendered, nil
}

// renderMessage reports a failed save apart from other errors, the render is still returned with it.
func (v *RenderGate) renderMessage(ctx context.Context, message *models.Message, id uint, content string, domain string) (*string, error, error) {
	if message == nil {
		var err error
		if message, err = v.Store.FetchMessageForRender(ctx, id); err != nil {
			return nil, nil, err
		}
	}

	log.Debug().Uint("message", message.ID).Int("version", v.Renderer.Version()).Msg("Rendering message content...")

	rendered, err := v.Render(ctx, content, domain)
	if err != nil {
		return nil, nil, err
	}

	version := v.Renderer.Version()
	message.RenderedContent = rendered
	message.RenderedContentVersion = &version

	return rendered, v.Store.SaveRenderedContent(ctx, message.ID, rendered, version), nil
}

// RerenderStaleMessages renders again up to limit messages whose stored render
// predates the current renderer version, returning the ids it rendered and saved.
// It stops at the first render that could not be saved.
func (v *RenderGate) RerenderStaleMessages(ctx context.Context, limit int) ([]uint, error) {
	messages, err := v.Store.ListStaleMessages(ctx, v.Renderer.Version(), limit)
	if err != nil {
		return nil, err
	}

	var rendered []uint
	for idx := range messages {
		message := &messages[idx]
		if !v.NeedsRender(message.RenderedContent, message.RenderedContentVersion) {
			continue
		}
		_, saveErr, err := v.renderMessage(ctx, message, message.ID, message.Content, message.Sender.Realm.Domain)
		if err != nil {
			return rendered, err
		} else if saveErr != nil {
			return rendered, fmt.Errorf("unable to save rendered content of message %d: %w", message.ID, saveErr)
		}
		rendered = append(rendered, message.ID)
	}

	return rendered, nil
}
