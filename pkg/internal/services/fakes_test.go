package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/cache"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/markdown"
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
)

type fakeResolver struct {
	mu         sync.Mutex
	recipients map[uint]DisplayRecipient
	calls      int
}

func (v *fakeResolver) DisplayRecipient(_ context.Context, recipientID uint, _ models.RecipientType, _ uint) (DisplayRecipient, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.calls++
	recipient, ok := v.recipients[recipientID]
	if !ok {
		return DisplayRecipient{}, fmt.Errorf("recipient %d not found", recipientID)
	}
	// Hand out a copy, callers must not be able to alter the source.
	if recipient.Participants != nil {
		recipient.Participants = append([]DisplayParticipant(nil), recipient.Participants...)
	}
	return recipient, nil
}

type fakeFilters struct {
	mu      sync.Mutex
	filters map[string][]markdown.Filter
	domains []string
}

func (v *fakeFilters) RealmFilters(_ context.Context, domain string) ([]markdown.Filter, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.domains = append(v.domains, domain)
	return v.filters[domain], nil
}

type fakeRenderer struct {
	mu       sync.Mutex
	version  int
	err      error
	contents []string
}

func (v *fakeRenderer) Render(content string, _ []markdown.Filter) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.contents = append(v.contents, content)
	if v.err != nil {
		return "", v.err
	}
	return "<p>" + content + "</p>", nil
}

func (v *fakeRenderer) Version() int {
	return v.version
}

type savedRender struct {
	id       uint
	rendered *string
	version  int
}

type fakeStore struct {
	mu sync.Mutex

	messages map[uint]*models.Message
	saveErr  error

	fetches       int
	renderFetches int
	saved         []savedRender
}

func newFakeStore(messages ...*models.Message) *fakeStore {
	store := &fakeStore{messages: make(map[uint]*models.Message)}
	for _, message := range messages {
		store.messages[message.ID] = message
	}
	return store
}

func (v *fakeStore) FetchMessage(_ context.Context, id uint) (*models.Message, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.fetches++
	message, ok := v.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}
	clone := *message
	return &clone, nil
}

func (v *fakeStore) FetchMessageForRender(_ context.Context, id uint) (*models.Message, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.renderFetches++
	message, ok := v.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMessageNotFound, id)
	}
	clone := *message
	return &clone, nil
}

func (v *fakeStore) SaveRenderedContent(_ context.Context, id uint, rendered *string, version int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.saveErr != nil {
		return v.saveErr
	}
	v.saved = append(v.saved, savedRender{id: id, rendered: rendered, version: version})
	if message, ok := v.messages[id]; ok {
		message.RenderedContent = rendered
		message.RenderedContentVersion = &version
	}
	return nil
}

func (v *fakeStore) ListMessageRows(_ context.Context, ids []uint) ([]models.MessageRow, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var rows []models.MessageRow
	for _, id := range ids {
		message, ok := v.messages[id]
		if !ok {
			continue
		}
		rows = append(rows, models.MessageRow{
			ID:                     message.ID,
			Subject:                message.Subject,
			Content:                message.Content,
			RenderedContent:        message.RenderedContent,
			RenderedContentVersion: message.RenderedContentVersion,
			PubDate:                message.PubDate,
			LastEditTime:           message.LastEditTime,
			EditHistory:            message.EditHistory,
			SenderID:               message.Sender.ID,
			SenderEmail:            message.Sender.Email,
			SenderFullName:         message.Sender.FullName,
			SenderShortName:        message.Sender.ShortName,
			SenderAvatarSource:     message.Sender.AvatarSource,
			SenderIsMirrorDummy:    message.Sender.IsMirrorDummy,
			SenderRealmDomain:      message.Sender.Realm.Domain,
			SendingClientName:      message.SendingClient.Name,
			RecipientID:            message.Recipient.ID,
			RecipientType:          message.Recipient.Type,
			RecipientTypeID:        message.Recipient.TypeID,
		})
	}
	return rows, nil
}

func (v *fakeStore) ListStaleMessages(_ context.Context, version int, limit int) ([]models.Message, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var out []models.Message
	for id := uint(1); len(out) < limit && id <= uint(len(v.messages)); id++ {
		message, ok := v.messages[id]
		if !ok {
			continue
		}
		if message.RenderedContentVersion == nil || *message.RenderedContentVersion < version {
			out = append(out, *message)
		}
	}
	return out, nil
}

type fakePayloadCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
	sets   int
}

func newFakePayloadCache() *fakePayloadCache {
	return &fakePayloadCache{
		items: make(map[string][]byte),
		ttls:  make(map[string]time.Duration),
	}
}

func (v *fakePayloadCache) Get(_ context.Context, key string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.getErr != nil {
		return nil, v.getErr
	}
	payload, ok := v.items[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return payload, nil
}

func (v *fakePayloadCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.sets++
	if v.setErr != nil {
		return v.setErr
	}
	v.items[key] = value
	v.ttls[key] = ttl
	return nil
}

func (v *fakePayloadCache) Delete(_ context.Context, key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.items, key)
	return nil
}

var errStorageDown = errors.New("storage is down")
