package store

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

const documentKeyPrefix = "document:"

type RedisDocumentStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logger_i.Logger
}

func GetRedisDocumentStore(ctx context.Context, opts redisStore.Options) (*RedisDocumentStore, error) {
	s, err := redisStore.GetRedisStore(ctx, opts, config.RedisDocumentStore)
	if err != nil {
		return nil, err
	}
	return NewRedisDocumentStore(s), nil
}

func NewRedisDocumentStore(s *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  s,
		ttl:    config.RedisDocumentStoreTTL,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc commonModels.Document) error {
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("documentId", doc.Id)
	if err := s.store.SetJSON(ctx, documentKeyPrefix+doc.Id, doc, s.ttl); err != nil {
		return fmt.Errorf("saving document %s: %w", doc.Id, err)
	}
	log.Debug("Saved document to Redis")
	return nil
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (commonModels.Document, bool, error) {
	var doc commonModels.Document
	found, err := s.store.GetJSON(ctx, documentKeyPrefix+id, &doc)
	if err != nil {
		return commonModels.Document{}, false, fmt.Errorf("reading document %s: %w", id, err)
	}
	return doc, found, nil
}

func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.store.Del(ctx, documentKeyPrefix+id); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	s.logger.Debug("Document deleted from Redis", "documentId", id)
	return nil
}
