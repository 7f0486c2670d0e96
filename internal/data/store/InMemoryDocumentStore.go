package store

import (
	"context"
	"sync"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

type InMemoryDocumentStore struct {
	docMutex *sync.RWMutex
	docMap   map[string]commonModels.Document
	logger   *logger_i.Logger
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docMutex: new(sync.RWMutex),
		docMap:   make(map[string]commonModels.Document),
		logger:   logger_i.NewLogger("InMem DocumentStore"),
	}
}

func (store *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc commonModels.Document) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()
	store.docMap[doc.Id] = doc
	store.logger.Debug("Saved document to store", "documentId", doc.Id)
	return nil
}

func (store *InMemoryDocumentStore) GetDocument(ctx context.Context, id string) (commonModels.Document, bool, error) {
	store.docMutex.RLock()
	defer store.docMutex.RUnlock()
	result, found := store.docMap[id]
	return result, found, nil
}

func (store *InMemoryDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()
	delete(store.docMap, id)
	return nil
}
