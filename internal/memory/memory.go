// Package memory implements memory CRUD: quota checks, field
// validation, linkage validation via the graph package, field-level
// encryption via crypto, and inline image handling via blob.
package memory

import (
	"context"
	"time"

	"memento/internal/apperr"
	"memento/internal/blob"
	"memento/internal/config"
	"memento/internal/crypto"
	"memento/internal/graph"
	"memento/internal/model"
	"memento/internal/platform/idgen"
	"memento/internal/store/workspace"
	"memento/internal/vector"
)

// CreateInput is the validated-at-the-boundary payload for POST /memories.
type CreateInput struct {
	Content   string
	Type      model.MemoryType
	Tags      []string
	ExpiresAt *time.Time
	Linkages  []model.Linkage
	Images    []ImageUpload
}

// ImageUpload is one inline image attachment accepted at create time.
type ImageUpload struct {
	Filename string
	MimeType string
	Data     []byte
}

// Service is the per-workspace memory CRUD service.
type Service struct {
	store     *workspace.Store
	blob      *blob.Store
	vectorIdx vector.Backend
	key       []byte
	plan      config.Plan
	workspace string
}

func NewService(store *workspace.Store, blobStore *blob.Store, vectorIdx vector.Backend, key []byte, plan config.Plan, workspaceID string) *Service {
	if vectorIdx == nil {
		vectorIdx = vector.Noop{}
	}
	return &Service{store: store, blob: blobStore, vectorIdx: vectorIdx, key: key, plan: plan, workspace: workspaceID}
}

// Create validates and persists a new memory.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Memory, error) {
	if in.Content == "" {
		return nil, apperr.NewValidation("content must not be empty")
	}
	if !model.ValidMemoryTypes[in.Type] {
		return nil, apperr.NewValidation("invalid memory type: " + string(in.Type))
	}
	if len(in.Images) > blob.MaxImagesPerMemory {
		return nil, apperr.NewValidation("at most 5 inline images are accepted")
	}
	for _, img := range in.Images {
		if len(img.Data) > blob.MaxImageSize {
			return nil, apperr.NewValidation("image " + img.Filename + " exceeds the 10 MiB limit")
		}
		if !blob.AllowedMimeTypes[img.MimeType] {
			return nil, apperr.NewValidation("unsupported image type: " + img.MimeType)
		}
	}

	if !s.plan.Unlimited(s.plan.MaxMemories) {
		count, err := s.store.CountActiveMemories(ctx)
		if err != nil {
			return nil, err
		}
		if count >= s.plan.MaxMemories {
			return nil, apperr.NewQuotaExceeded("memory", s.plan.MaxMemories, count)
		}
	}

	plaintext := in.Content
	encrypted, err := crypto.EncryptOptional(in.Content, s.key)
	if err != nil {
		return nil, err
	}

	var images []model.ImageMeta
	m := model.Memory{
		ID:        idgen.New("mem"),
		Content:   encrypted,
		Type:      in.Type,
		Tags:      model.NormalizeTags(in.Tags),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: in.ExpiresAt,
		Relevance: 1,
		Linkages:  graph.ValidateLinkages(in.Linkages),
	}

	for _, img := range in.Images {
		if err := s.blob.Put(s.workspace, m.ID, img.Filename, img.Data); err != nil {
			return nil, err
		}
		images = append(images, model.ImageMeta{Filename: img.Filename, MimeType: img.MimeType, Size: len(img.Data)})
	}
	m.Images = images

	if err := s.store.InsertMemory(ctx, m); err != nil {
		return nil, err
	}

	// Fire-and-forget embedding: durability never gates the create response.
	go func(id, content string) {
		_ = s.vectorIdx.Index(context.Background(), id, content)
	}(m.ID, plaintext)

	return &m, nil
}

// Get fetches and decrypts a memory by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Memory, error) {
	m, err := s.store.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decrypt(m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns filtered, decrypted memories.
func (s *Service) List(ctx context.Context, filter workspace.MemoryFilter) ([]model.Memory, error) {
	memories, err := s.store.ListMemories(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range memories {
		if err := s.decrypt(&memories[i]); err != nil {
			return nil, err
		}
	}
	return memories, nil
}

// UpdateInput carries the partial fields PUT /memories/:id accepts; nil
// means "leave unchanged".
type UpdateInput struct {
	Content   *string
	Type      *model.MemoryType
	Tags      []string
	ExpiresAt *time.Time
	Linkages  []model.Linkage
}

// Update applies a partial update, revalidating linkages and re-encrypting
// content as appropriate.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Memory, error) {
	m, err := s.store.GetMemory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Content != nil {
		if *in.Content == "" {
			return nil, apperr.NewValidation("content must not be empty")
		}
		encrypted, err := crypto.EncryptOptional(*in.Content, s.key)
		if err != nil {
			return nil, err
		}
		m.Content = encrypted
	}
	if in.Type != nil {
		if !model.ValidMemoryTypes[*in.Type] {
			return nil, apperr.NewValidation("invalid memory type: " + string(*in.Type))
		}
		m.Type = *in.Type
	}
	if in.Tags != nil {
		m.Tags = model.NormalizeTags(in.Tags)
	}
	if in.ExpiresAt != nil {
		m.ExpiresAt = in.ExpiresAt
	}
	if in.Linkages != nil {
		m.Linkages = graph.ValidateLinkages(in.Linkages)
	}

	if err := s.store.UpdateMemory(ctx, *m); err != nil {
		return nil, err
	}
	if err := s.decrypt(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a memory: access-log rows first, then the row itself,
// then fire-and-forget the image blobs. The memory's vector-index entry is
// not removed: vector.Backend has no eviction operation.
func (s *Service) Delete(ctx context.Context, id string) error {
	m, err := s.store.GetMemory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAccessLogForMemory(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteMemory(ctx, id); err != nil {
		return err
	}
	if len(m.Images) > 0 {
		go func(workspaceID, memoryID string) {
			_ = s.blob.DeleteMemory(workspaceID, memoryID)
		}(s.workspace, id)
	}
	return nil
}

// TrackAccess bumps access_count/last_accessed_at and writes one
// access-log row, fire-and-forget.
func (s *Service) TrackAccess(memoryID, query string) {
	go func() {
		ctx := context.Background()
		now := time.Now().UTC()
		_ = s.store.TouchAccess(ctx, memoryID, now)
		_ = s.store.InsertAccessLog(ctx, memoryID, query, now)
	}()
}

func (s *Service) decrypt(m *model.Memory) error {
	dec, err := crypto.DecryptOptional(m.Content, s.key)
	if err != nil {
		return err
	}
	m.Content = dec
	return nil
}
