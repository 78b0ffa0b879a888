package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/backend"
	"docchat-backend/internal/mappings"
	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/transcripts"
)

// ProgressFunc observes upload checkpoints (0, 50, 100).
type ProgressFunc func(userID, docID string, pct int)

// Deps are the collaborators a Model coordinates.
type Deps struct {
	Store        object.ObjectStore
	Mappings     mappings.Repo
	Transcripts  transcripts.Repo
	Backend      backend.Client
	SignedURLTTL time.Duration
	Progress     ProgressFunc
}

// Model holds every user's document session: the document set, the active
// document, and the in-memory transcript buffer. Remote calls happen outside
// the state lock; chat sends are serialized per document.
type Model struct {
	store       object.ObjectStore
	mappings    mappings.Repo
	transcripts transcripts.Repo
	backend     backend.Client
	ttl         time.Duration
	progress    ProgressFunc

	mu    sync.Mutex
	users map[string]*userState
}

type userState struct {
	docs      []Document
	activeID  string
	buffer    []transcripts.Message
	chatLocks map[string]*sync.Mutex
}

// New constructs a Model. There is deliberately no package-level instance.
func New(deps Deps) *Model {
	ttl := deps.SignedURLTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Model{
		store:       deps.Store,
		mappings:    deps.Mappings,
		transcripts: deps.Transcripts,
		backend:     deps.Backend,
		ttl:         ttl,
		progress:    deps.Progress,
	}
}

func (m *Model) state(userID string) *userState {
	if m.users == nil {
		m.users = make(map[string]*userState)
	}
	st, ok := m.users[userID]
	if !ok {
		st = &userState{chatLocks: make(map[string]*sync.Mutex)}
		m.users[userID] = st
	}
	return st
}

func (m *Model) emit(userID, docID string, pct int) {
	if m.progress != nil {
		m.progress(userID, docID, pct)
	}
}

// List fetches the remote listing, enriches it with mapping and transcript
// metadata, and atomically replaces the user's document set. Hidden entries
// (dot-prefixed or placeholder objects) are filtered out. On remote failure
// the local set is left untouched.
func (m *Model) List(ctx context.Context, userID string) ([]Document, error) {
	infos, err := m.store.List(ctx, userID, object.ListOptions{SortBy: object.SortByCreated})
	if err != nil {
		return nil, remoteErr(OpList, "could not list documents", err)
	}

	byPath := make(map[string]mappings.Mapping)
	maps, err := m.mappings.ListByUser(ctx, userID)
	if err != nil {
		return nil, remoteErr(OpList, "could not load document mappings", err)
	}
	for _, mp := range maps {
		byPath[mp.Path] = mp
	}

	docs := make([]Document, 0, len(infos))
	for _, info := range infos {
		if isHidden(info.Name) {
			continue
		}
		doc := Document{
			ID:         uuid.NewString(),
			Name:       displayName(info.Name),
			Type:       FileTypeFor(info.Name),
			Size:       info.SizeBytes,
			UploadedAt: info.CreatedAt,
			Status:     StatusCompleted,
			Progress:   100,
			Path:       info.Key,
			MimeType:   info.MimeType,
		}
		if mp, ok := byPath[info.Key]; ok {
			doc.ID = mp.ID
			doc.MappingID = mp.ID
			doc.BackendID = mp.BackendID
			if mp.FileName != "" {
				doc.Name = mp.FileName
			}
			has, err := m.transcripts.HasHistory(ctx, userID, mp.ID)
			if err == nil {
				doc.HasHistory = has
			}
			if last, err := m.transcripts.LastMessageTime(ctx, userID, mp.ID); err == nil {
				doc.LastChatAt = last
			}
		}
		docs = append(docs, doc)
	}

	m.mu.Lock()
	st := m.state(userID)
	st.docs = docs
	if st.activeID != "" && findDoc(docs, st.activeID) == nil {
		st.activeID = ""
		st.buffer = nil
	}
	m.mu.Unlock()

	out := make([]Document, len(docs))
	copy(out, docs)
	return out, nil
}

// Upload runs the two-phase upload: optimistic entry, blob save, backend
// registration, mapping insert, then a full re-list. A failed step leaves the
// entry in status error with the blob in place; nothing is retried.
func (m *Model) Upload(ctx context.Context, userID, name string, r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, remoteErr(OpUploadBlob, "could not read upload", err)
	}

	tempID := uuid.NewString()
	doc := Document{
		ID:         tempID,
		Name:       name,
		Type:       FileTypeFor(name),
		Size:       int64(len(data)),
		UploadedAt: time.Now().UTC(),
		Status:     StatusUploading,
		Progress:   0,
	}

	m.mu.Lock()
	st := m.state(userID)
	st.docs = append(st.docs, doc)
	m.mu.Unlock()
	m.emit(userID, tempID, 0)

	storageKey, size, mimeType, err := m.store.Save(ctx, userID, name, bytes.NewReader(data))
	if err != nil {
		m.markError(userID, tempID, "")
		return Document{}, remoteErr(OpUploadBlob, "could not store document", err)
	}
	m.updateDoc(userID, tempID, func(d *Document) {
		d.Path = storageKey
		d.Size = size
		d.MimeType = mimeType
		d.Progress = 50
	})
	m.emit(userID, tempID, 50)

	backendID, err := m.backend.Register(ctx, name, bytes.NewReader(data))
	if err != nil {
		m.markError(userID, tempID, storageKey)
		return Document{}, remoteErr(OpRegister, backendDetail(err, "could not register document"), err)
	}

	now := time.Now().UTC()
	mapping := mappings.Mapping{
		ID:        uuid.NewString(),
		UserID:    userID,
		BackendID: backendID,
		Path:      storageKey,
		FileName:  name,
		FileType:  string(FileTypeFor(name)),
		SizeBytes: size,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.mappings.Create(ctx, mapping); err != nil {
		m.markError(userID, tempID, storageKey)
		return Document{}, remoteErr(OpRegister, "could not record document mapping", err)
	}

	m.updateDoc(userID, tempID, func(d *Document) {
		d.Status = StatusCompleted
		d.Progress = 100
		d.BackendID = backendID
		d.MappingID = mapping.ID
	})
	m.emit(userID, tempID, 100)

	// Reconcile: the listing replaces the temporary entry with the canonical one.
	docs, err := m.List(ctx, userID)
	if err != nil {
		telemetry.Error("session.upload.relist_failed", map[string]any{
			"user_id": userID, "path": storageKey, "err": err.Error(),
		})
		if cur := m.snapshot(userID, tempID); cur != nil {
			return *cur, nil
		}
		return doc, nil
	}
	for _, d := range docs {
		if d.Path == storageKey {
			return d, nil
		}
	}
	return doc, nil
}

// Remove deletes the blob at exactly the document's path, then refreshes the
// set with a fresh listing. Mapping and transcript rows are left alone; see
// PurgeOrphans.
func (m *Model) Remove(ctx context.Context, userID, docID string) error {
	doc := m.snapshot(userID, docID)
	if doc == nil {
		return ErrNotFound
	}
	if doc.Path == "" {
		return ErrNoBlobPath
	}

	if err := m.store.Remove(ctx, doc.Path); err != nil {
		return remoteErr(OpDelete, "could not delete document", err)
	}

	_, err := m.List(ctx, userID)
	return err
}

// Rename changes the display name locally. The next listing reverts it; the
// stored blob and mapping keep their names.
func (m *Model) Rename(userID, docID, newName string) (Document, error) {
	if strings.TrimSpace(newName) == "" {
		return Document{}, errors.New("new name is empty")
	}
	var renamed *Document
	m.updateDoc(userID, docID, func(d *Document) {
		d.Name = newName
		cp := *d
		renamed = &cp
	})
	if renamed == nil {
		return Document{}, ErrNotFound
	}
	return *renamed, nil
}

// SignedURL mints a view (inline) or download (attachment) URL for a document.
func (m *Model) SignedURL(ctx context.Context, userID, docID string, download bool) (string, error) {
	doc := m.snapshot(userID, docID)
	if doc == nil {
		return "", ErrNotFound
	}
	if doc.Path == "" {
		return "", ErrNoBlobPath
	}

	downloadName := ""
	if download {
		downloadName = doc.Name
	}
	url, err := m.store.SignedURL(ctx, doc.Path, m.ttl, downloadName)
	if err != nil {
		if errors.Is(err, object.ErrSignedURLUnsupported) {
			return "", err
		}
		return "", remoteErr(OpSignedURL, "could not create signed url", err)
	}
	return url, nil
}

// OpenBlob streams a document's blob. Fallback for stores without signed URLs.
func (m *Model) OpenBlob(ctx context.Context, userID, docID string) (io.ReadCloser, Document, error) {
	doc := m.snapshot(userID, docID)
	if doc == nil {
		return nil, Document{}, ErrNotFound
	}
	if doc.Path == "" {
		return nil, Document{}, ErrNoBlobPath
	}
	rc, err := m.store.Open(ctx, doc.Path)
	if err != nil {
		return nil, Document{}, remoteErr(OpSignedURL, "could not open document", err)
	}
	return rc, *doc, nil
}

// SelectForChat makes a document the active one and clears the transcript
// buffer; persisted history stays reachable through the history endpoints.
func (m *Model) SelectForChat(userID, docID string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(userID)
	doc := findDoc(st.docs, docID)
	if doc == nil {
		return Document{}, ErrNotFound
	}
	st.activeID = docID
	st.buffer = nil
	return *doc, nil
}

// SendChat persists and buffers the user message, asks the backend, then
// persists and buffers the reply. A backend failure keeps the user message
// and adds no bot message. Sends for the same document are serialized.
func (m *Model) SendChat(ctx context.Context, userID, docID, text string) (userMsg, botMsg transcripts.Message, err error) {
	doc := m.snapshot(userID, docID)
	if doc == nil {
		return transcripts.Message{}, transcripts.Message{}, ErrNotFound
	}
	if doc.BackendID == "" {
		return transcripts.Message{}, transcripts.Message{}, remoteErr(OpChat, "document is not registered for chat", nil)
	}

	lock := m.chatLock(userID, docID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	userMsg = transcripts.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		MappingID: doc.MappingID,
		Text:      text,
		Sender:    transcripts.SenderUser,
		SentAt:    now,
		CreatedAt: now,
	}
	m.appendBuffer(userID, docID, userMsg)
	if doc.MappingID != "" {
		if err := m.transcripts.Insert(ctx, userMsg); err != nil {
			telemetry.Error("session.chat.persist_user_failed", map[string]any{
				"user_id": userID, "mapping_id": doc.MappingID, "err": err.Error(),
			})
		}
	}

	reply, err := m.backend.Chat(ctx, text, doc.BackendID)
	if err != nil {
		return userMsg, transcripts.Message{}, remoteErr(OpChat, backendDetail(err, "chat request failed"), err)
	}

	now = time.Now().UTC()
	botMsg = transcripts.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		MappingID: doc.MappingID,
		Text:      reply,
		Sender:    transcripts.SenderBot,
		SentAt:    now,
		CreatedAt: now,
	}
	m.appendBuffer(userID, docID, botMsg)
	if doc.MappingID != "" {
		if err := m.transcripts.Insert(ctx, botMsg); err != nil {
			telemetry.Error("session.chat.persist_bot_failed", map[string]any{
				"user_id": userID, "mapping_id": doc.MappingID, "err": err.Error(),
			})
		}
	}

	return userMsg, botMsg, nil
}

// Buffer returns the in-memory transcript of the active conversation.
func (m *Model) Buffer(userID string) []transcripts.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(userID)
	out := make([]transcripts.Message, len(st.buffer))
	copy(out, st.buffer)
	return out
}

// History returns a mapping's persisted messages in ascending order.
func (m *Model) History(ctx context.Context, userID, mappingID string) ([]transcripts.Message, error) {
	return m.transcripts.ListByMapping(ctx, userID, mappingID)
}

// HistoryGrouped returns messages for several mappings keyed by mapping ID.
// Mappings without history get an empty slice rather than an error.
func (m *Model) HistoryGrouped(ctx context.Context, userID string, mappingIDs []string) (map[string][]transcripts.Message, error) {
	grouped, err := m.transcripts.ListByMappings(ctx, userID, mappingIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range mappingIDs {
		if _, ok := grouped[id]; !ok {
			grouped[id] = []transcripts.Message{}
		}
	}
	return grouped, nil
}

// HasHistory reports whether a mapping has any persisted messages.
func (m *Model) HasHistory(ctx context.Context, userID, mappingID string) (bool, error) {
	return m.transcripts.HasHistory(ctx, userID, mappingID)
}

// DeleteHistory removes a mapping's persisted messages.
func (m *Model) DeleteHistory(ctx context.Context, userID, mappingID string) error {
	return m.transcripts.DeleteByMapping(ctx, userID, mappingID)
}

// Search filters the current listing by name substring or exact type.
func (m *Model) Search(ctx context.Context, userID, query string) ([]Document, error) {
	docs, err := m.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return docs, nil
	}
	var out []Document
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.EqualFold(string(d.Type), q) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Stats summarizes a user's documents.
type Stats struct {
	Total      int              `json:"total"`
	TotalBytes int64            `json:"totalBytes"`
	ByType     map[FileType]int `json:"byType"`
	ByStatus   map[Status]int   `json:"byStatus"`
}

// Stats computes per-type and per-status counts over a fresh listing.
func (m *Model) Stats(ctx context.Context, userID string) (Stats, error) {
	docs, err := m.List(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		ByType:   make(map[FileType]int),
		ByStatus: make(map[Status]int),
	}
	for _, d := range docs {
		stats.Total++
		stats.TotalBytes += d.Size
		stats.ByType[d.Type]++
		stats.ByStatus[d.Status]++
	}
	return stats, nil
}

// PurgeOrphans deletes mappings (and their transcripts) whose blob no longer
// exists. Returns the number of mappings removed.
func (m *Model) PurgeOrphans(ctx context.Context, userID string) (int, error) {
	infos, err := m.store.List(ctx, userID, object.ListOptions{})
	if err != nil {
		return 0, remoteErr(OpList, "could not list documents", err)
	}
	existing := make(map[string]bool, len(infos))
	for _, info := range infos {
		existing[info.Key] = true
	}

	maps, err := m.mappings.ListByUser(ctx, userID)
	if err != nil {
		return 0, remoteErr(OpList, "could not load document mappings", err)
	}

	purged := 0
	for _, mp := range maps {
		if existing[mp.Path] {
			continue
		}
		if err := m.transcripts.DeleteByMapping(ctx, userID, mp.ID); err != nil {
			return purged, err
		}
		if err := m.mappings.DeleteByID(ctx, userID, mp.ID); err != nil && !errors.Is(err, mappings.ErrNotFound) {
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func (m *Model) chatLock(userID, docID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(userID)
	lock, ok := st.chatLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		st.chatLocks[docID] = lock
	}
	return lock
}

func (m *Model) appendBuffer(userID, docID string, msg transcripts.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(userID)
	if st.activeID == docID {
		st.buffer = append(st.buffer, msg)
	}
}

func (m *Model) snapshot(userID, docID string) *Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(userID)
	if doc := findDoc(st.docs, docID); doc != nil {
		cp := *doc
		return &cp
	}
	return nil
}

func (m *Model) updateDoc(userID, docID string, fn func(*Document)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(userID)
	for i := range st.docs {
		if st.docs[i].ID == docID {
			fn(&st.docs[i])
			return
		}
	}
}

func (m *Model) markError(userID, docID, path string) {
	m.updateDoc(userID, docID, func(d *Document) {
		d.Status = StatusError
		if path != "" {
			d.Path = path
		}
	})
}

func findDoc(docs []Document, docID string) *Document {
	for i := range docs {
		if docs[i].ID == docID {
			return &docs[i]
		}
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.EqualFold(name, "placeholder")
}

func backendDetail(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
