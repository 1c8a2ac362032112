package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"rosie/internal/adapters/storage/feed"
	"rosie/internal/platform/logger"
	"rosie/internal/ports/docstore"
)

// Channel es el canal de LISTEN/NOTIFY que dispara el trigger de documents.
const Channel = "documents"

const pathStripes = 64

// DocStore guarda documentos JSONB por path. Los cambios de otros procesos llegan
// por LISTEN/NOTIFY (ver Listen); los locales se publican en el acto.
type DocStore struct {
	db   *sql.DB
	dsn  string
	feed *feed.Feed
	log  logger.Logger

	// Escritura+publicación, lectura inicial+alta y refresh van bajo el lock del path.
	locks [pathStripes]sync.Mutex
}

func NewDocStore(db *sql.DB, dsn string, log logger.Logger) *DocStore {
	if log == nil {
		log = logger.Nop()
	}
	return &DocStore{db: db, dsn: dsn, feed: feed.New(), log: log}
}

func (s *DocStore) Get(ctx context.Context, path string) (docstore.Document, bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, false, err
	}

	var raw []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("db error: %w", err)
	}

	doc, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *DocStore) Set(ctx context.Context, path string, doc docstore.Document, merge bool) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	q := `
		INSERT INTO documents (path, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (path) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()
		RETURNING data
	`
	if merge {
		q = `
		INSERT INTO documents (path, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (path) DO UPDATE
		SET data = documents.data || EXCLUDED.data, updated_at = now()
		RETURNING data
	`
	}

	unlock := s.lockPath(path)
	defer unlock()

	var stored []byte
	if err := s.db.QueryRowContext(ctx, q, path, string(raw)).Scan(&stored); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	full, err := decode(stored)
	if err != nil {
		return err
	}
	s.feed.Publish(docstore.Snapshot{Path: path, Exists: true, Data: full})
	return nil
}

func (s *DocStore) Subscribe(ctx context.Context, path string, onChange func(docstore.Snapshot)) (docstore.Unsubscribe, error) {
	path, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	unlock := s.lockPath(path)
	defer unlock()

	doc, ok, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.feed.Add(path, docstore.Snapshot{Path: path, Exists: ok, Data: doc}, onChange), nil
}

// Listen mantiene una conexión dedicada con LISTEN hasta que ctx se cancela.
// Reconecta con backoff si la conexión se cae.
func (s *DocStore) Listen(ctx context.Context) error {
	if strings.TrimSpace(s.dsn) == "" {
		return errors.New("postgres listen: empty dsn")
	}

	backoff := 500 * time.Millisecond
	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("document listener disconnected", map[string]any{"err": errString(err), "retry_in": backoff.String()})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *DocStore) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	s.log.Info("document listener connected", nil)

	// Lo que cambió mientras no escuchábamos.
	for _, path := range s.feed.Paths() {
		s.refresh(ctx, path)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.refresh(ctx, n.Payload)
	}
}

// refresh relee el documento notificado si alguien lo está mirando.
func (s *DocStore) refresh(ctx context.Context, path string) {
	if !s.feed.Watched(path) {
		return
	}

	unlock := s.lockPath(path)
	defer unlock()

	doc, ok, err := s.Get(ctx, path)
	if err != nil {
		s.log.Warn("document refresh failed", map[string]any{"path": path, "err": err.Error()})
		return
	}
	s.feed.Publish(docstore.Snapshot{Path: path, Exists: ok, Data: doc})
}

func (s *DocStore) Close() {
	s.feed.Close()
}

func (s *DocStore) lockPath(path string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	mu := &s.locks[h.Sum32()%pathStripes]
	mu.Lock()
	return mu.Unlock
}

func decode(raw []byte) (docstore.Document, error) {
	doc := docstore.Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func cleanPath(p string) (string, error) {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" || strings.Contains(p, "//") {
		return "", docstore.ErrInvalidPath
	}
	return p, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
