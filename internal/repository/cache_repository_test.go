package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/model"
)

// fakeRedis speaks just enough RESP2 for GET, SET (with NX) and DEL
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ln   net.Listener
}

func newFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &fakeRedis{data: map[string]string{}, ln: ln}
	go server.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return server
}

func (f *fakeRedis) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		args, err := readCommand(reader)
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, f.exec(args)); err != nil {
			return
		}
	}
}

func (f *fakeRedis) exec(args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "SET":
		for _, option := range args[3:] {
			if strings.EqualFold(option, "NX") {
				if _, exists := f.data[args[1]]; exists {
					return "$-1\r\n"
				}
			}
		}
		f.data[args[1]] = args[2]
		return "+OK\r\n"
	case "GET":
		value, ok := f.data[args[1]]
		if !ok {
			return "$-1\r\n"
		}
		return fmt.Sprintf("$%d\r\n%s\r\n", len(value), value)
	case "DEL":
		removed := 0
		for _, key := range args[1:] {
			if _, ok := f.data[key]; ok {
				delete(f.data, key)
				removed++
			}
		}
		return fmt.Sprintf(":%d\r\n", removed)
	default:
		return fmt.Sprintf("-ERR unknown command '%s'\r\n", args[0])
	}
}

func (f *fakeRedis) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	return value, ok
}

func (f *fakeRedis) expire(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
}

func readCommand(reader *bufio.Reader) ([]string, error) {
	header, err := reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "*")))
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, count)
	for i := 0; i < count; i++ {
		sizeLine, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(sizeLine, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(reader, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func newTestCacheRepository(t *testing.T) (*CacheRepository, *fakeRedis) {
	t.Helper()
	server := newFakeRedis(t)
	client := redis.NewClient(&redis.Options{
		Addr:            server.ln.Addr().String(),
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheRepository(&config.RedisClient{Client: client}, time.Minute), server
}

func TestCacheRepository_RoundTrip(t *testing.T) {
	repo, server := newTestCacheRepository(t)
	ctx := context.Background()

	document := &model.Document{
		ID:           "0b0f2c4e-7d7f-4a55-a3a4-1c0f9d3e7d11",
		OwnerID:      "owner-1",
		DocumentType: model.DocumentTypeEPS,
		Status:       model.StatusPending,
		Version:      2,
		IsCurrent:    true,
		StoragePath:  "documents/owner-1/eps/1_v2.pdf",
	}
	require.NoError(t, repo.SetDocument(ctx, document))
	_, ok := server.get("document:" + document.ID)
	assert.True(t, ok)

	cached, err := repo.GetDocument(ctx, document.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, document.StoragePath, cached.StoragePath)
	assert.Equal(t, 2, cached.Version)
	assert.True(t, cached.IsCurrent)
}

func TestCacheRepository_MissReturnsNil(t *testing.T) {
	repo, _ := newTestCacheRepository(t)

	cached, err := repo.GetDocument(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestCacheRepository_DeleteLeavesTombstones(t *testing.T) {
	repo, server := newTestCacheRepository(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.SetDocument(ctx, &model.Document{ID: id}))
	}

	require.NoError(t, repo.DeleteDocument(ctx, "a", "b"))
	require.NoError(t, repo.DeleteDocument(ctx))

	for _, id := range []string{"a", "b"} {
		value, _ := server.get("document:" + id)
		assert.Equal(t, cacheTombstone, value)

		cached, err := repo.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, cached)
	}
	cached, err := repo.GetDocument(ctx, "c")
	require.NoError(t, err)
	assert.NotNil(t, cached)
}

func TestCacheRepository_StaleWriteAfterEvictionIsDropped(t *testing.T) {
	repo, server := newTestCacheRepository(t)
	ctx := context.Background()
	stale := &model.Document{ID: "doc-1", Status: model.StatusPending}

	// the copy was read from the database before the delete evicted it
	require.NoError(t, repo.DeleteDocument(ctx, stale.ID))
	require.NoError(t, repo.SetDocument(ctx, stale))

	cached, err := repo.GetDocument(ctx, stale.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	server.expire("document:" + stale.ID)
	require.NoError(t, repo.SetDocument(ctx, stale))
	cached, err = repo.GetDocument(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, model.StatusPending, cached.Status)
}
