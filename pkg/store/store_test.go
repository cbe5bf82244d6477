package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/learning"
)

func testModel(t *testing.T) *learning.Model {
	t.Helper()
	vocab := learning.NewVocabulary([]string{"free", "money", "meeting"})
	model, err := learning.NewModel(vocab,
		learning.ClassParams{B: []float64{2.0 / 3, 2.0 / 3, 1.0 / 3}, M: 1},
		learning.ClassParams{B: []float64{1.0 / 3, 1.0 / 3, 2.0 / 3}, M: 1},
		learning.DefaultSmoothing,
	)
	require.NoError(t, err)
	return model
}

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, s Store) {
	req := require.New(t)
	ctx := context.Background()
	model := testModel(t)

	_, err := s.Load(ctx, "absent")
	req.ErrorIs(err, learning.ErrNotFound)
	req.ErrorIs(s.Delete(ctx, "absent"), learning.ErrNotFound)

	req.NoError(s.Save(ctx, "english", model))
	req.NoError(s.Save(ctx, "alt-1.0", model))

	loaded, err := s.Load(ctx, "english")
	req.NoError(err)
	req.True(loaded.Vocabulary().Equal(model.Vocabulary()))
	req.Equal(model.BSpam(), loaded.BSpam())
	req.Equal(model.BHam(), loaded.BHam())
	req.Equal(model.MSpam(), loaded.MSpam())

	docs := []string{"", "free", "money meeting", "free money", "notes for the meeting"}
	for _, doc := range docs {
		before, err := model.ClassifyText(doc)
		req.NoError(err)
		after, err := loaded.ClassifyText(doc)
		req.NoError(err)
		req.Equal(before.IsSpam, after.IsSpam, doc)
		req.InDelta(before.PSpam, after.PSpam, 1e-12, doc)
		req.InDelta(before.PHam, after.PHam, 1e-12, doc)
	}

	names, err := s.List(ctx)
	req.NoError(err)
	req.Equal([]string{"alt-1.0", "english"}, names)

	req.NoError(s.Delete(ctx, "alt-1.0"))
	_, err = s.Load(ctx, "alt-1.0")
	req.ErrorIs(err, learning.ErrNotFound)

	names, err = s.List(ctx)
	req.NoError(err)
	req.Equal([]string{"english"}, names)

	req.Error(s.Save(ctx, "../escape", model))
	_, err = s.Load(ctx, "")
	req.Error(err)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "models"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestFileStoreCorruptModel(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))
	_, err = s.Load(context.Background(), "broken")
	require.ErrorIs(t, err, learning.ErrInvalidModel)

	truncated := `{"vocabulary":["free","money"],"p_spam":0.5,"p_ham":0.5,"b_spam":[0.5],"b_ham":[0.5,0.5],"m_spam":1,"m_ham":1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.json"), []byte(truncated), 0644))
	_, err = s.Load(context.Background(), "short")
	require.ErrorIs(t, err, learning.ErrInvalidModel)
}

func TestBadgerStore(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)

	s := NewBadgerStoreFromDB(db)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}

	ctx := context.Background()
	s, err := NewRedisStore(ctx, config.RedisConfig{
		URL:       "redis://localhost:6379",
		KeyPrefix: "zpam:test:" + time.Now().Format("150405.000000"),
		Database:  1,
	})
	require.NoError(t, err)
	defer s.Close()
	defer func() {
		names, _ := s.List(ctx)
		for _, name := range names {
			_ = s.Delete(ctx, name)
		}
	}()

	exerciseStore(t, s)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.ModelConfig{Backend: "file", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	require.NoError(t, s.Close())

	s, err = New(ctx, config.ModelConfig{Backend: "badger", Badger: config.BadgerConfig{InMemory: true}}, nil)
	require.NoError(t, err)
	require.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, config.ModelConfig{Backend: "s3"}, nil)
	require.Error(t, err)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"default", "english-300", "v1.2_final", "A"} {
		require.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", ".", "..", ".hidden", "a/b", "a b", `a\b`, "naïve"} {
		require.Error(t, ValidateName(name), name)
	}
}

func TestEscapeGlob(t *testing.T) {
	tests := map[string]string{
		"zpam:nb":    "zpam:nb",
		"zpam:*":     `zpam:\*`,
		"a?b":        `a\?b`,
		"set[ab]":    `set\[ab\]`,
		`back\slash`: `back\\slash`,
	}
	for in, want := range tests {
		require.Equal(t, want, escapeGlob(in), in)
	}
}

func TestRedisStoreListIgnoresOtherPrefixes(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}

	ctx := context.Background()
	base := "zpam:test:" + time.Now().Format("150405.000000")
	open := func(prefix string) *RedisStore {
		s, err := NewRedisStore(ctx, config.RedisConfig{
			URL:       "redis://localhost:6379",
			KeyPrefix: prefix,
			Database:  1,
		})
		require.NoError(t, err)
		return s
	}

	wild := open(base + ":*")
	defer wild.Close()
	other := open(base + ":other")
	defer other.Close()

	model := testModel(t)
	require.NoError(t, other.Save(ctx, "foreign", model))
	defer other.Delete(ctx, "foreign")
	require.NoError(t, wild.Save(ctx, "mine", model))
	defer wild.Delete(ctx, "mine")

	names, err := wild.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"mine"}, names)
}

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return client.Ping(ctx).Err() == nil
}
