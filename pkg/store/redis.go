package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/learning"
)

// Hash fields of a stored model. The snapshot carries the model; the rest
// lets tools inspect a model without decoding it.
const (
	fieldSnapshot   = "snapshot"
	fieldVocabulary = "vocabulary_size"
	fieldMSpam      = "m_spam"
	fieldMHam       = "m_ham"
	fieldTrainedAt  = "trained_at"
)

// RedisStore keeps each model in a hash at <prefix>:model:<name>
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	opt.DB = cfg.Database
	if cfg.TimeoutMs > 0 {
		timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
		opt.DialTimeout = timeout
		opt.ReadTimeout = timeout
		opt.WriteTimeout = timeout
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: Redis connection failed: %w", learning.ErrIO, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "zpam:nb"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":model:" + name
}

// Save replaces the model hash in a single transaction
func (s *RedisStore) Save(ctx context.Context, name string, model *learning.Model) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := Encode(model)
	if err != nil {
		return err
	}

	key := s.key(name)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldSnapshot, data,
			fieldVocabulary, model.Vocabulary().Len(),
			fieldMSpam, model.MSpam(),
			fieldMHam, model.MHam(),
			fieldTrainedAt, model.TrainedAt().Format(time.RFC3339),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save model %s: %w", learning.ErrIO, name, err)
	}
	return nil
}

// Load reads a model
func (s *RedisStore) Load(ctx context.Context, name string) (*learning.Model, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, s.key(name), fieldSnapshot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load model %s: %w", learning.ErrIO, name, err)
	}
	return Decode(data)
}

// Delete removes a model
func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.key(name)).Result()
	if err != nil {
		return fmt.Errorf("%w: failed to delete model %s: %w", learning.ErrIO, name, err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

// List scans for model keys under the prefix
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	match := escapeGlob(s.key("")) + "*"
	var names []string
	iter := s.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.key("")))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %w", learning.ErrIO, err)
	}
	sort.Strings(names)
	return names, nil
}

var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
