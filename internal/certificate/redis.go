package certificate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is the collection name records live under.
const DefaultKeyPrefix = "Certificates"

// RedisStore keeps one hash per certificate at <prefix>:<code>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(code string) string {
	return s.prefix + ":" + code
}

// Create replaces the hash for rec.Code in one transaction so a colliding
// code never keeps stale verification fields.
func (s *RedisStore) Create(ctx context.Context, rec Record) error {
	key := s.key(rec.Code)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, recordFields(rec))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save certificate %s: %w", rec.Code, err)
	}
	return nil
}

// Get loads the hash for code.
func (s *RedisStore) Get(ctx context.Context, code string) (Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key(code)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("failed to get certificate %s: %w", code, err)
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}
	return parseRecordFields(code, fields)
}

// MarkVerified updates only the verification fields.
func (s *RedisStore) MarkVerified(ctx context.Context, code string, at time.Time) error {
	err := s.client.HSet(ctx, s.key(code),
		"verified", "true",
		"verifiedDate", at.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to mark certificate %s verified: %w", code, err)
	}
	return nil
}

// Ping checks redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func recordFields(rec Record) map[string]any {
	fields := map[string]any{
		"code":          rec.Code,
		"name":          rec.Name,
		"email":         rec.Email,
		"phone":         rec.Phone,
		"college":       rec.College,
		"generatedDate": rec.GeneratedDate.UTC().Format(time.RFC3339Nano),
		"verified":      strconv.FormatBool(rec.Verified),
	}
	if rec.VerifiedDate != nil {
		fields["verifiedDate"] = rec.VerifiedDate.UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func parseRecordFields(code string, fields map[string]string) (Record, error) {
	rec := Record{
		Code:    fields["code"],
		Name:    fields["name"],
		Email:   fields["email"],
		Phone:   fields["phone"],
		College: fields["college"],
	}
	if rec.Code == "" {
		rec.Code = code
	}
	if v := fields["generatedDate"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return Record{}, fmt.Errorf("certificate %s: invalid generatedDate %q: %w", code, v, err)
		}
		rec.GeneratedDate = t
	}
	if v := fields["verified"]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Record{}, fmt.Errorf("certificate %s: invalid verified flag %q: %w", code, v, err)
		}
		rec.Verified = b
	}
	if v := fields["verifiedDate"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return Record{}, fmt.Errorf("certificate %s: invalid verifiedDate %q: %w", code, v, err)
		}
		rec.VerifiedDate = &t
	}
	return rec, nil
}
