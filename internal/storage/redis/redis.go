// Package redis implements storage.Storage on Redis.
//
// Layout:
//
//	student:<id>             hash {name, email}
//	student:email:<email>    string → <id>   (uniqueness index)
//	students                 set of ids
//
// The email index key is claimed with SETNX before any data is written, so
// of two concurrent writers using the same email exactly one wins.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	PrefixStudent = "student"
	KeyStudentSet = "students"

	// maxAttempts bounds the re-reads when a guarded script finds the
	// record changed underneath it.
	maxAttempts = 3
)

var errConflict = errors.New("concurrent modification, giving up")

// StudentKey returns the hash key of a student.
func StudentKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:%s", PrefixStudent, id)
}

// EmailKey returns the index key of an email.
func EmailKey(email string) string {
	return fmt.Sprintf("%s:email:%s", PrefixStudent, email)
}

// Store is the Redis implementation of storage.Storage.
type Store struct {
	client *redis.Client
}

// New parses a redis:// URL, connects and pings.
func New(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Create claims the email, then writes the hash and set membership.
func (s *Store) Create(ctx context.Context, student types.Student) error {
	exists, err := s.client.Exists(ctx, StudentKey(student.ID)).Result()
	if err != nil {
		return fmt.Errorf("redis: check student: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("redis: student %s already exists", student.ID)
	}

	if err := s.claimEmail(ctx, student.Email, student.ID); err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, StudentKey(student.ID), "name", student.Name, "email", student.Email)
		pipe.SAdd(ctx, KeyStudentSet, student.ID.String())
		return nil
	})
	if err != nil {
		return errors.Join(
			fmt.Errorf("redis: create student: %w", err),
			s.releaseEmail(ctx, student.Email, student.ID),
		)
	}
	return nil
}

// Update rewrites the hash. A changed email is claimed first; the hash
// write and the release of the old email happen in one script that only
// runs while the stored email is still the one read here, so a concurrent
// delete cannot be undone.
func (s *Store) Update(ctx context.Context, student types.Student) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, err := s.FindByID(ctx, student.ID)
		if err != nil {
			return err
		}

		emailChanged := current.Email != student.Email
		if emailChanged {
			if err := s.claimEmail(ctx, student.Email, student.ID); err != nil {
				return err
			}
		}

		applied, err := updateScript.Run(ctx, s.client,
			[]string{StudentKey(student.ID), EmailKey(current.Email)},
			student.Name, student.Email, current.Email, student.ID.String(), emailChanged,
		).Bool()
		if err == nil && applied {
			return nil
		}

		// nothing was written, so the new claim must go
		var releaseErr error
		if emailChanged {
			releaseErr = s.releaseEmail(ctx, student.Email, student.ID)
		}
		if err != nil {
			return errors.Join(fmt.Errorf("redis: update student: %w", err), releaseErr)
		}
		if releaseErr != nil {
			return releaseErr
		}
		// the record changed or vanished since it was read; look again
	}
	return fmt.Errorf("redis: update student %s: %w", student.ID, errConflict)
}

// FindByID reads the student hash.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (types.Student, error) {
	fields, err := s.client.HGetAll(ctx, StudentKey(id)).Result()
	if err != nil {
		return types.Student{}, fmt.Errorf("redis: get student: %w", err)
	}
	if len(fields) == 0 {
		return types.Student{}, storage.ErrNotFound
	}
	return types.Student{ID: id, Name: fields["name"], Email: fields["email"]}, nil
}

// FindByEmail resolves the index key, then the hash.
func (s *Store) FindByEmail(ctx context.Context, email string) (types.Student, error) {
	raw, err := s.client.Get(ctx, EmailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("redis: get email index: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return types.Student{}, fmt.Errorf("redis: corrupt email index %q: %w", raw, err)
	}
	return s.FindByID(ctx, id)
}

// FindAll loads every member of the id set in one pipeline.
func (s *Store) FindAll(ctx context.Context) ([]types.Student, error) {
	members, err := s.client.SMembers(ctx, KeyStudentSet).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list students: %w", err)
	}

	students := make([]types.Student, 0, len(members))
	if len(members) == 0 {
		return students, nil
	}

	ids := make([]uuid.UUID, 0, len(members))
	cmds := make([]*redis.MapStringStringCmd, 0, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, member := range members {
			id, err := uuid.Parse(member)
			if err != nil {
				return fmt.Errorf("redis: corrupt id %q in %s: %w", member, KeyStudentSet, err)
			}
			ids = append(ids, id)
			cmds = append(cmds, pipe.HGetAll(ctx, StudentKey(id)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis: load students: %w", err)
	}

	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// deleted between SMEMBERS and HGETALL
			continue
		}
		students = append(students, types.Student{ID: ids[i], Name: fields["name"], Email: fields["email"]})
	}
	return students, nil
}

// DeleteByID removes the hash, the set membership and the email index in
// one script, guarded on the email read beforehand.
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, err := s.FindByID(ctx, id)
		if err != nil {
			return err
		}

		deleted, err := deleteScript.Run(ctx, s.client,
			[]string{StudentKey(id), KeyStudentSet, EmailKey(current.Email)},
			id.String(), current.Email,
		).Bool()
		if err != nil {
			return fmt.Errorf("redis: delete student: %w", err)
		}
		if deleted {
			return nil
		}
	}
	return fmt.Errorf("redis: delete student %s: %w", id, errConflict)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// claimEmail atomically takes the email index key for id.
func (s *Store) claimEmail(ctx context.Context, email string, id uuid.UUID) error {
	ok, err := s.client.SetNX(ctx, EmailKey(email), id.String(), 0).Result()
	if err != nil {
		return fmt.Errorf("redis: claim email: %w", err)
	}
	if ok {
		return nil
	}

	owner, err := s.client.Get(ctx, EmailKey(email)).Result()
	if err == nil && owner == id.String() {
		return nil
	}
	return storage.ErrDuplicateEmail
}

// releaseEmail deletes the index key only while it still points at id.
func (s *Store) releaseEmail(ctx context.Context, email string, id uuid.UUID) error {
	if err := releaseScript.Run(ctx, s.client, []string{EmailKey(email)}, id.String()).Err(); err != nil {
		return fmt.Errorf("redis: release email: %w", err)
	}
	return nil
}

// KEYS: email index. ARGV: id.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// KEYS: student hash, old email index.
// ARGV: name, new email, old email, id, email changed.
var updateScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "email") ~= ARGV[3] then
	return 0
end
redis.call("HSET", KEYS[1], "name", ARGV[1], "email", ARGV[2])
if ARGV[5] == "1" and redis.call("GET", KEYS[2]) == ARGV[4] then
	redis.call("DEL", KEYS[2])
end
return 1
`)

// KEYS: student hash, id set, email index. ARGV: id, email.
var deleteScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "email") ~= ARGV[2] then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if redis.call("GET", KEYS[3]) == ARGV[1] then
	redis.call("DEL", KEYS[3])
end
return 1
`)

var _ storage.Storage = (*Store)(nil)
