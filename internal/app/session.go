// internal/app/session.go
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/lussekatt/internal/access"
	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	timeFormat    = "2006-01-02 15:04:05"
	sessionKeyTpl = "session:%s" // session:${token}
	tokenPrefix   = "sk-lsktt-"
)

// Session is the persisted identity record behind one login token.
type Session struct {
	Username    string    `json:"username"`
	IsGodAdmin  bool      `json:"is_god_admin"`
	EventAccess []string  `json:"event_access"`
	CreatedTime time.Time `json:"created_dttm_utc"`
}

// Identity builds the explicit access context handed to every policy check.
func (s *Session) Identity() access.Identity {
	return access.ForAdmin(s.Username, s.IsGodAdmin, s.EventAccess)
}

type SessionStore interface {
	Create(ctx context.Context, sess *Session) (string, error)
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	Close() error
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// NewSessionStore picks redis when a URL is configured, an in-process map
// otherwise (single-instance deployments and tests).
func NewSessionStore(config *Config) (SessionStore, error) {
	if config.Sessions.RedisURL == "" {
		logger.Debug.Println("No redis URL configured, using in-memory sessions")
		return NewMemorySessions(), nil
	}

	opt, err := redis.ParseURL(config.Sessions.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSessions{
		redis: client,
		ttl:   time.Duration(config.Sessions.TTLHours) * time.Hour,
	}, nil
}

type RedisSessions struct {
	redis *redis.Client
	ttl   time.Duration
}

func (rs *RedisSessions) Create(ctx context.Context, sess *Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	access, err := json.Marshal(sess.EventAccess)
	if err != nil {
		return "", fmt.Errorf("failed to encode event access: %w", err)
	}

	key := fmt.Sprintf(sessionKeyTpl, token)
	pipe := rs.redis.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"username":         sess.Username,
		"is_god_admin":     sess.IsGodAdmin,
		"event_access":     string(access),
		"created_dttm_utc": sess.CreatedTime.UTC().Format(timeFormat),
	})
	pipe.Expire(ctx, key, rs.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

func (rs *RedisSessions) Get(ctx context.Context, token string) (*Session, error) {
	key := fmt.Sprintf(sessionKeyTpl, token)

	values, err := rs.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	var eventAccess []string
	if raw := values["event_access"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &eventAccess); err != nil {
			logger.Debug.Printf("Failed to decode event access for session: %v", err)
		}
	}

	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])

	return &Session{
		Username:    values["username"],
		IsGodAdmin:  values["is_god_admin"] == "1" || values["is_god_admin"] == "true",
		EventAccess: eventAccess,
		CreatedTime: createdTime,
	}, nil
}

func (rs *RedisSessions) Delete(ctx context.Context, token string) error {
	return rs.redis.Del(ctx, fmt.Sprintf(sessionKeyTpl, token)).Err()
}

func (rs *RedisSessions) Close() error {
	if rs.redis != nil {
		return rs.redis.Close()
	}
	return nil
}

// MemorySessions keeps sessions in a process-local map.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]Session)}
}

func (ms *MemorySessions) Create(_ context.Context, sess *Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[token] = *sess

	return token, nil
}

func (ms *MemorySessions) Get(_ context.Context, token string) (*Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	sess, ok := ms.sessions[token]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (ms *MemorySessions) Delete(_ context.Context, token string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, token)
	return nil
}

func (ms *MemorySessions) Close() error {
	return nil
}
