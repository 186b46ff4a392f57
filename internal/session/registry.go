package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("interview already has a live session")
)

// sessionTTL bounds how long a session record survives a crashed instance.
const sessionTTL = 2 * time.Hour

// Registry tracks live sessions. Orchestrators live in-memory per instance;
// a Redis hash per session makes liveness visible across instances so an
// interview cannot be started twice.
type Registry struct {
	rdb        *redis.Client
	instanceID string
	logger     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Orchestrator // session ID -> orchestrator
	byIv     map[string]string        // interview ID -> session ID
}

func NewRegistry(rdb *redis.Client, logger *zap.Logger) *Registry {
	r := &Registry{
		rdb:        rdb,
		instanceID: uuid.New().String(),
		logger:     logger,
		sessions:   make(map[string]*Orchestrator),
		byIv:       make(map[string]string),
	}
	logger.Info("session registry initialized", zap.String("instanceId", r.instanceID))
	return r
}

// Register claims the interview for a new session and returns the session ID.
// The Redis claim uses SETNX semantics so two instances cannot both win.
func (r *Registry) Register(ctx context.Context, o *Orchestrator) (string, error) {
	claimKey := "session:claim:" + o.Interview.ID
	ok, err := r.rdb.SetNX(ctx, claimKey, r.instanceID, sessionTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to claim interview: %w", err)
	}
	if !ok {
		return "", ErrSessionExists
	}

	sessionID := uuid.New().String()
	sessionKey := "session:" + sessionID
	err = r.rdb.HSet(ctx, sessionKey, map[string]interface{}{
		"interviewId": o.Interview.ID,
		"subjectId":   strconv.FormatUint(uint64(o.SubjectID), 10),
		"instanceId":  r.instanceID,
		"startedAt":   time.Now().UTC().Format(time.RFC3339),
	}).Err()
	if err != nil {
		r.rdb.Del(ctx, claimKey)
		return "", fmt.Errorf("failed to record session: %w", err)
	}
	r.rdb.Expire(ctx, sessionKey, sessionTTL)

	r.mu.Lock()
	r.sessions[sessionID] = o
	r.byIv[o.Interview.ID] = sessionID
	r.mu.Unlock()

	r.logger.Info("session registered",
		zap.String("sessionId", sessionID),
		zap.String("interviewId", o.Interview.ID))
	return sessionID, nil
}

// Get returns the orchestrator for a session on this instance.
func (r *Registry) Get(sessionID string) (*Orchestrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return o, nil
}

// GetByInterview returns the live orchestrator for an interview, if this
// instance hosts one.
func (r *Registry) GetByInterview(interviewID string) (*Orchestrator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.byIv[interviewID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r.sessions[sessionID], nil
}

// Release removes the session record and frees the interview claim. Called
// once the orchestrator reaches a terminal state.
func (r *Registry) Release(ctx context.Context, sessionID string) {
	r.mu.Lock()
	o, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
		delete(r.byIv, o.Interview.ID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.rdb.Del(ctx, "session:"+sessionID, "session:claim:"+o.Interview.ID).Err(); err != nil {
		r.logger.Warn("failed to clear session keys",
			zap.String("sessionId", sessionID), zap.Error(err))
	}
	r.logger.Info("session released",
		zap.String("sessionId", sessionID),
		zap.String("interviewId", o.Interview.ID))
}

// Count returns the number of live sessions on this instance.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown hangs up every live session on this instance.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		if o, err := r.Get(id); err == nil {
			o.HangUp()
			select {
			case <-o.Done():
			case <-ctx.Done():
			}
		}
		r.Release(ctx, id)
	}
}
