package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Session is one player's game: a GameManager plus the loop driving it.
type Session struct {
	ID          string
	Name        string
	Demo        bool
	StartedAt   time.Time
	GameManager *GameManager

	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the session is sunset or its parent context ends.
func (s *Session) Context() context.Context {
	return s.ctx
}

type SessionManager struct {
	SunsetSessionsChannel chan *Session
	ScoresChannel         chan Score

	HighScoreService *HighScoreService
	Sessions         sync.Map

	// closed is guarded by mu; senders hold the read lock so Close never
	// closes a channel under them
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
}

// NewSessionManager starts the sunset and score workers. highScores may be
// nil, in which case results are only logged.
func NewSessionManager(highScores *HighScoreService) *SessionManager {
	sessionManager := &SessionManager{
		SunsetSessionsChannel: make(chan *Session, sunsetWorkersCount),
		ScoresChannel:         make(chan Score, scoreWorkersCount),
		HighScoreService:      highScores,
	}

	for w := 1; w <= sunsetWorkersCount; w++ {
		sessionManager.workers.Add(1)
		go sessionManager.sunsetSessionsWorker()
	}

	for w := 1; w <= scoreWorkersCount; w++ {
		sessionManager.workers.Add(1)
		go sessionManager.scoresWorker()
	}

	return sessionManager
}

// NewSession validates settings, builds the session and starts its game loop
// under a context derived from ctx. The session is sunset once that context
// ends, whether through Sunset or the parent going away.
func (sessionManagerInst *SessionManager) NewSession(ctx context.Context, settings Settings, demo bool) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("cannot start session: %w", err)
	}
	if sessionManagerInst.isClosed() {
		return nil, fmt.Errorf("cannot start session: %w", ErrSessionManagerClosed)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session := &Session{
		ID:          uuid.NewString(),
		Name:        settings.PlayerName,
		Demo:        demo,
		StartedAt:   time.Now(),
		GameManager: NewGameManager(settings),
		ctx:         sessionCtx,
		cancel:      cancel,
	}

	sessionManagerInst.Sessions.Store(session.ID, session)
	go session.GameManager.StartGameLoop(sessionCtx)
	go sessionManagerInst.watch(session)

	log.Info("Session started", "session", session.ID, "name", session.Name, "demo", demo,
		"grid", fmt.Sprintf("%dx%d", settings.GridWidth, settings.GridHeight))
	return session, nil
}

// RecordResult queues the session's current score for persistence. Demo
// sessions are never recorded.
func (sessionManagerInst *SessionManager) RecordResult(session *Session) {
	if session == nil || session.Demo {
		return
	}

	gm := session.GameManager
	score := Score{
		SessionID:  session.ID,
		PlayerName: session.Name,
		Score:      gm.Score(),
		Elapsed:    gm.Elapsed(),
		GridWidth:  gm.Settings.GridWidth,
		GridHeight: gm.Settings.GridHeight,
	}

	sessionManagerInst.mu.RLock()
	defer sessionManagerInst.mu.RUnlock()
	if sessionManagerInst.closed {
		log.Warn("High score dropped, session manager closed", "name", score.PlayerName, "score", score.Score)
		return
	}
	sessionManagerInst.ScoresChannel <- score
}

// Sunset stops the session's loop; the session is forgotten shortly after.
// Safe to call repeatedly.
func (sessionManagerInst *SessionManager) Sunset(session *Session) {
	if session == nil {
		return
	}
	session.cancel()
}

// watch hands the session to the sunset workers once its context ends.
func (sessionManagerInst *SessionManager) watch(session *Session) {
	<-session.ctx.Done()

	sessionManagerInst.mu.RLock()
	defer sessionManagerInst.mu.RUnlock()
	if sessionManagerInst.closed {
		sessionManagerInst.sunsetSession(session)
		return
	}
	sessionManagerInst.SunsetSessionsChannel <- session
}

func (sessionManagerInst *SessionManager) isClosed() bool {
	sessionManagerInst.mu.RLock()
	defer sessionManagerInst.mu.RUnlock()
	return sessionManagerInst.closed
}

func (sessionManagerInst *SessionManager) Count() int {
	count := 0
	sessionManagerInst.Sessions.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

// Close stops the workers after the queued work is done. Later calls are
// no-ops; sessions still running are forgotten directly when they end.
func (sessionManagerInst *SessionManager) Close() {
	sessionManagerInst.mu.Lock()
	if sessionManagerInst.closed {
		sessionManagerInst.mu.Unlock()
		return
	}
	sessionManagerInst.closed = true
	close(sessionManagerInst.SunsetSessionsChannel)
	close(sessionManagerInst.ScoresChannel)
	sessionManagerInst.mu.Unlock()

	sessionManagerInst.workers.Wait()
}

func (sessionManagerInst *SessionManager) sunsetSessionsWorker() {
	defer sessionManagerInst.workers.Done()
	for {
		session, ok := <-sessionManagerInst.SunsetSessionsChannel
		if !ok {
			return
		}
		if session != nil {
			sessionManagerInst.sunsetSession(session)
		}
	}
}

func (sessionManagerInst *SessionManager) sunsetSession(session *Session) {
	session.cancel()
	sessionManagerInst.Sessions.Delete(session.ID)
	log.Info("Session closed", "session", session.ID, "name", session.Name,
		"score", session.GameManager.Score(), "elapsed", session.GameManager.Elapsed())
}

func (sessionManagerInst *SessionManager) scoresWorker() {
	defer sessionManagerInst.workers.Done()
	for score := range sessionManagerInst.ScoresChannel {
		if sessionManagerInst.HighScoreService == nil {
			log.Info("High score not persisted, no storage", "name", score.PlayerName, "score", score.Score)
			continue
		}
		if err := sessionManagerInst.HighScoreService.SaveHighScore(score); err != nil {
			log.Error("High score persist err", "error", err)
		}
	}
}
