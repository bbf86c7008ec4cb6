package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/backup"
	"github.com/mkendall/tandem/internal/handler"
	"github.com/mkendall/tandem/internal/ledger"
	"github.com/mkendall/tandem/internal/middleware"
	"github.com/mkendall/tandem/internal/push"
	"github.com/mkendall/tandem/internal/quest"
	"github.com/mkendall/tandem/internal/reconcile"
	"github.com/mkendall/tandem/internal/remote"
	"github.com/mkendall/tandem/internal/store"
	"github.com/mkendall/tandem/internal/validation"
	ws "github.com/mkendall/tandem/internal/websocket"
)

// PushConfig holds VAPID configuration. Push stays disabled when either key
// is empty.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// Config holds everything the server needs beyond the database handle.
type Config struct {
	Remote      remote.Config
	Backup      backup.Config
	Push        PushConfig
	TokenSecret string
	TokenTTL    time.Duration
	DevMode     bool
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	questH      *handler.QuestHandler
	ledgerH     *handler.LedgerHandler
	syncH       *handler.SyncHandler
	validationH *handler.ValidationHandler
	coupleH     *handler.CoupleHandler
	sessionH    *handler.SessionHandler
	pushH       *handler.PushHandler
	devH        *handler.DevHandler

	tokens        *auth.TokenManager
	rateLimiter   *middleware.RateLimiter
	remoteClient  *remote.Client
	watcher       *quest.Watcher
	backupManager *backup.Manager
	devMode       bool
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	coupleStore := store.NewCoupleStore(db)
	questStore := store.NewQuestStore(db)
	ledgerStore := store.NewLedgerStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	remoteClient := remote.NewClient(cfg.Remote, logger.With("component", "remote"))

	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	ev := &events{
		hub:      hub,
		couples:  coupleStore,
		notifier: notifier,
		logger:   logger.With("component", "events"),
	}

	reconciler := reconcile.New(remoteClient, questStore, logger.With("component", "reconcile"))
	ledgerSync := reconcile.NewLedgerSync(ledgerStore, remoteClient, logger.With("component", "reconcile"))

	ledgerSvc := ledger.NewService(ledgerStore, ev, logger.With("component", "ledger"))
	generator := quest.NewGenerator(quest.DefaultCatalog(), 0)
	manager := quest.NewManager(reconciler, generator, questStore, remoteClient, ledgerSvc, ev,
		logger.With("component", "quest"))
	watcher := quest.NewWatcher(remoteClient, questStore, ev, logger.With("component", "watcher"))

	reporter := validation.NewReporter(remoteClient, questStore, ledgerSync, sessionStore,
		logger.With("component", "validation"))

	backupMgr := backup.NewManager(cfg.Backup, db, logger.With("component", "backup"))
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	return &Server{
		db:            db,
		hub:           hub,
		questH:        handler.NewQuestHandler(manager, coupleStore, watcher, logger.With("component", "quest_handler")),
		ledgerH:       handler.NewLedgerHandler(ledgerSvc, logger.With("component", "ledger_handler")),
		syncH:         handler.NewSyncHandler(questStore, ledgerStore, sessionStore, logger.With("component", "sync_handler")),
		validationH:   handler.NewValidationHandler(reporter, remoteClient, logger.With("component", "validation_handler")),
		coupleH:       handler.NewCoupleHandler(coupleStore, tokens, logger.With("component", "couple_handler")),
		sessionH:      handler.NewSessionHandler(sessionStore, ledgerSvc, logger.With("component", "session_handler")),
		pushH:         pushH,
		devH:          handler.NewDevHandler(questStore, ledgerStore, backupMgr, logger.With("component", "dev_handler")),
		tokens:        tokens,
		rateLimiter:   middleware.NewRateLimiter(),
		remoteClient:  remoteClient,
		watcher:       watcher,
		backupManager: backupMgr,
		devMode:       cfg.DevMode,
		logger:        logger,
	}
}

// Watcher returns the realtime watcher for lifecycle management.
func (s *Server) Watcher() *quest.Watcher {
	return s.watcher
}

// BackupManager returns the snapshot manager for lifecycle management.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// TokenManager returns the token manager, used by dev tooling to mint
// local tokens.
func (s *Server) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else needs a valid bearer token
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Pairing routes work before a couple exists
	mux.Handle("POST /api/pair", s.rateLimited(s.coupleH.Pair))
	mux.HandleFunc("GET /api/couple", s.coupleH.Get)

	// Everything below requires a paired couple
	paired := func(h http.HandlerFunc) http.Handler {
		return middleware.RequirePaired(h)
	}

	mux.Handle("GET /api/quests/today", paired(s.questH.Today))
	mux.Handle("POST /api/quests/{id}/complete", paired(s.questH.Complete))

	mux.Handle("GET /api/points", paired(s.ledgerH.Points))
	mux.Handle("POST /api/points/award", paired(s.ledgerH.Award))

	mux.Handle("POST /api/sessions", paired(s.sessionH.Create))
	mux.Handle("GET /api/sessions", paired(s.sessionH.List))

	// Local state in the remote API's envelope shapes
	mux.Handle("GET /api/sync/daily-quests", paired(s.syncH.DailyQuests))
	mux.Handle("GET /api/sync/love-points", paired(s.syncH.LovePoints))
	mux.Handle("GET /api/sync/quiz-sessions", paired(s.syncH.QuizSessions))

	mux.Handle("GET /api/validation/report", paired(s.validationH.Report))
	mux.Handle("PUT /api/validation/simulate-network-error", paired(s.validationH.SimulateFailure))
	mux.Handle("GET /api/validation/simulate-network-error", paired(s.validationH.SimulateStatus))

	if s.pushH != nil {
		mux.Handle("POST /api/push/subscribe", paired(s.pushH.Subscribe))
		mux.Handle("DELETE /api/push/subscriptions/{id}", paired(s.pushH.Unsubscribe))
		mux.Handle("GET /api/push/vapid-key", paired(s.pushH.VAPIDKey))
	}

	if s.devMode {
		mux.Handle("POST /api/dev/reset-test-data", paired(s.devH.ResetTestData))
		mux.Handle("POST /api/dev/snapshot", paired(s.devH.SnapshotNow))
		mux.Handle("GET /api/dev/snapshot", paired(s.devH.SnapshotStatus))
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	return middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)(h)
}
