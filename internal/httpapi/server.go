// Package httpapi wires the context composer and every CRUD surface onto a
// chi router: one small handler struct per resource, constructed fresh per
// request from the workspace handle attached by the auth middleware.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"memento/internal/auth"
	"memento/internal/blob"
	"memento/internal/config"
	"memento/internal/consolidate"
	"memento/internal/contextapi"
	"memento/internal/crypto"
	"memento/internal/decay"
	"memento/internal/distill"
	"memento/internal/graph"
	"memento/internal/httpapi/middleware"
	"memento/internal/identity"
	"memento/internal/item"
	"memento/internal/llm"
	"memento/internal/memory"
	"memento/internal/model"
	"memento/internal/skiplist"
	"memento/internal/store/control"
	"memento/internal/vector"
	"memento/internal/workspacemgr"
)

// Server holds the process-wide dependencies every request handler draws
// its per-workspace services from.
type Server struct {
	control  *control.Store
	wsmgr    *workspacemgr.Manager
	resolver *auth.Resolver
	blob     *blob.Store
	vectorIdx vector.Backend
	llmClient llm.Client
	logger   *zap.Logger
}

func NewServer(controlStore *control.Store, wsmgr *workspacemgr.Manager, resolver *auth.Resolver, blobStore *blob.Store, vectorIdx vector.Backend, llmClient llm.Client, logger *zap.Logger) *Server {
	if vectorIdx == nil {
		vectorIdx = vector.Noop{}
	}
	if llmClient == nil {
		llmClient = llm.Noop{}
	}
	return &Server{control: controlStore, wsmgr: wsmgr, resolver: resolver, blob: blobStore, vectorIdx: vectorIdx, llmClient: llmClient, logger: logger}
}

// bundle is the set of per-workspace services one request needs, built
// fresh from the handle the auth middleware attached to the request
// context. Cheap: every field is a thin wrapper over the shared *workspace.Store.
type bundle struct {
	handle      *workspacemgr.Handle
	user        *model.User
	plan        config.Plan
	memories    *memory.Service
	items       *item.Service
	skip        *skiplist.Service
	ident       *identity.Service
	graph       *graph.Service
	consolidate *consolidate.Service
	distill     *distill.Service
	decay       *decay.Service
	ctxSvc      *contextapi.Service
}

func (s *Server) bundleFor(r *http.Request) (*bundle, error) {
	handle, ok := middleware.HandleFromContext(r.Context())
	if !ok {
		return nil, errNoHandle
	}
	user, _ := middleware.UserFromContext(r.Context())
	plan := config.PlanByName(user.Plan)

	memSvc := memory.NewService(handle.Store, s.blob, s.vectorIdx, handle.Key, plan, handle.Workspace.ID)
	skipSvc := skiplist.NewService(handle.Store, handle.Key)
	identSvc := identity.NewService(handle.Store, handle.Key)
	encryptFn := func(plaintext string) (string, error) { return crypto.EncryptOptional(plaintext, handle.Key) }

	b := &bundle{
		handle:      handle,
		user:        user,
		plan:        plan,
		memories:    memSvc,
		items:       item.NewService(handle.Store, handle.Key, plan),
		skip:        skipSvc,
		ident:       identSvc,
		graph:       graph.NewService(handle.Store),
		consolidate: consolidate.NewService(handle.Store, s.llmClient, encryptFn, s.logger),
		distill:     distill.NewService(memSvc, s.llmClient),
		decay:       decay.NewService(handle.Store),
	}
	b.ctxSvc = contextapi.NewService(handle, memSvc, skipSvc, identSvc, s.vectorIdx, s.resolver, user)
	return b, nil
}

// Router builds the full chi handler tree.
func (s *Server) Router() http.Handler { return s.newRouter() }

func (s *Server) newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Memento-Workspace", "X-Memento-Peek-Workspaces"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(s.resolver, s.wsmgr, s.logger))

		r.Get("/health", s.handleHealth)

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", s.createMemory)
			r.Get("/", s.listMemories)
			r.Get("/recall", s.recallMemories)
			r.Post("/ingest", s.ingestMemories)
			r.Get("/{id}", s.getMemory)
			r.Put("/{id}", s.updateMemory)
			r.Delete("/{id}", s.deleteMemory)
			r.Get("/{id}/graph", s.memoryGraph)
			r.Get("/{id}/related", s.memoryRelated)
		})

		r.Route("/working-memory", func(r chi.Router) {
			r.Get("/", s.listWorkingMemory)
			r.Get("/{section}", s.workingMemorySection)
			r.Put("/{section}", s.putWorkingMemorySection)
			r.Route("/items", func(r chi.Router) {
				r.Post("/", s.createItem)
				r.Get("/{id}", s.getItem)
				r.Put("/{id}", s.updateItem)
				r.Delete("/{id}", s.deleteItem)
			})
		})

		r.Route("/skip-list", func(r chi.Router) {
			r.Get("/", s.listSkip)
			r.Post("/", s.addSkip)
			r.Get("/check", s.checkSkip)
			r.Delete("/{id}", s.deleteSkip)
		})

		r.Route("/identity", func(r chi.Router) {
			r.Get("/", s.getIdentity)
			r.Put("/", s.crystallizeIdentity)
			r.Post("/crystallize", s.crystallizeIdentity)
			r.Get("/history", s.identityHistory)
		})

		r.Route("/consolidate", func(r chi.Router) {
			r.Post("/", s.runConsolidation)
			r.Post("/group", s.mergeConsolidation)
		})

		r.Post("/context", s.postContext)
		r.Post("/distill", s.runDistill)

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", s.createWorkspace)
			r.Get("/", s.listWorkspaces)
			r.Delete("/{id}", s.deleteWorkspace)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.listSettings)
			r.Put("/{key}", s.putSetting)
			r.Delete("/{key}", s.deleteSetting)
		})
	})

	return r
}

var errNoHandle = &noHandleErr{}

type noHandleErr struct{}

func (*noHandleErr) Error() string { return "httpapi: no workspace handle on request context" }

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
