// Package webapi exposes an HTTP surface for submitting dispatch
// simulation runs and following their progress: a gin-based REST API
// plus a websocket status stream for a run in flight.
package webapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/devskill-org/microgrid-sim/fleet"
	"github.com/devskill-org/microgrid-sim/sim"
)

// RunStatus is the lifecycle state of a submitted run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRequest is the POST /runs request body: a fleet manifest, a load
// CSV, any additional resource series the fleet's assets reference, and
// the run's Config.
type RunRequest struct {
	FleetManifestPath string            `json:"fleet_manifest_path"`
	LoadCSVPath       string            `json:"load_csv_path"`
	Resources         []ResourceRequest `json:"resources"`
	Config            *sim.Config       `json:"config"`
}

// ResourceRequest names one exogenous resource CSV to register before
// the fleet is loaded.
type ResourceRequest struct {
	Kind string `json:"kind"` // "scalar" or "wave"
	Path string `json:"path"`
	Key  string `json:"key"`
}

// RunSnapshot is the JSON-visible state of a Run, returned by GET
// /runs/:id and pushed over the websocket stream.
type RunSnapshot struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	StepsDone   int        `json:"steps_done"`
	TotalSteps  int        `json:"total_steps"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run tracks one in-flight or completed simulation.
type Run struct {
	mu          sync.RWMutex
	id          string
	status      RunStatus
	err         error
	stepsDone   int
	totalSteps  int
	createdAt   time.Time
	completedAt *time.Time

	model *sim.Model
}

func (r *Run) snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := RunSnapshot{
		ID: r.id, Status: r.status, StepsDone: r.stepsDone,
		TotalSteps: r.totalSteps, CreatedAt: r.createdAt, CompletedAt: r.completedAt,
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}

func (r *Run) setStatus(status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *Run) setTotalSteps(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalSteps = n
}

func (r *Run) setStepsDone(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepsDone = n
}

func (r *Run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = RunStatusFailed
	r.err = err
	now := time.Now()
	r.completedAt = &now
}

func (r *Run) complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = RunStatusCompleted
	now := time.Now()
	r.completedAt = &now
}

func (r *Run) isDone() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status == RunStatusCompleted || r.status == RunStatusFailed
}

// Server wires the REST API and websocket stream around an in-memory
// run registry.
type Server struct {
	Logger *log.Logger

	engine   *gin.Engine
	server   *http.Server
	upgrader websocket.Upgrader
	runs     sync.Map // string -> *Run
	nextID   atomic.Uint64
}

// NewServer builds a Server listening on port, with logger defaulting to
// log.Default() when nil.
func NewServer(port int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	router := gin.Default()
	router.Use(ginCORS())

	router.GET("/health", s.healthHandler)
	router.POST("/runs", s.submitRun)
	router.GET("/runs/:id", s.getRun)
	router.GET("/runs/:id/stream", s.streamRun)

	s.engine = router
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// ginCORS adapts rs/cors into a gin middleware, allowing any origin —
// this API has no session cookies to protect.
func ginCORS() gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

// Start begins serving in the background; ListenAndServe errors other
// than a graceful shutdown are logged, not returned, matching the
// fire-and-forget server lifecycle this simulator's batch CLI uses.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Printf("webapi: server error: %v", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submitRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.LoadCSVPath == "" || req.FleetManifestPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "load_csv_path and fleet_manifest_path are required"})
		return
	}

	id := fmt.Sprintf("run-%d", s.nextID.Add(1))
	run := &Run{id: id, status: RunStatusPending, createdAt: time.Now()}
	s.runs.Store(id, run)

	go s.executeRun(run, req)

	c.JSON(http.StatusAccepted, run.snapshot())
}

func (s *Server) getRun(c *gin.Context) {
	run, ok := s.lookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run.snapshot())
}

func (s *Server) lookupRun(id string) (*Run, bool) {
	v, ok := s.runs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Run), true
}

func (s *Server) executeRun(run *Run, req RunRequest) {
	run.setStatus(RunStatusRunning)

	model, err := sim.NewFromLoadCSV(req.LoadCSVPath, req.Config, s.Logger)
	if err != nil {
		run.fail(fmt.Errorf("failed to load run: %w", err))
		return
	}

	for _, res := range req.Resources {
		if err := model.AddResource(res.Kind, res.Path, res.Key); err != nil {
			run.fail(fmt.Errorf("failed to register resource %q: %w", res.Key, err))
			return
		}
	}

	manifest, err := fleet.Load(req.FleetManifestPath)
	if err != nil {
		run.fail(fmt.Errorf("failed to load fleet manifest: %w", err))
		return
	}
	if err := model.LoadFleet(manifest); err != nil {
		run.fail(fmt.Errorf("failed to build fleet: %w", err))
		return
	}

	run.setTotalSteps(model.Grid.Len())
	model.OnStep = func(i, n int) { run.setStepsDone(i + 1) }

	if err := model.Run(); err != nil {
		run.fail(fmt.Errorf("run failed: %w", err))
		return
	}

	run.mu.Lock()
	run.model = model
	run.mu.Unlock()
	run.complete()

	if model.Config.ResultsDir != "" {
		resultsPath := filepath.Join(model.Config.ResultsDir, run.id)
		if err := model.WriteResults(resultsPath, model.Config.ReportMaxLines); err != nil {
			s.Logger.Printf("webapi: run %s: failed to write results: %v", run.id, err)
		}
	}
}
