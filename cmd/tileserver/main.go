package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorustyt/dynanavmesh/config"
	"github.com/gorustyt/dynanavmesh/ingest"
	"github.com/gorustyt/dynanavmesh/logging"
	"github.com/gorustyt/dynanavmesh/obstacle"
	"github.com/gorustyt/dynanavmesh/registry"
	"github.com/gorustyt/dynanavmesh/voxel"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		modelDB    = flag.String("model_db", "./models.sqlite", "path to the sqlite model store")
		configPath = flag.String("config", "", "path to a build config yaml (defaults to the map's normalized defaults)")
		logPath    = flag.String("log", "", "rotating log file path (stderr only if empty)")
	)
	flag.Parse()

	logger, err := logging.New(logging.Options{FilePath: *logPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config: " + err.Error())
	}

	store, err := obstacle.OpenSQLiteModelStore(*modelDB)
	if err != nil {
		logger.Fatal("open model store: " + err.Error())
	}
	defer store.Close()

	feed := registry.NewFeed()
	reg := registry.New(feed.Broadcast)
	reg.SetLogger(logger)

	tileWorldLen := float64(cfg.TileSize) * cfg.CellSize
	ing := ingest.New(store, reg, tileWorldLen)
	ing.SetLogger(logger)

	srv := &server{cfg: cfg, reg: reg, ing: ing}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", feed.Handler())
	mux.HandleFunc("/v1/obstacles", srv.handleAddObstacle)
	mux.HandleFunc("/v1/tiles", srv.handleRegisterTile)
	mux.HandleFunc("/v1/tiles/", srv.handleGetTile)

	ctx, cancel := signalContext()
	defer cancel()

	httpSrv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening on " + *addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("ListenAndServe: " + err.Error())
	}
}

// server holds the handler dependencies; a thin adapter over the
// registry/ingest seams so the HTTP layer carries no domain logic of
// its own.
type server struct {
	cfg config.BuildConfig
	reg *registry.Registry
	ing *ingest.Ingestor
}

// handleAddObstacle is the byte-level entrypoint for placing a dynamic
// obstacle: the request body goes straight to Ingestor.AddRequest,
// which validates it against the obstacle-request schema before
// dispatching.
func (s *server) handleAddObstacle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ing.AddRequest(body); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// tileRegistrationRequest is the terrain-ingestion request shape: a
// tile's bounds, voxel dimensions and triangle mesh, registered once
// before any obstacle can be placed against it.
type tileRegistrationRequest struct {
	X, Y           int
	BMin, BMax     [3]float64
	Width, Height  int
	TerrainVerts   [][3]float64
	TerrainIndices []int
}

func (s *server) handleRegisterTile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req tileRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	verts := make([]voxel.Vec3, len(req.TerrainVerts))
	for i, v := range req.TerrainVerts {
		verts[i] = voxel.Vec3{v[0], v[1], v[2]}
	}
	bmin := voxel.Vec3{req.BMin[0], req.BMin[1], req.BMin[2]}
	bmax := voxel.Vec3{req.BMax[0], req.BMax[1], req.BMax[2]}

	if _, err := s.reg.RegisterTile(req.X, req.Y, bmin, bmax, req.Width, req.Height, s.cfg, verts, req.TerrainIndices); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/tiles/"), "/")
	if len(parts) != 2 {
		http.Error(w, "expected /v1/tiles/{x}/{y}", http.StatusBadRequest)
		return
	}
	x, errX := strconv.Atoi(parts[0])
	y, errY := strconv.Atoi(parts[1])
	if errX != nil || errY != nil {
		http.Error(w, "tile coordinates must be integers", http.StatusBadRequest)
		return
	}

	payload, ok := s.reg.Lookup(x, y)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
