package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelforge.dev/internal/persistence/library"
	persistlog "voxelforge.dev/internal/persistence/log"
	"voxelforge.dev/internal/persistence/worldfile"
	"voxelforge.dev/internal/sim/catalogs"
	"voxelforge.dev/internal/sim/session"
	"voxelforge.dev/internal/sim/tuning"
	"voxelforge.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldName  = flag.String("world", "world_1", "world name (library key)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldPath  = flag.String("load", "", "path to world file to load (optional)")
		loadLatest = flag.Bool("load_latest", true, "restore the latest autosave for this world if present (when -load is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Default()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldName)
	_ = os.MkdirAll(worldDir, 0o755)

	lib, err := library.Open(filepath.Join(*dataDir, "library.db"))
	if err != nil {
		logger.Fatalf("open world library: %v", err)
	}
	defer lib.Close()

	sess, err := session.New(session.Config{ID: *worldName, Tuning: tune}, cats)
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	if path := restorePath(*worldPath, *loadLatest, *worldName, lib); path != "" {
		f, err := worldfile.Read(path)
		if err != nil {
			logger.Fatalf("read world file %s: %v", path, err)
		}
		if err := sess.Restore(f); err != nil {
			logger.Fatalf("restore world: %v", err)
		}
		logger.Printf("restored %s: %dx%dx%d, %d blocks",
			filepath.Base(path), f.Size.X, f.Size.Y, f.Size.Z, len(f.Blocks))
	}

	editLog := persistlog.NewEditLogger(worldDir)
	defer editLog.Close()
	sess.SetEditLogger(editLog)

	ctx, cancel := signalContext()
	defer cancel()

	// Autosave writer. Writes land next to the world's edit logs and are
	// indexed in the library so -load_latest can find them.
	saveCh := make(chan worldfile.WorldV1, 2)
	sess.SetSnapshotSink(saveCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case f := <-saveCh:
				if err := writeAutosave(worldDir, *worldName, f, lib); err != nil {
					logger.Printf("autosave: %v", err)
				}
			}
		}
	}()

	// The loop runs on its own context so the final save below can still go
	// through it after SIGINT.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go sess.Run(runCtx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(sess, logger).Handler())

	// Local-only world file endpoints.
	mux.HandleFunc("/admin/v1/export", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		f, err := sess.Export(ctx2)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		b, err := worldfile.Encode(f)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = rw.Write(b)
	})
	mux.HandleFunc("/admin/v1/import", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		raw, err := readBody(r)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := worldfile.Decode(raw)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		if err := sess.Import(ctx2, f); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "blocks": len(f.Blocks)})
	})
	mux.HandleFunc("/admin/v1/library", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		entries, err := lib.List()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(entries)
	})

	if envBool("VF_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)

		// Final save before the process exits.
		ctx3, cancel3 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel3()
		if f, err := sess.Export(ctx3); err == nil {
			if err := writeAutosave(worldDir, *worldName, f, lib); err != nil {
				logger.Printf("final save: %v", err)
			}
		}
		cancelRun()
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func restorePath(explicit string, loadLatest bool, worldName string, lib *library.Store) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if !loadLatest {
		return ""
	}
	e, ok, err := lib.Get(worldName)
	if err != nil || !ok {
		return ""
	}
	if _, err := os.Stat(e.Path); err != nil {
		return ""
	}
	return e.Path
}

func writeAutosave(worldDir, worldName string, f worldfile.WorldV1, lib *library.Store) error {
	rev, _ := f.Metadata["revision"].(uint64)
	path := filepath.Join(worldDir, "autosaves", fmt.Sprintf("%d.world.zst", time.Now().UnixMilli()))
	if err := worldfile.Write(path, f); err != nil {
		return err
	}
	return lib.Upsert(library.Entry{
		Name:      worldName,
		Path:      path,
		SizeX:     f.Size.X,
		SizeY:     f.Size.Y,
		SizeZ:     f.Size.Z,
		Blocks:    len(f.Blocks),
		Revision:  rev,
		UpdatedAt: time.Now().UTC(),
	})
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 64<<20))
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
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
