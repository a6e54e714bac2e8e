package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flexray-tools/analyzer/adapter"
	"github.com/flexray-tools/analyzer/config"
	"github.com/flexray-tools/analyzer/frame"
	"github.com/flexray-tools/analyzer/internal/metrics"
	"github.com/flexray-tools/analyzer/sampler"
	"github.com/flexray-tools/analyzer/signal"
	"github.com/flexray-tools/analyzer/sink"
)

var (
	serveListenAddr string
	serveInPath     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Decode a FlexRay channel while streaming field records to a browser over a websocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListenAddr, "listen", ":8085", "address to serve the live view on")
	serveCmd.Flags().StringVar(&serveInPath, "in", "", "capture file to decode instead of a live adapter")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	samplesPerBit, err := cfg.SamplesPerBit()
	if err != nil {
		return err
	}

	var src signal.EdgeSource
	var closer io.Closer
	if serveInPath != "" {
		fc, err := adapter.OpenFileCapture(serveInPath)
		if err != nil {
			return err
		}
		src, closer = fc, fc
	} else {
		cap, err := adapter.Find(samplesPerBit)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		src, closer = cap, cap
	}
	defer closer.Close()
	src = signal.Invert(src, signal.Polarity{Inverted: cfg.Channel.Inverted})

	primary, err := sink.Open(cfg.Export.Format, cfg.Export.Path)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if c, ok := primary.(io.Closer); ok {
		defer c.Close()
	}
	live := newLiveSink()
	multi := sink.Multi{primary, live}

	reg := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", live.handleWS)
	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", reg.Handler())
	}
	httpSrv := &http.Server{Addr: serveListenAddr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("live view server stopped", zap.Error(err))
		}
	}()

	return decodeLoop(src, samplesPerBit, multi, cfg, log, reg)
}

// decodeLoop runs the pull-based decode cycle shared by `decode` and
// `serve`: ParseNext until io.EOF, or until ParseNext has kept
// returning signal.ErrNeedMore for longer than the configured idle
// timeout (treated as end of stream), sleeping briefly between those
// retries and logging (but not aborting on) sync errors.
func decodeLoop(src signal.EdgeSource, samplesPerBit uint64, out frame.Sink, cfg config.Config, log *zap.Logger, reg *metrics.Registry) error {
	smp := sampler.New(src, sampler.Config{SamplesPerBit: samplesPerBit})
	parser := frame.NewParser(smp, out)
	idleTimeout := time.Duration(cfg.Capture.IdleTimeoutMs) * time.Millisecond
	var waitingSince time.Time

	for {
		err := parser.ParseNext()
		switch {
		case err == nil:
			waitingSince = time.Time{}
			reg.FramesDecoded.Inc()
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, signal.ErrNeedMore):
			if waitingSince.IsZero() {
				waitingSince = time.Now()
			} else if time.Since(waitingSince) >= idleTimeout {
				return nil
			}
			time.Sleep(idleTimeout / 50)
			continue
		default:
			var syncErr *sampler.SyncError
			if errors.As(err, &syncErr) {
				waitingSince = time.Time{}
				reg.SyncErrors.Inc()
				log.Warn("sync lost", zap.String("reason", syncErr.Reason), zap.Uint64("sample", syncErr.Sample))
				continue
			}
			return err
		}
	}
}

// maybeServeMetrics starts the prometheus /metrics endpoint if
// cfg.Metrics.Enabled, returning a no-op stop function otherwise so
// callers can unconditionally defer the result.
func maybeServeMetrics(cfg config.Config, reg *metrics.Registry, log *zap.Logger) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return func() {
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctxShutdown)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// liveMessage is one broadcast unit, a committed packet's records.
type liveMessage struct {
	PacketID uint64              `json:"packet_id"`
	Records  []frame.FieldRecord `json:"records"`
}

// liveSink is a frame.Sink that both discards nothing and fans every
// committed packet out to connected websocket viewers, the
// broadcast-to-all-clients pattern the chat/spectrum websocket
// handlers use, simplified down to one message type.
type liveSink struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	building []frame.FieldRecord
	nextID   uint64
}

func newLiveSink() *liveSink {
	return &liveSink{clients: make(map[*websocket.Conn]struct{})}
}

func (s *liveSink) OpenPacket() {
	s.building = s.building[:0]
}

func (s *liveSink) Commit(record frame.FieldRecord) {
	s.building = append(s.building, record)
}

func (s *liveSink) CommitPacket() uint64 {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	msg := liveMessage{PacketID: id, Records: append([]frame.FieldRecord(nil), s.building...)}
	peers := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		peers = append(peers, c)
	}
	s.mu.Unlock()

	payload, err := json.Marshal(msg)
	if err == nil {
		for _, c := range peers {
			c.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if c.WriteMessage(websocket.TextMessage, payload) != nil {
				s.removeClient(c)
			}
		}
	}
	s.building = nil
	return id
}

func (s *liveSink) CancelPacket() {
	s.building = nil
}

func (s *liveSink) addClient(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *liveSink) removeClient(c *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	c.Close()
}

func (s *liveSink) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.addClient(conn)
	go func() {
		defer s.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
