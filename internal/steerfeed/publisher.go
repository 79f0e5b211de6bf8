// Package steerfeed streams per-frame steering results to remote clients
// over gRPC.
//
// The service is declared by hand (see grpc_server.go) and carries
// google.protobuf.Struct messages, so clients in any language can consume it
// with the well-known types alone.
package steerfeed

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"

	"github.com/banshee-data/lanekeeper/internal/lane"
)

// Config holds configuration for the steering feed server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50061")
	ListenAddr string

	// Source names the camera stream in every update.
	Source string

	// MaxClients is the maximum number of concurrent watchers.
	MaxClients int

	// ClientBuffer is the per-client queue length; frames beyond it are
	// dropped for that client only.
	ClientBuffer int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "localhost:50061",
		MaxClients:   5,
		ClientBuffer: 10,
	}
}

// Publisher owns the gRPC server and fans frame results out to watchers.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener

	frameChan chan lane.FrameResult
	clients   map[string]*client
	clientsMu sync.RWMutex
	nextID    atomic.Uint64

	frameCount    atomic.Uint64
	clientCount   atomic.Int32
	droppedFrames atomic.Uint64

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type client struct {
	id      string
	frameCh chan lane.FrameResult
}

// NewPublisher creates a Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = DefaultConfig().ClientBuffer
	}
	return &Publisher{
		config:    cfg,
		frameChan: make(chan lane.FrameResult, 100),
		clients:   make(map[string]*client),
		stopCh:    make(chan struct{}),
	}
}

// Start listens on the configured address and serves the feed.
func (p *Publisher) Start() error {
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return p.Serve(lis)
}

// Serve serves the feed on lis in the background until Stop.
func (p *Publisher) Serve(lis net.Listener) error {
	if p.running.Load() {
		return fmt.Errorf("publisher already running")
	}
	p.listener = lis
	p.server = grpc.NewServer()
	RegisterService(p.server, NewServer(p))

	p.running.Store(true)

	p.wg.Add(1)
	go p.broadcastLoop()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Printf("[steerfeed] gRPC server listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			log.Printf("[steerfeed] gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop ends every watch stream and shuts the server down.
func (p *Publisher) Stop() {
	if !p.running.Load() {
		return
	}
	p.running.Store(false)
	close(p.stopCh)

	if p.server != nil {
		p.server.Stop()
	}
	if p.listener != nil {
		p.listener.Close()
	}

	p.wg.Wait()
	log.Printf("[steerfeed] gRPC server stopped")
}

// Publish queues a frame result for all watchers. It never blocks; when the
// queue is full the frame is dropped and counted.
func (p *Publisher) Publish(res lane.FrameResult) {
	if !p.running.Load() {
		return
	}
	select {
	case p.frameChan <- res:
		p.frameCount.Add(1)
	default:
		dropped := p.droppedFrames.Add(1)
		log.Printf("[steerfeed] DROPPED frame %d (total dropped: %d), channel full", res.Frame, dropped)
	}
}

func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case res := <-p.frameChan:
			p.clientsMu.RLock()
			for _, c := range p.clients {
				select {
				case c.frameCh <- res:
				default:
					// Slow watcher; it misses this frame.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// addClient registers a watcher, or returns nil when MaxClients is reached.
func (p *Publisher) addClient() *client {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if p.config.MaxClients > 0 && len(p.clients) >= p.config.MaxClients {
		return nil
	}
	c := &client{
		id:      fmt.Sprintf("watch-%d", p.nextID.Add(1)),
		frameCh: make(chan lane.FrameResult, p.config.ClientBuffer),
	}
	p.clients[c.id] = c
	p.clientCount.Add(1)
	log.Printf("[steerfeed] client connected: %s (total: %d)", c.id, len(p.clients))
	return c
}

func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if _, ok := p.clients[id]; !ok {
		return
	}
	delete(p.clients, id)
	p.clientCount.Add(-1)
	log.Printf("[steerfeed] client disconnected: %s (remaining: %d)", id, len(p.clients))
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		FrameCount:    p.frameCount.Load(),
		DroppedFrames: p.droppedFrames.Load(),
		ClientCount:   p.clientCount.Load(),
		Running:       p.running.Load(),
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	FrameCount    uint64
	DroppedFrames uint64
	ClientCount   int32
	Running       bool
}
