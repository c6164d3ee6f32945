package interceptor

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/j-raghavan/chronoguard-lite/internal/domain"
	"github.com/j-raghavan/chronoguard-lite/internal/logger"
	"github.com/j-raghavan/chronoguard-lite/internal/store"
)

// flushBatchSize caps how many audit entries one drain cycle writes.
const flushBatchSize = 1000

// EventPublisher is the narrow interface the server needs from the
// optional event bus; satisfied by eventbus.Publisher. Declared here
// so interceptor never imports eventbus directly.
type EventPublisher interface {
	PublishAuditEntry(entry domain.AuditEntry) error
}

// Server is a goroutine-per-connection TCP server: each accepted
// connection gets its own goroutine reading/evaluating/responding,
// while a single background goroutine drains a bounded audit-entry
// channel into the columnar store. The channel gives the same
// backpressure guarantee as a bounded queue: once full, a handler's
// send blocks until the drain loop makes room.
type Server struct {
	host      string
	port      int
	agents    map[string]*domain.Agent
	policies  map[string]*domain.Policy
	store     *store.ColumnarAuditStore
	evaluator *PolicyEvaluator
	publisher EventPublisher

	auditCh chan domain.AuditEntry

	mu                sync.RWMutex
	listener          net.Listener
	boundPort         int
	requestsProcessed int64
	queueFullCount    int64

	// wg tracks acceptLoop and every handleConnection goroutine, NOT
	// flushLoop. Stop waits on wg before closing auditCh, so every
	// entry a still-running handler enqueues is guaranteed a reader;
	// flushDone then signals once flushLoop has drained auditCh dry
	// and observed it closed.
	wg             sync.WaitGroup
	flushDone      chan struct{}
	stopOnce       sync.Once
	closeAuditOnce sync.Once
	stopCh         chan struct{}
}

// NewServer creates a server bound to host:port (port 0 lets the OS
// pick a free port), mediating requests through agents/policies and
// logging decisions into auditStore. queueMaxSize bounds the audit
// channel for backpressure.
func NewServer(host string, port int, agents map[string]*domain.Agent, policies map[string]*domain.Policy, auditStore *store.ColumnarAuditStore, queueMaxSize int) *Server {
	if auditStore == nil {
		auditStore = store.NewColumnarAuditStore()
	}
	return &Server{
		host:      host,
		port:      port,
		agents:    agents,
		policies:  policies,
		store:     auditStore,
		evaluator: NewPolicyEvaluator(),
		auditCh:   make(chan domain.AuditEntry, queueMaxSize),
		flushDone: make(chan struct{}),
		stopCh:    make(chan struct{}),
	}
}

// SetEventPublisher wires an optional fan-out hook invoked after each
// audit entry is written to the store.
func (s *Server) SetEventPublisher(p EventPublisher) { s.publisher = p }

// Address returns the host and bound port once Start has run.
func (s *Server) Address() (string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host, s.boundPort
}

// RequestsProcessed returns the number of connections handled so far.
func (s *Server) RequestsProcessed() int64 { return atomic.LoadInt64(&s.requestsProcessed) }

// QueueFullCount returns how many times a handler observed the audit
// channel full before it could send.
func (s *Server) QueueFullCount() int64 { return atomic.LoadInt64(&s.queueFullCount) }

// QueueSize returns the audit channel's current depth.
func (s *Server) QueueSize() int { return len(s.auditCh) }

// Store returns the backing columnar store.
func (s *Server) Store() *store.ColumnarAuditStore { return s.store }

// Start binds the listener, launches the accept loop and the
// background flush loop, and returns once bound.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.boundPort = listener.Addr().(*net.TCPAddr).Port
	s.mu.Unlock()

	go s.flushLoop()

	s.wg.Add(1)
	go s.acceptLoop(listener)

	return nil
}

// Stop closes the listener, waits for in-flight connections to finish
// enqueuing their audit entries, then closes the audit channel so
// flushLoop drains it to empty before exiting. This ordering is what
// guarantees every successfully received request reaches the store:
// closing auditCh before the handlers are done would drop entries
// sent after the close.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.RLock()
		l := s.listener
		s.mu.RUnlock()
		if l != nil {
			err = l.Close()
		}
		close(s.stopCh)
	})

	handlersDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(handlersDone)
	}()

	select {
	case <-handlersDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.closeAuditOnce.Do(func() { close(s.auditCh) })

	select {
	case <-s.flushDone:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				logger.Interceptor().Warn().Err(err).Msg("accept failed")
				return
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection mirrors the 8-step request flow: read, parse,
// look up the agent, gather its policies, evaluate, record an audit
// entry, respond, and always count the request as processed.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	defer atomic.AddInt64(&s.requestsProcessed, 1)

	start := time.Now()

	payload, err := ReadMessage(conn)
	if err != nil {
		logger.Interceptor().Debug().Err(err).Msg("client disconnected mid-read")
		return
	}
	req, err := ParseRequest(payload)
	if err != nil {
		logger.Interceptor().Debug().Err(err).Msg("malformed request")
		return
	}

	agent, ok := s.agents[req.AgentID]
	var result EvaluationResult
	if !ok {
		result = EvaluationResult{
			Decision: domain.Deny,
			Reason:   "Unknown agent: " + req.AgentID,
		}
	} else {
		policies := make([]*domain.Policy, 0, len(agent.PolicyIDs))
		for _, pid := range agent.PolicyIDs {
			if p, ok := s.policies[pid.String()]; ok {
				policies = append(policies, p)
			}
		}
		result = s.evaluator.Evaluate(req, agent, policies)
	}

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0

	var agentID domain.AgentId
	if ok {
		agentID = agent.ID
	}
	entry := domain.NewAuditEntry(agentID, req.Domain, result.Decision, float64(time.Now().UnixNano())/1e9, result.Reason)
	entry.PolicyID = result.PolicyID
	entry.RuleID = result.RuleID
	entry.RequestMethod = req.Method
	entry.RequestPath = req.Path
	entry.SourceIP = req.SourceIP
	entry.ProcessingTimeMs = elapsedMs

	select {
	case s.auditCh <- entry:
	default:
		atomic.AddInt64(&s.queueFullCount, 1)
		s.auditCh <- entry
	}

	resp := InterceptResponse{
		Decision:         result.Decision.String(),
		Reason:           result.Reason,
		ProcessingTimeMs: elapsedMs,
	}
	frame, err := resp.ToBytes()
	if err != nil {
		logger.Interceptor().Warn().Err(err).Msg("failed to marshal response")
		return
	}
	if _, err := conn.Write(frame); err != nil {
		logger.Interceptor().Debug().Err(err).Msg("client connection reset")
	}
}

// flushLoop drains the audit channel into the columnar store in
// batches of up to flushBatchSize, publishing each written entry to
// the optional event bus. It ranges over auditCh rather than
// selecting on stopCh: Stop only closes auditCh once every handler
// goroutine has returned, so ranging here is what drains entries
// enqueued right up to shutdown instead of losing them to a race with
// a single final sweep.
func (s *Server) flushLoop() {
	defer close(s.flushDone)
	for entry := range s.auditCh {
		s.flushBatch(entry)
	}
}

func (s *Server) flushBatch(first domain.AuditEntry) {
	batch := []domain.AuditEntry{first}
	for len(batch) < flushBatchSize {
		select {
		case entry, ok := <-s.auditCh:
			if !ok {
				// auditCh closed mid-batch during shutdown drain: a
				// non-ok receive is always "ready", so without this
				// check the greedy fill below would spin forever
				// appending zero-value entries instead of hitting
				// default.
				s.writeBatch(batch)
				return
			}
			batch = append(batch, entry)
		default:
			s.writeBatch(batch)
			return
		}
	}
	s.writeBatch(batch)
}

func (s *Server) writeBatch(batch []domain.AuditEntry) {
	for _, entry := range batch {
		if err := s.store.Append(entry); err != nil {
			logger.Interceptor().Debug().Err(err).Msg("dropped out-of-order audit entry")
			continue
		}
		if s.publisher != nil {
			if err := s.publisher.PublishAuditEntry(entry); err != nil {
				logger.Interceptor().Warn().Err(err).Msg("failed to publish audit entry")
			}
		}
	}
}

