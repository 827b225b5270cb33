package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aigoflow/attrition-service/pkg/client"
)

const staleAfter = 2 * time.Minute

// ServiceStatus is the last heartbeat of a prediction service plus what the
// monitor observed about it.
type ServiceStatus struct {
	client.HealthStatus
	LastSeen  time.Time           `json:"last_seen"`
	FirstSeen time.Time           `json:"first_seen"`
	Backlog   *client.QueueStatus `json:"backlog,omitempty"`
}

// MonitorService tracks prediction services from their heartbeats and
// backpressure reports.
type MonitorService struct {
	nats     *nats.Conn
	topic    string
	services map[string]*ServiceStatus
	mu       sync.RWMutex
}

func NewMonitorService(natsURL, topic string) (*MonitorService, error) {
	nc, err := nats.Connect(natsURL, nats.Name("attrition-monitor"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return newTracker(nc, topic), nil
}

func newTracker(nc *nats.Conn, topic string) *MonitorService {
	return &MonitorService{
		nats:     nc,
		topic:    topic,
		services: make(map[string]*ServiceStatus),
	}
}

func (m *MonitorService) Start(ctx context.Context) error {
	if _, err := m.nats.Subscribe(m.topic+".heartbeat.*", func(msg *nats.Msg) {
		var status client.HealthStatus
		if err := json.Unmarshal(msg.Data, &status); err != nil {
			log.Printf("Failed to parse heartbeat from %s: %v", msg.Subject, err)
			return
		}
		m.recordHeartbeat(status, time.Now())
	}); err != nil {
		return fmt.Errorf("failed to subscribe to heartbeats: %w", err)
	}

	if _, err := m.nats.Subscribe(m.topic+".backpressure.*", func(msg *nats.Msg) {
		var report struct {
			ServiceName string `json:"service_name"`
			client.QueueStatus
		}
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			log.Printf("Failed to parse backpressure report from %s: %v", msg.Subject, err)
			return
		}
		m.recordBacklog(report.ServiceName, report.QueueStatus)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to backpressure reports: %w", err)
	}

	log.Printf("Monitor listening on %s.heartbeat.* and %s.backpressure.*", m.topic, m.topic)
	go m.markStale(ctx)
	return nil
}

func (m *MonitorService) recordHeartbeat(status client.HealthStatus, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &ServiceStatus{HealthStatus: status, LastSeen: now, FirstSeen: now}
	if existing, ok := m.services[status.ServiceName]; ok {
		entry.FirstSeen = existing.FirstSeen
		entry.Backlog = existing.Backlog
	}
	m.services[status.ServiceName] = entry
}

func (m *MonitorService) recordBacklog(name string, queue client.QueueStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.services[name]
	if !ok {
		// Backpressure can arrive before the first heartbeat.
		entry = &ServiceStatus{HealthStatus: client.HealthStatus{ServiceName: name, Status: "online"}}
		m.services[name] = entry
	}
	entry.Backlog = &queue
}

func (m *MonitorService) markStale(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

func (m *MonitorService) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, service := range m.services {
		if service.Status != "offline" && now.Sub(service.LastSeen) > staleAfter {
			service.Status = "offline"
			log.Printf("Marked service as offline: %s", name)
		}
	}
}

func (m *MonitorService) GetServices() []ServiceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	services := make([]ServiceStatus, 0, len(m.services))
	for _, service := range m.services {
		services = append(services, *service)
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].ServiceName < services[j].ServiceName
	})
	return services
}

func (m *MonitorService) Close() {
	if m.nats != nil {
		m.nats.Close()
	}
}

func main() {
	var (
		natsURL  = flag.String("nats", nats.DefaultURL, "NATS server URL")
		topic    = flag.String("topic", "monitoring.models", "Monitoring topic prefix")
		httpAddr = flag.String("http", "", "Serve the service list as JSON on this address")
		onceMode = flag.Bool("once", false, "Wait for one heartbeat interval, print and exit")
		wait     = flag.Duration("wait", 35*time.Second, "How long -once waits for heartbeats")
	)
	flag.Parse()

	monitor, err := NewMonitorService(*natsURL, *topic)
	if err != nil {
		log.Fatalf("Failed to create monitor service: %v", err)
	}
	defer monitor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := monitor.Start(ctx); err != nil {
		log.Fatalf("Failed to start monitor service: %v", err)
	}

	if *onceMode {
		select {
		case <-time.After(*wait):
		case <-ctx.Done():
		}
		printServices(os.Stdout, monitor.GetServices())
		return
	}

	if *httpAddr != "" {
		go serveHTTP(ctx, monitor, *httpAddr)
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			printServices(os.Stdout, monitor.GetServices())
		}
	}
}

func printServices(w io.Writer, services []ServiceStatus) {
	if len(services) == 0 {
		fmt.Fprintln(w, "No attrition services found")
		return
	}

	fmt.Fprintf(w, "%-20s %-8s %-10s %-8s %-8s %-10s %s\n",
		"SERVICE", "STATUS", "MODE", "PENDING", "ACTIVE", "LAST_SEEN", "CAPABILITIES")
	for _, s := range services {
		pending, active := "-", "-"
		if s.Backlog != nil {
			pending = fmt.Sprint(s.Backlog.PendingMessages)
			active = fmt.Sprint(s.Backlog.ActiveProcessing)
		}
		lastSeen := "-"
		if !s.LastSeen.IsZero() {
			lastSeen = time.Since(s.LastSeen).Truncate(time.Second).String()
		}
		fmt.Fprintf(w, "%-20s %-8s %-10s %-8s %-8s %-10s %s\n",
			s.ServiceName, s.Status, s.Mode, pending, active, lastSeen, strings.Join(s.Capabilities, ","))
	}
}

func serveHTTP(ctx context.Context, monitor *MonitorService, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/services", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(monitor.GetServices())
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Serving service list on http://localhost%s/api/services", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}
