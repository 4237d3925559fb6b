package services

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/models"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// CaptureMetrics samples the host and this process. Probes that fail leave
// their fields at zero.
func CaptureMetrics(diskPath string) (models.MetricSample, error) {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	memStat, err := mem.VirtualMemory()
	if err != nil {
		return models.MetricSample{}, err
	}
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, _ = disk.Usage("/")
	}
	processRSS := int64(0)
	processCPU := float64(0)
	if proc != nil {
		rss, _ := proc.MemoryInfo()
		if rss != nil {
			processRSS = int64(rss.RSS)
		}
		cpuPerc, _ := proc.CPUPercent()
		processCPU = cpuPerc / 100.0
	}
	sysCPU, _ := cpu.Percent(0, false)
	sysCPUValue := 0.0
	if len(sysCPU) > 0 {
		sysCPUValue = sysCPU[0] / 100.0
	}
	sample := models.MetricSample{
		CapturedAt:        time.Now().UTC(),
		ProcessRSSBytes:   processRSS,
		Goroutines:        runtime.NumGoroutine(),
		SystemMemoryTotal: int64(memStat.Total),
		SystemMemoryUsed:  int64(memStat.Total - memStat.Available),
		ProcessCPULoad:    processCPU,
		SystemCPULoad:     sysCPUValue,
	}
	if diskStat != nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	return sample, nil
}

// SampleRing keeps the most recent samples in memory.
type SampleRing struct {
	mu    sync.Mutex
	items []models.MetricSample
	next  int
	full  bool
}

func NewSampleRing(size int) *SampleRing {
	if size < 1 {
		size = 1
	}
	return &SampleRing{items: make([]models.MetricSample, size)}
}

func (r *SampleRing) Add(sample models.MetricSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[r.next] = sample
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

// Latest returns up to limit samples, oldest first.
func (r *SampleRing) Latest(limit int) []models.MetricSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.next
	if r.full {
		n = len(r.items)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.MetricSample, 0, limit)
	for i := n - limit; i < n; i++ {
		idx := i
		if r.full {
			idx = (r.next + i) % len(r.items)
		}
		out = append(out, r.items[idx])
	}
	return out
}

// MetricsHub fans samples out to connected admin websockets.
type MetricsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan models.MetricSample
}

func NewMetricsHub() *MetricsHub {
	return &MetricsHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan models.MetricSample, 16),
	}
}

func (h *MetricsHub) Run(ctx context.Context) {
	for {
		select {
		case sample := <-h.ch:
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(sample); err != nil {
					delete(h.clients, conn)
					_ = conn.Close()
				}
			}
			h.mu.Unlock()
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
			}
			h.clients = map[*websocket.Conn]bool{}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast drops the sample when the hub is behind.
func (h *MetricsHub) Broadcast(sample models.MetricSample) {
	select {
	case h.ch <- sample:
	default:
	}
}

func (h *MetricsHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *MetricsHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *MetricsHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Sampler captures a sample every interval, records it and broadcasts it.
type Sampler struct {
	DiskPath string
	Interval time.Duration
	Ring     *SampleRing
	Hub      *MetricsHub
}

func (s Sampler) Run(ctx context.Context) {
	log := logging.WithComponent("metrics")
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := CaptureMetrics(s.DiskPath)
			if err != nil {
				log.Warn().Err(err).Msg("metrics sample failed")
				continue
			}
			s.Ring.Add(sample)
			if s.Hub != nil {
				s.Hub.Broadcast(sample)
			}
		case <-ctx.Done():
			return
		}
	}
}
