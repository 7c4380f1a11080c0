// Package stats implements C6: a single-consumer pipeline that decouples
// the hot request loop from slow sinks (CSV, InfluxDB, an upstream
// websocket). Workers emit one Stat per completed request; the pipeline
// batches them and fans each batch out to whichever sinks are configured.
package stats

import (
	"sync"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
)

// batchThreshold is the minimum number of buffered stats that triggers an
// immediate flush, per the pipeline's batching contract.
const batchThreshold = 50

// queueCapacity bounds the channel so a send can never truly block; it is
// sized far above any plausible worker count so a full queue signals a
// genuine sink stall rather than ordinary load.
const queueCapacity = 65536

// Config selects which sinks a Pipeline fans batches out to. A nil field
// means that sink is not configured. Distributed is true when running as a
// node, in which case Socket is required and CSV is never written locally
// (the hub writes the consolidated report instead).
type Config struct {
	CSV         *CSVSink
	InfluxDB    *InfluxDBSink
	Socket      SocketWriter
	Distributed bool
}

// Pipeline is the single consumer described by C6. Emit is safe to call
// from any number of worker goroutines; Run must be driven by exactly one
// goroutine.
type Pipeline struct {
	cfg   Config
	log   *zap.Logger
	stats chan model.Stat
}

// New returns a Pipeline ready to accept Emit calls once Run starts.
func New(cfg Config, log *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, stats: make(chan model.Stat, queueCapacity)}
}

// Emit enqueues stat without blocking. If the queue is full the stat is
// dropped and logged loudly rather than stalling the caller's request
// loop — this should be unreachable in practice given queueCapacity.
func (p *Pipeline) Emit(stat model.Stat) {
	select {
	case p.stats <- stat:
	default:
		p.log.Error("stats queue full, dropping stat", zap.String("request", stat.Name))
	}
}

// Stop signals no further stats will be emitted. Run drains and flushes
// whatever remains buffered before returning.
func (p *Pipeline) Stop() {
	close(p.stats)
}

// Run consumes stats until Stop closes the queue, flushing a batch as soon
// as it reaches batchThreshold and flushing whatever remains on exit. In
// distributed mode it writes a final "done" frame to the socket sink so the
// hub knows this node has finished reporting.
func (p *Pipeline) Run() {
	batch := make([]model.Stat, 0, batchThreshold)

	for stat := range p.stats {
		batch = append(batch, stat)
		if len(batch) >= batchThreshold {
			p.flush(batch)
			batch = make([]model.Stat, 0, batchThreshold)
		}
	}
	if len(batch) > 0 {
		p.flush(batch)
	}

	if p.cfg.Distributed && p.cfg.Socket != nil {
		if err := p.cfg.Socket.WriteDone(); err != nil {
			p.log.Error("failed to send done frame to hub", zap.Error(err))
		}
	}
}

// flush dispatches batch to every configured sink in parallel. Dispatch is
// a fixed tagged-variant switch rather than an interface slice, since the
// set of sink kinds is small and fixed and the hot path should stay
// monomorphic.
func (p *Pipeline) flush(batch []model.Stat) {
	var wg sync.WaitGroup

	if p.cfg.Distributed {
		if p.cfg.Socket != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.cfg.Socket.WriteStatsBatch(batch); err != nil {
					p.log.Error("failed to write stats batch to hub socket", zap.Error(err))
				}
			}()
		}
	} else if p.cfg.CSV != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.cfg.CSV.Write(batch); err != nil {
				p.log.Error("failed to write stats batch to csv", zap.Error(err))
			}
		}()
	}

	if p.cfg.InfluxDB != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.cfg.InfluxDB.Write(batch); err != nil {
				p.log.Error("failed to write stats batch to influxdb", zap.Error(err))
			}
		}()
	}

	wg.Wait()
}
