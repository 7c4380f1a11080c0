// Package engine implements C7: the load engine that drives one job's
// scenario across thread_count concurrent workers.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/dataprovider"
	"github.com/forgewave/bombard/internal/httpclient"
	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/reqcache"
	"github.com/forgewave/bombard/internal/stats"
)

// Engine drives a single job: it spawns thread_count workers with a
// ramp-up delay between spawns, then owns the Stats Pipeline's lifecycle
// from start through final drain.
type Engine struct {
	cfg          model.ExecConfig
	templates    []model.RequestTemplate
	envMap       map[string]string
	client       *httpclient.Client
	cache        *reqcache.Cache
	dataProvider *dataprovider.Provider
	pipeline     *stats.Pipeline
	log          *zap.Logger

	activeWorkers int32
}

// New constructs an Engine ready to run. dataProvider may be nil when the
// job declares no data file.
func New(
	cfg model.ExecConfig,
	templates []model.RequestTemplate,
	envMap map[string]string,
	client *httpclient.Client,
	cache *reqcache.Cache,
	dataProvider *dataprovider.Provider,
	pipeline *stats.Pipeline,
	log *zap.Logger,
) *Engine {
	return &Engine{
		cfg:          cfg,
		templates:    templates,
		envMap:       envMap,
		client:       client,
		cache:        cache,
		dataProvider: dataProvider,
		pipeline:     pipeline,
		log:          log,
	}
}

// Run spawns all workers, sleeping (ramp_up_time*1000)/thread_count
// milliseconds between each spawn, then blocks until every worker has
// satisfied its stop condition and the stats pipeline has finished
// draining its queue.
func (e *Engine) Run(ctx context.Context) {
	startTime := time.Now()
	e.log.Info("starting load engine run",
		zap.Int("thread_count", e.cfg.ThreadCount),
		zap.Int("ramp_up_time", e.cfg.RampUpTime))

	consumerDone := make(chan struct{})
	go func() {
		e.pipeline.Run()
		close(consumerDone)
	}()

	rampUpDelay := time.Duration(e.cfg.RampUpTime*1000/e.cfg.ThreadCount) * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.ThreadCount; i++ {
		w := &worker{
			id:            i,
			cfg:           e.cfg,
			templates:     e.templates,
			seedVars:      e.envMap,
			client:        e.client,
			cache:         e.cache,
			dataProvider:  e.dataProvider,
			pipeline:      e.pipeline,
			log:           e.log,
			activeWorkers: &e.activeWorkers,
			startTime:     startTime,
		}
		wg.Add(1)
		go w.run(ctx, &wg)

		if i < e.cfg.ThreadCount-1 {
			select {
			case <-ctx.Done():
			case <-time.After(rampUpDelay):
			}
		}
	}

	wg.Wait()
	e.pipeline.Stop()
	<-consumerDone

	e.log.Info("load engine run complete", zap.Duration("elapsed", time.Since(startTime)))
}

// ActiveWorkers returns the current number of live workers, for callers
// that want to surface it (e.g. a progress display).
func (e *Engine) ActiveWorkers() int32 {
	return atomic.LoadInt32(&e.activeWorkers)
}
