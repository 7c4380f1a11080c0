package engine

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/dataprovider"
	"github.com/forgewave/bombard/internal/extractor"
	"github.com/forgewave/bombard/internal/httpclient"
	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/reqcache"
	"github.com/forgewave/bombard/internal/stats"
	"github.com/forgewave/bombard/internal/substitution"
)

// worker runs one concurrent stream of scenario iterations, per C7's
// per-worker loop: check stop condition, pull a data row, execute every
// template in order, emit one Stat per completed request.
type worker struct {
	id            int
	cfg           model.ExecConfig
	templates     []model.RequestTemplate
	seedVars      map[string]string
	client        *httpclient.Client
	cache         *reqcache.Cache
	dataProvider  *dataprovider.Provider
	pipeline      *stats.Pipeline
	log           *zap.Logger
	activeWorkers *int32
	startTime     time.Time
}

func (w *worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	atomic.AddInt32(w.activeWorkers, 1)
	defer atomic.AddInt32(w.activeWorkers, -1)

	vars := make(map[string]string, len(w.seedVars))
	for k, v := range w.seedVars {
		vars[k] = v
	}

	iterationsDone := 0
	executionDeadline := time.Duration(w.cfg.ExecutionTime) * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if w.cfg.IterationMode() {
			if iterationsDone >= w.cfg.Iterations {
				return
			}
		} else if time.Since(w.startTime) > executionDeadline {
			return
		}
		iterationsDone++

		if w.dataProvider != nil {
			row, err := w.dataProvider.Next()
			if err != nil {
				w.log.Error("data provider error, iteration proceeds without data merge", zap.Int("worker_id", w.id), zap.Error(err))
			} else {
				for k, v := range row {
					vars[k] = v
				}
			}
		}

		w.runIteration(vars)
	}
}

func (w *worker) runIteration(vars map[string]string) {
	batch := make([]model.Stat, 0, len(w.templates))

	for _, template := range w.templates {
		req, err := w.buildRequest(template, vars)
		if err != nil {
			w.log.Error("failed to build wire request", zap.String("template", template.Name), zap.Error(err))
			if w.cfg.ContinueOnError {
				continue
			}
			break
		}

		result, err := w.client.Execute(req, template.TimeoutMS)
		if err != nil {
			w.log.Error("transport error executing request", zap.String("template", template.Name), zap.Error(err))
			if w.cfg.ContinueOnError {
				continue
			}
			break
		}

		status := result.Response.StatusCode
		extractor.Run(result.Response, template.Extractors, vars, w.log)
		result.Response.Body.Close()

		batch = append(batch, model.Stat{
			Timestamp:         time.Now(),
			Name:              template.Name,
			Status:            uint16(status),
			LatencyMS:         result.LatencyMS,
			ConcurrentWorkers: uint16(atomic.LoadInt32(w.activeWorkers)),
		})

		if status >= 400 && !w.cfg.ContinueOnError {
			break
		}
		if w.cfg.ThinkTimeMS > 0 {
			time.Sleep(time.Duration(w.cfg.ThinkTimeMS) * time.Millisecond)
		}
	}

	for _, s := range batch {
		w.pipeline.Emit(s)
	}
}

func (w *worker) buildRequest(template model.RequestTemplate, vars map[string]string) (*http.Request, error) {
	if template.RequiresPreprocessing {
		resolved, err := substitution.Resolve(template, vars, w.log)
		if err != nil {
			return nil, err
		}
		req, _, err := reqcache.Convert(resolved)
		return req, err
	}
	return w.cache.Get(template)
}
