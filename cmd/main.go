// Command nest-demo wires together the pieces an embedding service would
// actually use: .env-driven configuration, structured logging, and a
// root Task that shuts down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kairoslab/nest"
)

func loadConfig(log *logrus.Logger) (workers int, jobTimeout time.Duration) {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file found, using process environment")
	}

	workers = 3
	if v := os.Getenv("NEST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		} else {
			log.WithField("value", v).Warn("ignoring invalid NEST_WORKERS")
		}
	}

	jobTimeout = 1 * time.Second
	if v := os.Getenv("NEST_JOB_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			jobTimeout = d
		} else {
			log.WithField("value", v).Warn("ignoring invalid NEST_JOB_TIMEOUT")
		}
	}
	return workers, jobTimeout
}

// job is one unit of simulated work; job three always fails to exercise
// the error-cascade path.
func job(index int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if index == 2 {
			return fmt.Errorf("job %d: upstream refused connection", index)
		}
		select {
		case <-time.After(200 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	workers, jobTimeout := loadConfig(log)
	log.WithFields(logrus.Fields{"workers": workers, "job_timeout": jobTimeout}).Info("starting")

	start := time.Now()

	outcome := nest.Main(func(ctx context.Context, fr *nest.Frame) (any, error) {
		pool, err := nest.NewWorkerPool(fr, workers)
		if err != nil {
			return nil, err
		}

		jobs := []func(ctx context.Context) error{job(0), job(1), job(2), job(3)}
		for i, j := range jobs {
			i, j := i, j
			pool.Submit(func(ctx context.Context) error {
				jctx, cancel := context.WithTimeout(ctx, jobTimeout)
				defer cancel()
				if err := j(jctx); err != nil {
					log.WithFields(logrus.Fields{"job": i, "error": err}).Error("job failed")
					return err
				}
				log.WithField("job", i).Info("job completed")
				return nil
			})
		}

		if err := pool.Close(); err != nil {
			return nil, err
		}
		stats := pool.Stats()
		if stats.Errored > 0 {
			return nil, fmt.Errorf("%d of %d jobs failed", stats.Errored, stats.Submitted)
		}
		return nil, nil
	}, nest.WithOnEvent(func(e nest.FrameEvent) {
		log.WithFields(logrus.Fields{"frame": e.Frame, "name": e.Name, "kind": e.Kind}).Debug("frame event")
	}))

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("finished")
	if outcome.IsErrored() {
		log.WithError(outcome.Err()).Error("run failed")
		os.Exit(1)
	}
}
