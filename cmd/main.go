package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bugsnag/panicwrap"
	"github.com/nats-io/nats.go"
	"github.com/trutim/api/data/model"
	"github.com/trutim/api/data/mutate"
	"github.com/trutim/api/data/query"
	"github.com/trutim/api/internal/api/realtime"
	"github.com/trutim/api/internal/configure"
	"github.com/trutim/api/internal/global"
	"github.com/trutim/api/internal/health"
	"github.com/trutim/api/internal/monitoring"
	"github.com/trutim/api/internal/pprof"
	"github.com/trutim/api/internal/svc/auth"
	"github.com/trutim/api/internal/svc/mongo"
	"github.com/trutim/api/internal/svc/prometheus"
	"go.uber.org/zap"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

func init() {
	debug.SetGCPercent(2000)
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Errorw("panic detected",
			"panic", s,
		)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("Trutim Realtime API")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	zap.S().Debugf("MaxProcs: %d", runtime.GOMAXPROCS(0))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	{
		ctx, cancel := global.WithTimeout(gCtx, time.Second*15)
		gCtx.Inst().Mongo, err = mongo.Setup(ctx, mongo.SetupOptions{
			URI:    config.Mongo.URI,
			DB:     config.Mongo.DB,
			Direct: config.Mongo.Direct,
		})
		cancel()
		if err != nil {
			zap.S().Fatalw("failed to connect to mongo",
				"error", err,
			)
		}
	}

	if config.Nats.URI != "" {
		gCtx.Inst().Nats, err = nats.Connect(config.Nats.URI)
		if err != nil {
			zap.S().Fatalw("failed to connect to nats",
				"error", err,
			)
		}
	}

	{
		gCtx.Inst().Auth = auth.New(auth.AuthorizerOptions{
			JWTSecret: config.Credentials.JWTSecret,
		})

		gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
			Labels: config.Monitoring.Labels.ToPrometheus(),
		})

		gCtx.Inst().Modelizer = model.NewInstance(model.ModelInstanceOptions{
			CDN: config.CdnURL,
		})

		gCtx.Inst().Query = query.New(gCtx.Inst().Mongo)
		gCtx.Inst().Mutate = mutate.New(mutate.InstanceOptions{
			Mongo: gCtx.Inst().Mongo,
		})
	}

	wg := sync.WaitGroup{}

	if gCtx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gCtx)
		}()
	}
	if gCtx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gCtx)
		}()
	}
	if gCtx.Config().PProf.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pprof.New(gCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		<-sig
		cancel()
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")

		wg.Wait()

		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := realtime.New(gCtx); err != nil {
			zap.S().Fatalw("realtime failed",
				"error", err,
			)
		}
	}()

	zap.S().Info("running")

	<-done

	zap.S().Info("shutdown")
	os.Exit(0)
}
