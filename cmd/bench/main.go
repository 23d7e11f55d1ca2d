package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"cu-bench-sol/internal/config"
	"cu-bench-sol/internal/service"
	"cu-bench-sol/internal/svc"
	"cu-bench-sol/pkg/logger"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/bench.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			os.Exit(2)
		}
	}()

	flag.Parse()

	var c config.BenchConfig
	conf.MustLoad(*configFile, &c)
	if err := c.Validate(); err != nil {
		logx.Must(err)
	}

	if err := logger.Init(c.Logger.ToLogOption()); err != nil {
		logx.Must(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		logx.Must(err)
	}
	defer serviceContext.Close()

	bench := service.NewBenchService(serviceContext)

	sg := zerosvc.NewServiceGroup()
	sg.Add(bench)
	if c.Metrics.Listen != "" {
		sg.Add(service.NewMetricsService(c.Metrics.Listen))
	}

	logx.Infof("Starting bench run %s against %s", serviceContext.RunID, c.Rpc.Endpoint)
	go sg.Start()

	// 等待运行结束或退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-bench.Done():
	case s := <-sig:
		logx.Infof("received %v, stopping", s)
	}

	logx.Info("Shutting down services...")
	sg.Stop()
	<-bench.Done()

	if _, err := bench.Result(); err != nil {
		logger.Sync()
		serviceContext.Close()
		os.Exit(1)
	}
}
