//go:build unix

// Command allocstr serves buffer edits over HTTP, keeping request text in an
// mmap backed arena.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/c2h5oh/datasize"
	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/funny-falcon/allocstr/alloc"
	"github.com/funny-falcon/allocstr/intern"
	"github.com/funny-falcon/allocstr/utf8buf"
)

var port = flag.String("port", "8080", "port to listen")
var debug = flag.Bool("debug", false, "log every allocator call")
var growth = flag.Int("growth", utf8buf.DefaultConfig.GrowthFactor, "buffer growth factor")

var limit datasize.ByteSize
var maxBody = 4 * datasize.MB

func init() {
	flag.TextVar(&limit, "limit", datasize.ByteSize(0), "cap on live arena bytes, 0 for none")
	flag.TextVar(&maxBody, "max-body", maxBody, "largest request body accepted")
}

func newLogger() (*zap.Logger, error) {
	if *debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	flag.Parse()
	logger, err := newLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg := utf8buf.DefaultConfig
	cfg.GrowthFactor = *growth
	if err := cfg.Validate(); err != nil {
		logger.Fatal("bad config", zap.Error(err))
	}

	arena := alloc.NewArena()
	var a alloc.Allocator = arena
	if limit > 0 {
		a = alloc.NewLimit(a, int(limit.Bytes()))
	}
	if *debug {
		a = alloc.NewTraced(a, logger.Named("alloc"))
	}

	srv := &Server{Alloc: a, Arena: arena, Config: cfg, Log: logger, Names: intern.New(a)}
	server := &fasthttp.Server{
		Handler:            srv.Handler,
		MaxRequestBodySize: int(maxBody.Bytes()),
		Name:               "allocstr",
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		if err := server.Shutdown(); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.String("port", *port),
		zap.String("limit", humanize.IBytes(limit.Bytes())),
		zap.Int("growth", cfg.GrowthFactor))
	if err := server.ListenAndServe(":" + *port); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}

	srv.Names.Release()
	st := arena.Stats()
	logger.Info("arena released",
		zap.String("mapped", humanize.IBytes(uint64(st.Mapped))),
		zap.Int("live", st.Live))
	if err := arena.Release(); err != nil {
		logger.Error("release arena", zap.Error(err))
	}
}
