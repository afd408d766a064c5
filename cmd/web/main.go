package main

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/config"
)

//go:embed index.html
var htmlPage string

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := strings.Replace(htmlPage, "{{.SSHHost}}", cfg.SSHDisplayHost, -1)
		fmt.Fprint(w, page)
	})

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	logger.Info("starting web server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
