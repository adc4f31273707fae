// servers/fixture/main.go
//
// fixture serves a small dashboard page with a full and a lite performance
// mode so modebench can be tried without a real application.
package main

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	defaultPort  = 3001
	defaultCards = 48
	maxCards     = 500
	maxBusyMs    = 500
)

type Config struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Title  string `yaml:"title"`
	Cards  int    `yaml:"cards"`
	BusyMs int    `yaml:"busy_ms"`
}

type card struct {
	Index int
	Name  string
	Value int
}

type pageData struct {
	Title  string
	Cards  []card
	BusyMs int
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script>
  (function () {
    var mode = localStorage.getItem("performance-mode") || "full";
    document.documentElement.setAttribute("data-performance", mode);
  })();
</script>
<style>
  body { font-family: sans-serif; margin: 0; background: #f4f5f7; }
  nav { position: sticky; top: 0; padding: 12px 24px; background: #1d2330; }
  nav a { color: #fff; margin-right: 16px; }
  main { display: grid; grid-template-columns: repeat(4, 1fr); gap: 16px; padding: 24px; }
  .card { height: 180px; padding: 16px; border-radius: 12px; background: #fff; }
  html[data-performance="full"] nav { backdrop-filter: blur(12px); background: rgba(29, 35, 48, 0.8); }
  html[data-performance="full"] .card {
    box-shadow: 0 8px 32px rgba(40, 60, 160, 0.25);
    will-change: transform;
    animation: float 4s ease-in-out infinite alternate;
  }
  html[data-performance="full"] .card .glow { filter: blur(4px); }
  @keyframes float { from { transform: translateY(0); } to { transform: translateY(-6px); } }
</style>
</head>
<body>
<nav><a href="#overview">Overview</a><a href="#fleet">Fleet</a><a href="#alerts">Alerts</a></nav>
<button id="refresh" type="button">Refresh</button>
<main id="fleet">
{{range .Cards}}  <section class="card" id="card-{{.Index}}"><h3>{{.Name}}</h3><p class="glow">{{.Value}}</p></section>
{{end}}</main>
<script>
  (function () {
    if (document.documentElement.getAttribute("data-performance") !== "full") return;
    var budget = {{.BusyMs}};
    setInterval(function () {
      var end = performance.now() + budget;
      while (performance.now() < end) {}
    }, 250);
  })();
  document.getElementById("refresh").addEventListener("click", function () {
    document.querySelectorAll(".card p").forEach(function (p) {
      p.textContent = String(Math.round(Math.random() * 1000));
    });
  });
</script>
</body>
</html>
`))

var (
	configOnce sync.Once
	configVal  *Config
	configErr  error
)

func main() {
	cfg, err := loadConfig(filepath.Join("servers", "fixture", "fixture.yml"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           newMux(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("fixture config: host=%s port=%d cards=%d busy_ms=%d", cfg.Host, cfg.Port, cfg.Cards, cfg.BusyMs)
	log.Printf("listening on %s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}

func newMux(cfg *Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		servePage(w, cfg)
	})
	return mux
}

func servePage(w http.ResponseWriter, cfg *Config) {
	data := pageData{Title: cfg.Title, BusyMs: cfg.BusyMs, Cards: make([]card, cfg.Cards)}
	for i := range data.Cards {
		data.Cards[i] = card{Index: i + 1, Name: fmt.Sprintf("Node %02d", i+1), Value: (i * 37) % 1000}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTmpl.Execute(w, data); err != nil {
		log.Printf("fixture render error: %v", err)
	}
}

// loadConfig reads the fixture config once. A missing file yields defaults.
func loadConfig(path string) (*Config, error) {
	configOnce.Do(func() {
		configVal, configErr = parseConfig(path)
	})
	return configVal, configErr
}

func parseConfig(path string) (*Config, error) {
	cfg := Config{Host: "localhost", Port: defaultPort, Title: "Dashboard", Cards: defaultCards}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &cfg, nil
	case err != nil:
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.Cards < 1 || cfg.Cards > maxCards {
		return nil, fmt.Errorf("cards out of range (1..%d)", maxCards)
	}
	if cfg.BusyMs < 0 || cfg.BusyMs > maxBusyMs {
		return nil, fmt.Errorf("busy_ms out of range (0..%d)", maxBusyMs)
	}
	return &cfg, nil
}
