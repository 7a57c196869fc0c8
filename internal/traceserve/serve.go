// Package traceserve implements `a0 trace --serve`: a small HTTP
// server that tails an NDJSON trace file and streams new lines to a
// browser over a websocket as the file grows, the way a `tail -f`
// would. It exists purely as a viewer for the trace file `a0 run
// --trace` produces; it has no write path of its own.
package traceserve

import (
	"bufio"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><title>a0 trace: {{.Path}}</title></head>
<body style="font-family: monospace; background: #111; color: #ddd;">
<h1>{{.Path}}</h1>
<pre id="log"></pre>
<script>
  const log = document.getElementById("log");
  const ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = (ev) => {
    log.textContent += ev.data + "\n";
    window.scrollTo(0, document.body.scrollHeight);
  };
</script>
</body>
</html>`))

// Serve starts an HTTP server on port, tailing path for new NDJSON
// lines and streaming them to connected websocket clients. It blocks
// until ctx is canceled.
func Serve(ctx context.Context, port int, path string) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		pageTemplate.Execute(w, struct{ Path string }{Path: path})
	})

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		tailFile(r.Context(), path, conn)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// tailFile reads path from the start, forwarding every line already
// present, then polls for lines appended after the first read, until
// ctx is canceled or the websocket write fails.
func tailFile(ctx context.Context, path string, conn *websocket.Conn) {
	f, err := os.Open(path)
	if err != nil {
		conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("error opening %s: %v", path, err)))
		return
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				line, err := reader.ReadString('\n')
				if len(line) > 0 {
					if werr := conn.WriteMessage(websocket.TextMessage, []byte(line)); werr != nil {
						return
					}
				}
				if err == io.EOF {
					break
				}
				if err != nil {
					return
				}
			}
		}
	}
}
