// Package server exposes a running simulation over HTTP: a live canvas view
// fed by a websocket, JSON state and controls, and snapshot downloads.
package server

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rps-kmc/internal/export"
	"rps-kmc/internal/sims/rps"
)

//go:embed static
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type paramRequest struct {
	Key   string  `json:"key" binding:"required"`
	Value float64 `json:"value"`
}

type resetRequest struct {
	Seed int64 `json:"seed"`
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

type speedRequest struct {
	StepsPerTick int `json:"stepsPerTick" binding:"required"`
}

// SetupRouter wires the HTTP routes around b.
func SetupRouter(b *Broadcaster) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	r.GET("/", func(c *gin.Context) {
		c.FileFromFS("/", http.FS(static))
	})

	r.GET("/ws", HandleWebsocket(b))

	api := r.Group("/api")
	api.GET("/state", stateHandler(b))
	api.POST("/params", paramsHandler(b))
	api.POST("/reset", resetHandler(b))
	api.POST("/pause", pauseHandler(b))
	api.POST("/speed", speedHandler(b))
	api.POST("/load", loadHandler(b))
	api.GET("/snapshot.ppm", snapshotHandler(b, "image/x-portable-pixmap", export.WritePPM))
	api.GET("/snapshot.txt", snapshotHandler(b, "text/plain; charset=utf-8", export.WriteText))
	api.GET("/snapshot.png", snapshotHandler(b, "image/png", func(w io.Writer, s export.Snapshot) error {
		return export.WritePNG(w, s, 4)
	}))

	return r
}

// HandleWebsocket upgrades the connection and streams frames until the
// client goes away. Incoming messages are ignored.
func HandleWebsocket(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WS upgrade error:", err)
			return
		}
		cl := b.register(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.unregister(cl)
				return
			}
		}
	}
}

func stateHandler(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, b.Stats())
	}
}

func paramsHandler(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paramRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := b.SetParameter(req.Key, req.Value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b.Stats())
	}
}

func resetHandler(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		b.Reset(req.Seed)
		c.JSON(http.StatusOK, b.Stats())
	}
}

func pauseHandler(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pauseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		b.SetPaused(req.Paused)
		c.JSON(http.StatusOK, b.Stats())
	}
}

func speedHandler(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req speedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := b.SetStepsPerTick(req.StepsPerTick); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b.Stats())
	}
}

// loadHandler replaces the lattice with a text-format body.
func loadHandler(b *Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		side := b.Side()
		vals, err := rps.ReadText(c.Request.Body, side*side)
		if err == nil {
			err = b.Load(vals)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b.Stats())
	}
}

func snapshotHandler(b *Broadcaster, contentType string, write func(io.Writer, export.Snapshot) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := b.Snapshot()
		var buf bytes.Buffer
		if err := write(&buf, snap); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, contentType, buf.Bytes())
	}
}
