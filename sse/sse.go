package sse

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Stream escribe cada evento del canal como una línea SSE:
//
//	data: <evento>\n\n
//
// y termina con:
//
//	data: [DONE]\n\n
//
// Los eventos son JSON de una sola línea. El stream corta cuando el canal
// se cierra o el cliente se desconecta.
func Stream(c *gin.Context, ch <-chan string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case msg, open := <-ch:
			if !open {
				_, _ = c.Writer.Write([]byte("data: [DONE]\n\n"))
				flusher.Flush()
				return
			}
			_, _ = c.Writer.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()
		}
	}
}
