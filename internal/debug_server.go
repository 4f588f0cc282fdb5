package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"

	"whisperwall/repositories"
)

const (
	defaultInspectPrefix = "chat:"
	maxInspectRows       = 500
)

type StatsProvider func() map[string]any

type InspectPage struct {
	Prefix string                `json:"prefix"`
	Items  []repositories.Record `json:"items"`
	Stats  map[string]any        `json:"stats"`
}

// NewDebugRouter exposes the raw content of badger under /inspect?prefix=...
// and the relay totals given by stats. Meant for local debugging only.
func NewDebugRouter(db *badger.DB, stats StatsProvider) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/inspect", func(c *gin.Context) {
		prefix := c.DefaultQuery("prefix", defaultInspectPrefix)
		page := InspectPage{Prefix: prefix, Items: []repositories.Record{}, Stats: map[string]any{}}
		if stats != nil {
			page.Stats = stats()
		}
		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(page.Items) < maxInspectRows; it.Next() {
				item := it.Item()
				key := string(item.Key())
				if err := item.Value(func(val []byte) error {
					page.Items = append(page.Items, repositories.Describe(key, val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, page)
	})
	return router
}

// StartDebugServer serves the debug router until ctx is done.
func StartDebugServer(ctx context.Context, log *slog.Logger, db *badger.DB, port int, stats StatsProvider) {
	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           NewDebugRouter(db, stats),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Debug server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
