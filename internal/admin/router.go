// Package admin exposes a read-only gin HTTP surface for inspecting
// ledger integrity, audit search, and analytics estimates, guarded by
// a per-IP rate limiter. It never accepts writes: policy/agent
// mutation is out of scope for this surface, by the same Non-goal
// that keeps this whole system free of identity-issuance concerns.
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-raghavan/chronoguard-lite/internal/analytics"
	"github.com/j-raghavan/chronoguard-lite/internal/cryptochain"
	"github.com/j-raghavan/chronoguard-lite/internal/logger"
	"github.com/j-raghavan/chronoguard-lite/internal/ratelimit"
	"github.com/j-raghavan/chronoguard-lite/internal/search"
	"github.com/j-raghavan/chronoguard-lite/internal/store"
)

// Deps bundles the components the admin surface reads from. All
// fields are required.
type Deps struct {
	Chain    *cryptochain.AuditChain
	Store    *store.ColumnarAuditStore
	Search   *search.Engine
	Analytics *analytics.Engine
}

// NewRouter builds a gin.Engine exposing the read-only admin surface,
// rate-limited per client IP.
func NewRouter(deps Deps, limiter *ratelimit.IPLimiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1/admin")
	{
		v1.GET("/ledger/verify", handleVerifyChain(deps.Chain))
		v1.GET("/ledger/entries/:seq", handleGetEntry(deps.Chain))
		v1.GET("/audit/search", handleSearch(deps.Search))
		v1.GET("/audit/range", handleRangeQuery(deps.Store))
		v1.GET("/analytics/unique-agents/:domain", handleUniqueAgents(deps.Analytics))
		v1.GET("/analytics/frequency/:domain", handleFrequency(deps.Analytics))
		v1.GET("/analytics/memory", handleMemoryReport(deps.Analytics))
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Admin().Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("admin request")
	}
}

func handleVerifyChain(chain *cryptochain.AuditChain) gin.HandlerFunc {
	return func(c *gin.Context) {
		verifier := cryptochain.NewVerifier(chain)
		result := verifier.VerifyFull()
		c.JSON(http.StatusOK, result)
	}
}

func handleGetEntry(chain *cryptochain.AuditChain) gin.HandlerFunc {
	return func(c *gin.Context) {
		seq, ok := parseSeqParam(c)
		if !ok {
			return
		}
		entry, err := chain.Get(seq)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func handleSearch(engine *search.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
			return
		}
		entries, err := engine.SearchEntries(query)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
	}
}

func handleRangeQuery(auditStore *store.ColumnarAuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, end, ok := parseTimeRangeParams(c)
		if !ok {
			return
		}
		entries := auditStore.QueryTimeRange(start, end)
		c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
	}
}

func handleUniqueAgents(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		domainName := c.Param("domain")
		c.JSON(http.StatusOK, gin.H{
			"domain":        domainName,
			"unique_agents": engine.UniqueAgents(domainName),
		})
	}
}

func handleFrequency(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		domainName := c.Param("domain")
		c.JSON(http.StatusOK, gin.H{
			"domain":    domainName,
			"frequency": engine.DomainFrequency(domainName),
		})
	}
}

func handleMemoryReport(engine *analytics.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.MemoryReport())
	}
}
