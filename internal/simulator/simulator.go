// Package simulator emulates the Arduino greenhouse controller: a window
// actuator plus temperature and humidity sensors that answer with random
// values. It exists so the backend can be developed against a live device
// without hardware.
package simulator

import (
	"math/rand"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// State is the device's owned mutable state. It is passed to the handlers
// explicitly instead of living in package globals.
type State struct {
	mu     sync.Mutex
	window string
	rng    *rand.Rand
}

func NewState(seed int64) *State {
	return &State{
		window: "1",
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *State) Window() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

func (s *State) SetWindow(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = value
}

// RandomReading returns a fake sensor value in [10, 99], the range the real
// firmware reports.
func (s *State) RandomReading() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(90) + 10
}

type windowRequest struct {
	Window string `json:"window" binding:"required"`
}

// Router builds the device's HTTP surface. Responses are bare text, matching
// the firmware the simulator stands in for.
func Router(state *State, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/window", func(c *gin.Context) {
		c.String(http.StatusOK, state.Window())
	})

	router.POST("/window", func(c *gin.Context) {
		var req windowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "INVALID")
			return
		}
		state.SetWindow(req.Window)
		logger.Info("Window state changed", zap.String("window", req.Window))
		c.String(http.StatusOK, "OK")
	})

	router.GET("/temperature", func(c *gin.Context) {
		c.String(http.StatusOK, "%d", state.RandomReading())
	})

	router.GET("/humidity", func(c *gin.Context) {
		c.String(http.StatusOK, "%d", state.RandomReading())
	})

	return router
}
