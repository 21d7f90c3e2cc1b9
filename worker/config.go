package worker

import (
	"os"
	"strconv"

	"github.com/hexsim/hexsim/montecarlo"
)

const (
	// EnvWorkerID tells a spawned worker process its slot in the pool.
	EnvWorkerID = "HEX_WORKER_ID"
	// EnvWorkerSeed makes worker engines deterministic when set to a
	// non-zero value. Each worker adds its ID so streams still differ.
	EnvWorkerSeed = "HEX_WORKER_SEED"
)

// WorkerConfig is what a worker process learns from its environment.
type WorkerConfig struct {
	ID   int
	Seed uint64
}

// DefaultWorkerConfig reads the worker settings from the environment.
func DefaultWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		ID:   getEnvInt(EnvWorkerID, 0),
		Seed: getEnvUint(EnvWorkerSeed, 0),
	}
}

// NewEngine builds the engine this worker evaluates with.
func (c *WorkerConfig) NewEngine() *montecarlo.Engine {
	if c.Seed == 0 {
		return montecarlo.NewEngine(montecarlo.NewRand())
	}
	return montecarlo.NewEngine(montecarlo.NewSeededRand(c.Seed + uint64(c.ID)))
}

// getEnvInt gets an integer from an environment variable or returns a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvUint gets an unsigned integer from an environment variable or returns a default
func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
