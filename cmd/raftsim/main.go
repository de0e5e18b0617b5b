// Command raftsim drives the deterministic election simulator for a fixed
// number of steps and reports whether any invariant violation was found.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/raftsim/core/pkg/engine"
	"github.com/raftsim/core/pkg/raft"
)

func main() {
	var catastrophyLevel int
	flag.IntVar(&catastrophyLevel, "c", 0, "max adversarial events injected per step")
	flag.IntVar(&catastrophyLevel, "catastrophy-level", 0, "max adversarial events injected per step")

	var msPerStep int
	flag.IntVar(&msPerStep, "s", 700, "ticks advanced per step")
	flag.IntVar(&msPerStep, "ms-per-step", 700, "ticks advanced per step")

	var maxMsPerEvent int
	flag.IntVar(&maxMsPerEvent, "e", 400, "maximum event_length for a window event")
	flag.IntVar(&maxMsPerEvent, "max-ms-per-event", 400, "maximum event_length for a window event")

	var steps int
	flag.IntVar(&steps, "steps", 1, "number of steps to execute before reporting")

	flag.Parse()

	config := engine.DefaultEngineConfig()
	config.CatastrophyLevel = catastrophyLevel
	config.MsPerStep = int64(msPerStep)
	config.MaxMsPerEvent = int64(maxMsPerEvent)

	seed := time.Now().UnixNano()
	eng := engine.NewEngine(config, raft.DefaultNodeConfig(), seed)
	gen := rand.New(rand.NewSource(seed))

	log.Printf("run %s: cluster size %d, catastrophy level %d, %d step(s)",
		eng.RunID, config.ClusterSize, config.CatastrophyLevel, steps)

	for i := 0; i < steps; i++ {
		batch := generateBatch(eng.StepBounds(), config.ClusterSize, gen)
		if err := eng.ExecuteStep(batch); err != nil {
			log.Printf("invariant violation: %v", err)
			os.Exit(1)
		}
		log.Printf("step %d complete at tick %d", i, eng.CurrentTime)
	}

	if config.CatastrophyLevel == 0 {
		if err := eng.AssertBenignProgress(); err != nil {
			log.Printf("invariant violation: %v", err)
			os.Exit(1)
		}
	}

	log.Printf("run %s: no violation found over %d step(s)", eng.RunID, steps)
	os.Exit(0)
}

// generateBatch is a minimal stand-in for the property-strategy generator the
// engine treats as an external collaborator: it draws up to bounds.MaxEvents
// window-event injections respecting the bounds the engine reports. The real
// exploration strategy (shrinkable, exhaustive) lives in
// pkg/engine/property_test.go via pgregory.net/rapid; this is just enough to
// let the CLI driver exercise a run on its own.
func generateBatch(bounds engine.StepBounds, clusterSize int, gen *rand.Rand) []engine.Injected {
	if bounds.MaxEvents <= 0 {
		return nil
	}
	n := gen.Intn(bounds.MaxEvents + 1)
	batch := make([]engine.Injected, 0, n)
	for i := 0; i < n; i++ {
		startTime := bounds.Now + int64(gen.Intn(int(bounds.MsPerStep)+1))
		length := int64(1 + gen.Intn(int(bounds.MaxMsPerEvent)))
		from := raft.NodeID(gen.Intn(clusterSize))
		batch = append(batch, engine.Injected{
			StartTime: startTime,
			Event:     engine.SendDrop{From: from, Affected: []raft.NodeID{randPeer(from, clusterSize, gen)}, Window: length},
		})
	}
	return batch
}

func randPeer(exclude raft.NodeID, clusterSize int, gen *rand.Rand) raft.NodeID {
	for {
		p := raft.NodeID(gen.Intn(clusterSize))
		if p != exclude {
			return p
		}
	}
}
