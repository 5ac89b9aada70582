// Command terrain-server runs the standalone world server: it listens
// for client connections, streams voxel terrain blocks by LOD, and
// simulates connected players against the terrain core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/playform/terrain/internal/obslog"
	"github.com/playform/terrain/internal/server"
)

// parseThresholds turns a comma-separated string of ascending Chebyshev
// block distances into the []int32 lod.ThresholdsToLOD expects.
func parseThresholds(s string) ([]int32, error) {
	fields := strings.Split(s, ",")
	thresholds := make([]int32, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, err
		}
		thresholds = append(thresholds, int32(v))
	}
	return thresholds, nil
}

func main() {
	defaults := server.DefaultConfig()

	address := flag.String("address", defaults.Address, "TCP address to listen on")
	seed := flag.Int64("seed", 0, "world seed (0 = random)")
	thresholdsFlag := flag.String("lod-thresholds", joinThresholds(defaults.LODThresholds),
		"ascending comma-separated Chebyshev block distances marking LOD boundaries")
	tickInterval := flag.Duration("tick-interval", defaults.TickInterval, "world-update tick period")
	sendBuffer := flag.Int("send-buffer", defaults.SendBuffer, "per-client outgoing packet queue depth")
	flag.Parse()

	log := obslog.New()
	defer log.Sync()

	thresholds, err := parseThresholds(*thresholdsFlag)
	if err != nil {
		log.Fatalw("invalid -lod-thresholds", "value", *thresholdsFlag, "error", err)
	}

	seedValue := *seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}

	config := server.Config{
		Address:       *address,
		Seed:          seedValue,
		LODThresholds: thresholds,
		TickInterval:  *tickInterval,
		SendBuffer:    *sendBuffer,
	}

	srv := server.New(config, log)
	if err := srv.Start(); err != nil {
		log.Fatalw("failed to start server", "error", err)
	}
	log.Infow("terrain server started", "address", config.Address, "seed", config.Seed)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(ctx)

	if err := srv.Wait(); err != nil {
		log.Errorw("server exited with error", "error", err)
	}
	log.Infow("terrain server stopped")
}

func joinThresholds(thresholds []int32) string {
	parts := make([]string, len(thresholds))
	for i, t := range thresholds {
		parts[i] = strconv.FormatInt(int64(t), 10)
	}
	return strings.Join(parts, ",")
}
