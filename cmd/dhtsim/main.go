package main

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Ayishahh/IPFS-chord-ring-dht/internal/dht"
)

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func envString(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// parseNodeList parses a comma-separated list of node IDs. An empty string
// yields a nil slice, telling the caller to fall back to an evenly spread
// seed.
func parseNodeList(csv string) []int {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			log.Fatalf("invalid DHT_NODES entry %q: %v", p, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func main() {
	bits := flag.Int("bits", envInt("DHT_BITS", 4), "identifier-space width m (ring size N = 2^m)")
	order := flag.Int("order", envInt("DHT_ORDER", 3), "B-tree order t")
	nodesFlag := flag.String("nodes", envString("DHT_NODES", ""), "comma-separated initial node IDs; defaults to an evenly spread seed")
	flag.Parse()

	logger := log.New(os.Stdout, "dhtsim: ", log.LstdFlags)

	f, err := dht.New(dht.Config{
		Bits:   *bits,
		Order:  *order,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to construct ring: %v", err)
	}

	size := 1 << uint(*bits)
	seedIDs := parseNodeList(*nodesFlag)
	if seedIDs == nil {
		seedIDs = seedRing(size, 5)
	}
	for _, id := range seedIDs {
		if _, err := f.Join(id); err != nil {
			log.Fatalf("join %d: %v", id, err)
		}
	}
	logger.Printf("seeded ring with %d nodes over N=%d: %v", len(seedIDs), size, f.DumpRing())

	names := []string{"report.pdf", "notes.txt", "photo.jpg", "archive.zip", "index.html"}
	start := seedIDs[0]
	for _, name := range names {
		out, err := f.Put(start, name)
		if err != nil {
			log.Fatalf("put %q: %v", name, err)
		}
		logger.Printf("put %q -> status=%s path=%v trace=%s", name, out.Status, out.Path, out.TraceID)
	}

	for _, name := range names {
		rec, found, err := f.Get(start, name)
		if err != nil {
			log.Fatalf("get %q: %v", name, err)
		}
		logger.Printf("get %q -> found=%v key=%d", name, found, rec.Key)
	}

	status := f.DumpStatus()
	logger.Printf("ring status: nodes=%d total_keys=%d by_node=%v", status.NodeCount, status.TotalKeys, status.KeysByID)

	joinID := (seedIDs[0] + size/2) % size
	if _, ok := f.Ring().Lookup(joinID); !ok {
		if _, err := f.Join(joinID); err != nil {
			log.Fatalf("join %d: %v", joinID, err)
		}
		logger.Printf("node %d joined, ring now %v", joinID, f.DumpRing())

		status = f.DumpStatus()
		logger.Printf("ring status after join: nodes=%d total_keys=%d by_node=%v", status.NodeCount, status.TotalKeys, status.KeysByID)

		if _, err := f.Leave(joinID); err != nil {
			log.Fatalf("leave %d: %v", joinID, err)
		}
		logger.Printf("node %d left, ring now %v", joinID, f.DumpRing())
	}
}

// seedRing picks n distinct IDs spread evenly around a ring of the given
// size, so a small demo run still exercises non-trivial finger routing.
func seedRing(size, n int) []int {
	if n <= 0 {
		return nil
	}
	if n > size {
		n = size
	}
	ids := make([]int, 0, n)
	seen := make(map[int]bool, n)
	step := size / n
	if step == 0 {
		step = 1
	}
	for i := 0; len(ids) < n; i++ {
		id := (i * step) % size
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
