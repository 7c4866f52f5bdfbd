package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"os/signal"

	"github.com/carpenike/rv-nixpi/engine"
	"github.com/carpenike/rv-nixpi/logging"
	"github.com/carpenike/rv-nixpi/mapping"
	"github.com/carpenike/rv-nixpi/rvc"
	"github.com/carpenike/rv-nixpi/tui"
)

//go:embed rvc.json
var defaultRegistry embed.FS

// logQueueCapacity is the bounded in-memory log buffer's size once the TUI
// takes over the terminal (spec.md §4.8).
const logQueueCapacity = 1000

func main() {
	interfaces := flag.String("interfaces", "can0,can1", "comma separated list of SocketCAN interfaces to monitor")
	definitionsPath := flag.String("definitions", "/etc/nixos/files/rvc.json", "path to the RV-C message definitions JSON file (pass -definitions=\"\" to use the embedded default instead)")
	mappingPath := flag.String("mapping", "/etc/nixos/files/device_mapping.yaml", "path to the device mapping YAML file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logging.NewLogger(os.Stderr)

	var registryFS fs.FS
	var registryPath string
	if *definitionsPath != "" {
		registryFS, registryPath = hostFS(*definitionsPath)
	} else {
		registryFS = defaultRegistry
		registryPath = "rvc.json"
	}

	registry, err := rvc.LoadRegistry(registryFS, registryPath, logger)
	if err != nil {
		log.Fatalf("rvcmon: %v\n", err)
	}
	logger.Infof("loaded %d message definitions", registry.Len())

	mappingFS, mappingFSPath := hostFS(*mappingPath)
	tables := mapping.LoadTables(mappingFS, mappingFSPath, logger)

	store := engine.NewStore()
	for _, entry := range tables.Lights() {
		store.PreCreateLight(entry)
	}

	sender := engine.NewCommandSender(store, tables)

	ifaceNames := splitInterfaces(*interfaces)

	var wg sync.WaitGroup
	for _, iface := range ifaceNames {
		r := &engine.Reader{Interface: iface, Registry: registry, Mapping: tables, Store: store, Logger: logger}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				logger.Errorf("reader %s exited: %v", iface, err)
			}
		}()
	}

	logQueue := logging.NewQueue(logQueueCapacity)
	logger.SetSinks(logQueue)

	model := tui.New(store, sender, tables, registry, logQueue, ifaceNames)
	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		logger.SetSinks(os.Stderr)
		log.Fatalf("rvcmon: tui exited: %v\n", err)
	}

	cancel()
	wg.Wait()
}

// hostFS adapts an absolute or relative on-disk path to an fs.FS root plus a
// path relative to it: fs.FS.Open rejects leading-slash names, but
// spec.md §6's default flag values (e.g. /etc/nixos/files/rvc.json) are
// absolute.
func hostFS(path string) (fs.FS, string) {
	if strings.HasPrefix(path, "/") {
		return os.DirFS("/"), strings.TrimPrefix(path, "/")
	}
	return os.DirFS("."), path
}

func splitInterfaces(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
