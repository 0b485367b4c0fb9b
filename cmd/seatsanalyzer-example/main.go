// Command seatsanalyzer-example runs detection and classification over a list
// of images and reports timing, the way an integrator would drive the SDK.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/native"
	"github.com/ironsheep/seats-analyzer/reference"
)

type timing struct {
	runs  int
	total time.Duration
}

func (t *timing) add(d time.Duration) {
	t.runs++
	t.total += d
}

func (t timing) report(name string) {
	if t.runs == 0 {
		return
	}
	ms := float64(t.total) / float64(time.Millisecond)
	fmt.Printf("%s speed:\n", name)
	fmt.Printf("%d evals, %.0f ms\n", t.runs, ms)
	fmt.Printf("Speed: %f ms/eval\n", ms/float64(t.runs))
	if ms > 0 {
		fmt.Printf("Speed: %f Hz\n", float64(t.runs)/ms*1000)
	}
}

func main() {
	backend := flag.String("backend", "reference", "module backend: reference, native or static")
	sdkDir := flag.String("sdk", "sdk", "SDK directory holding lib/ and config.ini")
	configPath := flag.String("config", "", "configuration file (default <sdk>/config.yaml for reference, <sdk>/config.ini otherwise)")
	libraryPath := flag.String("library", "", "shared library for the native backend (default <sdk>/lib/<name>)")
	threads := flag.Int("threads", 1, "number of worker threads")
	gpu := flag.Int("gpu", -1, "GPU device id; negative selects CPU computation")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: seatsanalyzer-example [options] image...\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *configPath == "" {
		*configPath = defaultConfigPath(*backend, *sdkDir)
	}

	cfg := &seatsanalyzer.Config{ComputationMode: seatsanalyzer.ModeCPU, NumThreads: *threads}
	if *gpu >= 0 {
		cfg.ComputationMode = seatsanalyzer.ModeGPU
		cfg.GPUDeviceID = *gpu
	}

	library := *libraryPath
	if library == "" {
		library = native.DefaultLibraryPath(*sdkDir, native.LibraryOptions{})
	}
	os.Exit(run(*backend, library, *configPath, cfg, flag.Args()))
}

// run processes images and returns the exit code. The module, session and
// images are released by deferred calls before it returns.
func run(backend, library, configPath string, cfg *seatsanalyzer.Config, images []string) int {
	var module seatsanalyzer.Module
	switch backend {
	case "reference":
		module = reference.New()
	case "static":
		// nil selects the module registered by a static build
	case "native":
		m, err := native.Open(library)
		if err != nil {
			log.Printf("Library %q not loaded: %v", library, err)
			return 1
		}
		defer m.Close()
		module = m
	default:
		log.Printf("unknown backend %q", backend)
		return 2
	}

	table, err := seatsanalyzer.Link(module)
	if err != nil {
		log.Printf("Link failed: %v", err)
		return 1
	}

	session, err := table.Initialize(configPath, cfg)
	if err != nil {
		log.Printf("Initialization failed: %v", err)
		return 1
	}
	defer session.Close()

	var det, scl timing
	for _, path := range images {
		fmt.Printf("Processing image %s...\n", path)
		if err := process(table, session, path, &det, &scl); err != nil {
			log.Printf("%s: %v", path, err)
		}
	}

	det.report("Detector")
	scl.report("Classifier")
	return 0
}

// defaultConfigPath picks the configuration file the backend understands: the
// reference module reads YAML, the SDK library reads its own config.ini.
func defaultConfigPath(backend, sdkDir string) string {
	if backend == "reference" {
		return reference.DefaultConfigPath(sdkDir)
	}
	return native.DefaultConfigPath(sdkDir)
}

func process(table *seatsanalyzer.Table, session *seatsanalyzer.Session, path string, det, scl *timing) error {
	img, err := table.ReadImage(path)
	if err != nil {
		return err
	}
	defer table.FreeImage(img)

	start := time.Now()
	res, err := session.Detect(img, nil)
	if err != nil {
		return err
	}
	defer res.Release()
	det.add(time.Since(start))

	fmt.Printf(" - found %d detections\n", res.Len())
	for i, d := range res.Detections() {
		p := d.Position
		fmt.Printf(" %d. detection: [%.1fx%.1f at (%.1f,%.1f)], label %s (%.2f)\n",
			i, p.Width, p.Height, p.X, p.Y, d.Label, d.Confidence)
		if d.Label != seatsanalyzer.LabelWindow {
			continue
		}

		start = time.Now()
		cls, err := session.Classify(img, d.Position, d.Label)
		if err != nil {
			log.Printf("%s: detection %d: %v", path, i, err)
			continue
		}
		scl.add(time.Since(start))

		for _, seat := range seatsanalyzer.Seats {
			fmt.Printf("  - %-7s %s\n", seat.String()+":", describe(cls.Seat(seat)))
		}
	}
	return nil
}

func describe(p *seatsanalyzer.Position) string {
	s := fmt.Sprintf("quality %.2f", p.Quality)
	for _, task := range seatsanalyzer.Tasks {
		r := p.Task(task)
		if !r.Implemented() {
			continue
		}
		s += fmt.Sprintf(" %s %s (%.2f)", task, r.Result, r.Confidence)
	}
	return s
}
