package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	subdiv "github.com/flywave/go-subdiv"
	"github.com/pkg/errors"
)

func main() {
	cagePath := flag.String("cage", "", "control mesh (.obj, .gltf or .glb)")
	cfgPath := flag.String("config", "", "JSON config; defaults when empty")
	outPath := flag.String("out", "out.glb", "output glb")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel grid workers")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	subdiv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*cagePath, *cfgPath, *outPath, *workers); err != nil {
		fmt.Fprintln(os.Stderr, "subdivgrid:", err)
		os.Exit(1)
	}
}

func loadCage(path string) (*subdiv.ObjMesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return subdiv.LoadGltfCage(path)
	}
	return subdiv.LoadOBJ(path)
}

func run(cagePath, cfgPath, outPath string, workers int) error {
	if cagePath == "" {
		return errors.New("missing -cage")
	}
	cfg := subdiv.DefaultConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = subdiv.LoadConfig(cfgPath); err != nil {
			return err
		}
	}
	cage, err := loadCage(cagePath)
	if err != nil {
		return err
	}
	mesh, err := cage.NewMesh(0, cfg)
	if err != nil {
		return err
	}
	if cfg.Displacement != nil {
		h, err := subdiv.LoadHeightmap(cfg.Displacement.Heightmap)
		if err != nil {
			return err
		}
		mesh.Displace = subdiv.HeightmapDisplacement(h, cfg.Displacement.Scale)
	}

	prims, err := mesh.Primitives()
	if err != nil {
		return err
	}
	if len(prims) == 0 {
		return errors.Errorf("%s has no faces", cagePath)
	}
	grids := make([]*subdiv.TessellatedGrid, len(prims))
	bounds := make([]subdiv.Bounds, len(prims))
	errs := make([]error, len(prims))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < max(workers, 1); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := &prims[i]
				sw, sh := p.GridSize()
				g := subdiv.NewGrid(sw, sh, true)
				if errs[i] = mesh.EvalGrid(p, 0, sw-1, 0, sh-1, sw, sh, g); errs[i] != nil {
					continue
				}
				grids[i] = &subdiv.TessellatedGrid{Prim: p.Prim, Width: sw, Height: sh, Grid: g}
				bounds[i], errs[i] = mesh.EvalGridBounds(p, 0, sw-1, 0, sh-1, sw, sh)
			}
		}()
	}
	for i := range prims {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	lo, hi := bounds[0].Lower, bounds[0].Upper
	for _, b := range bounds[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], b.Lower[k])
			hi[k] = max(hi[k], b.Upper[k])
		}
	}
	subdiv.Logger().Info("tessellated", "faces", mesh.NumFaces(), "primitives", len(prims),
		"lower", lo[:3], "upper", hi[:3])

	doc := subdiv.CreateDoc()
	if err := subdiv.BuildGltf(doc, grids); err != nil {
		return err
	}
	data, err := subdiv.GetGltfBinary(doc, 8)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}
