// meshtool is a CLI utility for inspecting meshes and their batch caches
// without a GPU.
package main

import (
	"flag"
	"fmt"
	stdmath "math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshcache/internal/config"
	"github.com/Faultbox/meshcache/internal/drawcache"
	"github.com/Faultbox/meshcache/internal/gpu"
	"github.com/Faultbox/meshcache/internal/logger"
	"github.com/Faultbox/meshcache/internal/mesh"
	"github.com/Faultbox/meshcache/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch command {
	case "info":
		cmdInfo(args)
	case "loose":
		cmdLoose(args)
	case "batches", "b":
		cmdBatches(cfg, args)
	case "bench":
		cmdBench(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - mesh batch cache utility

Usage:
  meshtool <command> [options] <mesh>

<mesh> is an OBJ file or a primitive name (cube, grid, points).

Commands:
  info <mesh>                       Show element counts and layers
  loose <mesh>                      List loose vertices and edges
  batches [-flags f] [-edit] [-uv] [-rx deg] [-ry deg] [-scale s] <mesh>
                                    Build batches and describe them
  bench [-n N] [-flags f] <mesh>    Time full rebuilds, serial vs pool

Examples:
  meshtool info model.obj
  meshtool batches -flags "surface|wire_edges" cube
  meshtool batches -edit -uv -flags all grid
  meshtool batches -edit -rx 180 -flags edit_mesh_analysis cube
  meshtool bench -n 50 model.obj`)
}

func openMesh(fs *flag.FlagSet, usage string) *mesh.Mesh {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool "+usage)
		os.Exit(1)
	}
	m, err := mesh.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return m
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	m := openMesh(fs, "info <mesh>")

	fmt.Printf("Mesh:      %s\n", m.Name)
	fmt.Printf("Verts:     %d\n", len(m.Verts))
	fmt.Printf("Edges:     %d\n", len(m.Edges))
	fmt.Printf("Loops:     %d\n", len(m.Loops))
	fmt.Printf("Polys:     %d\n", len(m.Polys))
	fmt.Printf("Tris:      %d\n", m.TriCount())
	fmt.Printf("Materials: %d\n", m.MatLen())
	lo, hi := m.Bounds()
	fmt.Printf("Bounds:    (%.3g, %.3g, %.3g) - (%.3g, %.3g, %.3g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)

	var layers []string
	for _, l := range m.UVs {
		layers = append(layers, "uv:"+l.Name)
	}
	for _, l := range m.Colors {
		layers = append(layers, "color:"+l.Name)
	}
	for _, l := range m.SculptColors {
		layers = append(layers, "sculpt_color:"+l.Name)
	}
	for _, g := range m.Groups {
		layers = append(layers, "group:"+g.Name)
	}
	if len(layers) == 0 {
		layers = append(layers, "(none)")
	}
	fmt.Printf("Layers:    %s\n", strings.Join(layers, ", "))
}

func cmdLoose(args []string) {
	fs := flag.NewFlagSet("loose", flag.ExitOnError)
	fs.Parse(args)
	m := openMesh(fs, "loose <mesh>")

	var memo drawcache.ExtractionMemo
	verts, edges, _ := memo.Loose(m)
	fmt.Printf("Loose verts: %d\n", len(verts))
	for _, v := range verts {
		co := m.Verts[v].Co
		fmt.Printf("  v%-6d (%.3g, %.3g, %.3g)\n", v, co[0], co[1], co[2])
	}
	fmt.Printf("Loose edges: %d\n", len(edges))
	for _, e := range edges {
		fmt.Printf("  e%-6d v%d - v%d\n", e, m.Edges[e].V[0], m.Edges[e].V[1])
	}
}

// cacheArgs are the flags shared by batches and bench.
type cacheArgs struct {
	flags  *string
	edit   *bool
	uv     *bool
	rx, ry *float64
	scale  *float64
}

func cacheFlags(fs *flag.FlagSet) cacheArgs {
	return cacheArgs{
		flags: fs.String("flags", "surface|loose_edges|wire_edges", "Batches to request, \"|\" separated or \"all\""),
		edit:  fs.Bool("edit", false, "Enable edit mode"),
		uv:    fs.Bool("uv", false, "Enable the UV editor (implies -edit)"),
		rx:    fs.Float64("rx", 0, "Object rotation around X in degrees, for mesh analysis"),
		ry:    fs.Float64("ry", 0, "Object rotation around Y in degrees, for mesh analysis"),
		scale: fs.Float64("scale", 1, "Uniform object scale, for mesh analysis"),
	}
}

func (a cacheArgs) options(m *mesh.Mesh) drawcache.Options {
	opts := drawcache.Options{EditMode: *a.edit || *a.uv, UVEdit: *a.uv}
	if *a.rx != 0 || *a.ry != 0 || *a.scale != 1 {
		s := float32(*a.scale)
		opts.Transform = math.Scale(s, s, s).
			Mul(math.RotateY(float32(*a.ry * stdmath.Pi / 180))).
			Mul(math.RotateX(float32(*a.rx * stdmath.Pi / 180)))
	}
	if opts.EditMode {
		m.Edit = &mesh.EditMesh{}
	}
	if len(m.UVs) > 0 {
		opts.Attributes.UV = []string{""}
	}
	return opts
}

func parseFlags(s string) drawcache.BatchFlag {
	f, err := drawcache.ParseBatchFlags(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return f
}

func cmdBatches(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("batches", flag.ExitOnError)
	ca := cacheFlags(fs)
	fs.Parse(args)
	m := openMesh(fs, "batches [-flags f] [-edit] [-uv] <mesh>")

	flags := parseFlags(*ca.flags)
	opts := ca.options(m)

	sched := drawcache.NewScheduler(cfg.Cache)
	defer sched.Close()
	dev := gpu.NewMemDevice()
	cache := drawcache.New(drawcache.Config{Device: dev, Scheduler: sched, DebugChecks: true})
	defer cache.Free()

	cache.EnsureBatches(m, flags, opts)
	st := cache.LastStats()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tPRIM\tLEN\tBUFFERS")
	flags.Each(func(f drawcache.BatchFlag) {
		b := cache.Batch(f)
		switch {
		case st.Skipped&f != 0:
			fmt.Fprintf(w, "%s\t-\t-\tskipped\n", f)
		case b == nil:
			fmt.Fprintf(w, "%s\t-\t0\tempty\n", f)
		default:
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f, b.Prim, b.Len(), describeBuffers(b))
		}
	})
	w.Flush()

	fmt.Println()
	fmt.Printf("Built:     %d vbos, %d ibos, %d batches in %v\n", st.VBOs, st.IBOs, st.Batches, st.Duration)
	fmt.Printf("Live:      %d buffers\n", dev.Live())
	fmt.Printf("Materials: %d\n", cache.MatLen())
	if manifold, ok := cache.Manifold(); ok {
		fmt.Printf("Manifold:  %t\n", manifold)
	}
	if area, uvArea, ok := cache.Areas(); ok {
		fmt.Printf("Area:      %.4g (uv %.4g)\n", area, uvArea)
	}
	if mask := cache.UsedMask(); !mask.IsZero() {
		fmt.Printf("Attrs:     %s\n", mask)
	}
}

func describeBuffers(b *gpu.Batch) string {
	var parts []string
	for _, v := range b.Verts {
		if v == nil {
			continue
		}
		var names []string
		for _, a := range v.Format().Attrs() {
			names = append(names, a.Name)
		}
		parts = append(parts, strings.Join(names, "+"))
	}
	if b.Index != nil {
		idx := fmt.Sprintf("idx[%d]", b.Index.Len())
		if b.Index.IsView() {
			idx = fmt.Sprintf("idx[%d@%d]", b.Index.Len(), b.Index.Start())
		}
		parts = append(parts, idx)
	}
	return strings.Join(parts, " ")
}

func cmdBench(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	ca := cacheFlags(fs)
	n := fs.Int("n", 20, "Number of full rebuilds per scheduler")
	fs.Parse(args)
	m := openMesh(fs, "bench [-n N] [-flags f] <mesh>")

	flags := parseFlags(*ca.flags)
	opts := ca.options(m)
	log := logger.Named("bench")

	pool := cfg.Cache
	pool.Serial = false
	schedulers := []struct {
		name  string
		sched drawcache.Scheduler
	}{
		{"serial", drawcache.SerialScheduler{}},
		{fmt.Sprintf("pool(%d)", pool.WorkerCount()), drawcache.NewScheduler(pool)},
	}

	fmt.Printf("Mesh %s: %d verts, %d polys, batches %s\n", m.Name, len(m.Verts), len(m.Polys), flags)
	for _, s := range schedulers {
		cache := drawcache.New(drawcache.Config{Scheduler: s.sched})
		var total time.Duration
		for range *n {
			cache.TagDirty(drawcache.DirtyAll)
			start := time.Now()
			cache.EnsureBatches(m, flags, opts)
			total += time.Since(start)
		}
		st := cache.LastStats()
		avg := total / time.Duration(max(*n, 1))
		log.Debug("bench done", zap.String("scheduler", s.name), zap.Duration("avg", avg), zap.Int("vbos", st.VBOs))
		fmt.Printf("  %-10s %v/pass (%d vbos, %d ibos)\n", s.name, avg, st.VBOs, st.IBOs)
		cache.Free()
		s.sched.Close()
	}
}
