package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"bioplanes/internal/logger"
	"bioplanes/internal/models"
	"bioplanes/pkg/config"
	"bioplanes/pkg/dimension"
	"bioplanes/pkg/formats"
	"bioplanes/pkg/imaging"
	"bioplanes/pkg/reader"
	"bioplanes/pkg/series"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "planeinfo.yaml", "Configuration file (YAML, or TOML when ending in .toml)")
	separate := flag.Bool("separate", false, "Split composite planes into one plane per channel")
	merge := flag.Bool("merge", false, "Merge the channels of each (Z, T) position into one plane")
	swap := flag.String("swap", "", "Relabel axes: a pair such as ZT or a full order such as XYCTZ")
	listPlanes := flag.Bool("planes", true, "Print the coordinates of every plane")
	stats := flag.Bool("stats", false, "Print mean and standard deviation of every plane")
	preview := flag.String("preview", "", "Write a PNG of every plane into this directory")
	verbose := flag.Bool("verbose", false, "Log debug output")
	initConfig := flag.String("init-config", "", "Write a default configuration file to this path and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <id>\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "  id is a file, a file pattern such as 'cells_z<1-10>_c<1-3>.tif'\n")
		fmt.Fprintf(flag.CommandLine.Output(), "  or a synthetic dataset such as 'test&sizeZ=3&sizeC=2.fake'\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *initConfig)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	id := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "separate":
			cfg.Reader.SeparateChannels = *separate
		case "merge":
			cfg.Reader.MergeChannels = *merge
		case "swap":
			cfg.Reader.SwapAxes = *swap
		case "planes":
			cfg.Output.ListPlanes = *listPlanes
		case "stats":
			cfg.Output.Statistics = *stats
		case "preview":
			cfg.Output.PreviewDir = *preview
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})
	if cfg.Output.Verbose {
		cfg.Log.Level = "debug"
	}

	logs := logger.New(cfg.Log)
	defer logs.Close()

	startTime := time.Now()
	r, err := openChain(id, cfg, logs)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", id, err)
	}
	defer r.Close()

	if err := report(os.Stdout, r, cfg, logs); err != nil {
		log.Fatalf("Failed to read %s: %v", id, err)
	}
	fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(startTime).Seconds())
}

// openChain builds the reader chain the configuration asks for and opens id
// through it. The swapper sits closest to the file so that separation and
// merging see the relabelled axes.
func openChain(id string, cfg *config.Config, logs logger.ILogger) (reader.Reader, error) {
	var r reader.Reader = formats.NewImageReader(logs)

	var swapper *reader.DimensionSwapper
	if cfg.Reader.SwapAxes != "" {
		s, err := reader.NewDimensionSwapper(r, logs)
		if err != nil {
			return nil, err
		}
		swapper, r = s, s
	}
	if cfg.Reader.SeparateChannels {
		s, err := reader.NewChannelSeparator(r, logs)
		if err != nil {
			return nil, err
		}
		r = s
	}
	if cfg.Reader.MergeChannels {
		m, err := reader.NewChannelMerger(r, logs)
		if err != nil {
			return nil, err
		}
		r = m
	}

	if err := r.SetID(id); err != nil {
		return nil, err
	}
	if swapper != nil {
		if err := applySwap(swapper, cfg.Reader.SwapAxes); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// applySwap accepts either two axis symbols or a complete order
func applySwap(s *reader.DimensionSwapper, axes string) error {
	switch len(axes) {
	case 2:
		return s.Swap(axes[0], axes[1])
	case 5:
		return s.SwapDimensions(axes)
	}
	return fmt.Errorf("%w: %q is neither an axis pair nor an order", dimension.ErrUnsupportedSwap, axes)
}

// report prints the dimensions of r and, as configured, every plane's
// coordinates and statistics. Plane previews are written alongside.
func report(w io.Writer, r reader.Reader, cfg *config.Config, logs logger.ILogger) error {
	meta := reader.CoreMetadata(r)

	fmt.Fprintf(w, "Dataset: %s\n", r.CurrentFile())
	fmt.Fprintf(w, "================================\n")
	fmt.Fprintf(w, "Plane size: %d x %d\n", meta.SizeX, meta.SizeY)
	fmt.Fprintf(w, "Pixel type: %s (%s endian)\n", meta.PixelType, endian(meta.LittleEndian))
	fmt.Fprintf(w, "Image count: %s\n", humanize.Comma(int64(meta.ImageCount)))
	fmt.Fprintf(w, "SizeZ: %d  SizeC: %d  SizeT: %d\n", meta.SizeZ, meta.SizeC, meta.SizeT)
	fmt.Fprintf(w, "Effective SizeC: %d\n", r.EffectiveSizeC())
	fmt.Fprintf(w, "RGB: %v (%d samples, interleaved: %v)\n", meta.IsRGB(), meta.RGBChannelCount, meta.Interleaved)
	fmt.Fprintf(w, "Dimension order: %s (certain: %v)\n", meta.DimensionOrder, meta.OrderCertain)
	fmt.Fprintf(w, "Plane bytes: %s\n", humanize.Bytes(uint64(meta.PlaneBytes())))
	fmt.Fprintf(w, "Dataset bytes: %s\n", humanize.Bytes(uint64(meta.PlaneBytes())*uint64(meta.ImageCount)))

	if !cfg.Output.ListPlanes && !cfg.Output.Statistics && cfg.Output.PreviewDir == "" {
		return nil
	}

	planes, err := listPlanes(r, logs)
	if err != nil {
		return err
	}
	layout := imaging.Layout{
		Width:          meta.SizeX,
		Height:         meta.SizeY,
		Samples:        meta.RGBChannelCount,
		BytesPerSample: meta.PixelType.BytesPerPixel(),
		Interleaved:    meta.Interleaved,
		LittleEndian:   meta.LittleEndian,
	}

	if cfg.Output.ListPlanes || cfg.Output.Statistics {
		fmt.Fprintf(w, "\nPlanes:\n")
	}
	for _, p := range planes {
		line := fmt.Sprintf("  %4d: z=%d c=%d t=%d", p.Index, p.Z, p.C, p.T)
		if p.Filename != "" {
			line += "  " + p.Filename
		}
		if cfg.Output.Statistics || cfg.Output.PreviewDir != "" {
			plane, err := r.OpenBytes(p.Index)
			if err != nil {
				return err
			}
			if cfg.Output.Statistics {
				mean, std := imaging.Stats(plane, layout)
				line += fmt.Sprintf("  mean=%.3f std=%.3f", mean, std)
			}
			if cfg.Output.PreviewDir != "" {
				if err := writePreview(cfg.Output.PreviewDir, p.Index, plane, layout); err != nil {
					return err
				}
			}
		}
		if cfg.Output.ListPlanes || cfg.Output.Statistics {
			fmt.Fprintln(w, line)
		}
	}
	if cfg.Output.PreviewDir != "" {
		fmt.Fprintf(w, "\nPreviews written to: %s\n", cfg.Output.PreviewDir)
	}
	return nil
}

// writePreview saves plane no as plane_NNNN.png in dir
func writePreview(dir string, no int, plane []byte, layout imaging.Layout) error {
	img, err := imaging.ToImage(plane, layout)
	if err != nil {
		return fmt.Errorf("preview of plane %d: %w", no, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating preview directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("plane_%04d.png", no)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// listPlanes returns the coordinates of every plane of r, with the source
// file when r reads a file series without reshaping it. An order r does not
// declare falls back to the resolved defaults.
func listPlanes(r reader.Reader, logs logger.ILogger) ([]models.Plane, error) {
	if s, ok := reader.Unwrap(r).(*series.Reader); ok && r.ImageCount() == s.ImageCount() && r.DimensionOrder() == s.DimensionOrder() {
		return s.Planes()
	}
	order, sizes, err := reader.ResolveDimensions(r)
	if err != nil {
		logger.OrNull(logs).Infof("planeinfo: %v; listing planes as %s", err, order)
	}
	planes := make([]models.Plane, 0, r.ImageCount())
	for no := 0; no < r.ImageCount(); no++ {
		z, c, t, err := dimension.Coords(no, order, sizes)
		if err != nil {
			return nil, err
		}
		planes = append(planes, models.Plane{Index: no, Z: z, C: c, T: t})
	}
	return planes, nil
}

func endian(little bool) string {
	if little {
		return "little"
	}
	return "big"
}
