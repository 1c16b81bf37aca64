// Command measure replays a recorded editor event script against a
// photomask session and prints the committed geometry with its derived
// real-world metrics. It exists to exercise the library end-to-end and
// to debug event recordings from the canvas front end.
//
// The script is a JSON array of events, e.g.:
//
//	[
//	  {"op": "startCalibration"},
//	  {"op": "pointerDown", "x": 100, "y": 100},
//	  {"op": "pointerDown", "x": 300, "y": 100},
//	  {"op": "meters", "value": "2.0"},
//	  {"op": "enter"},
//	  {"op": "selectTool", "tool": "area"},
//	  {"op": "pointerDown", "x": 0, "y": 0},
//	  ...
//	  {"op": "enter"}
//	]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/quotelens/photomask"
	"github.com/quotelens/photomask/store"
)

type event struct {
	Op     string  `json:"op"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Factor float64 `json:"factor"`
	Tool   string  `json:"tool"`
	Value  string  `json:"value"`
	ID     string  `json:"id"`
}

func main() {
	var (
		photoID    = flag.String("photo", "photo-1", "photo id for the session")
		imgSize    = flag.String("img", "2000x1500", "photo size in pixels, WxH")
		container  = flag.String("container", "1000x750", "viewport size in pixels, WxH")
		configPath = flag.String("config", "", "optional TOML editor config")
		dbPath     = flag.String("db", "", "optional sqlite path for persistence")
		scriptPath = flag.String("script", "-", "event script path, - for stdin")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*photoID, *imgSize, *container, *configPath, *dbPath, *scriptPath, logger); err != nil {
		log.Fatal(err)
	}
}

func run(photoID, imgSize, container, configPath, dbPath, scriptPath string, logger *slog.Logger) error {
	imgW, imgH, err := parseSize(imgSize)
	if err != nil {
		return fmt.Errorf("-img: %w", err)
	}
	cw, ch, err := parseSize(container)
	if err != nil {
		return fmt.Errorf("-container: %w", err)
	}

	opts := []photomask.Option{}
	if configPath != "" {
		cfg, err := photomask.LoadConfig(configPath)
		if err != nil {
			return err
		}
		opts = append(opts, photomask.WithConfig(cfg))
	}

	var db *store.SQLite
	if dbPath != "" {
		db, err = store.OpenSQLite(dbPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, photomask.WithPersister(db))
	}

	editor, err := photomask.New(photoID, imgW, imgH, cw, ch, opts...)
	if err != nil {
		return err
	}

	events, err := readScript(scriptPath)
	if err != nil {
		return err
	}
	for i, ev := range events {
		if err := apply(editor, ev); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Op, err)
		}
		logger.Debug("applied", "index", i, "op", ev.Op, "calState", editor.CalState())
	}

	report(os.Stdout, editor)
	return nil
}

func apply(editor *photomask.Editor, ev event) error {
	switch ev.Op {
	case "pointerDown":
		editor.PointerDown(ev.X, ev.Y)
	case "pointerMove":
		editor.PointerMove(ev.X, ev.Y)
	case "pointerUp":
		editor.PointerUp(ev.X, ev.Y)
	case "enter":
		editor.PressEnter()
	case "escape":
		editor.PressEscape()
	case "selectTool":
		editor.SelectTool(store.Tool(ev.Tool))
	case "startCalibration":
		editor.StartCalibration()
	case "meters":
		editor.EnterReferenceLength(ev.Value)
	case "zoom":
		editor.Zoom(ev.Factor, ev.X, ev.Y)
	case "pan":
		editor.PanBy(ev.DX, ev.DY)
	case "selectMask":
		editor.SelectMask(ev.ID)
	case "selectLastMask":
		masks := editor.Masks()
		if len(masks) == 0 {
			return fmt.Errorf("no mask to select")
		}
		editor.SelectMask(masks[len(masks)-1].Common().ID)
	case "deleteMask":
		return editor.DeleteMask(ev.ID)
	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}
	return nil
}

func report(w io.Writer, editor *photomask.Editor) {
	if cal, ok := editor.Calibration(); ok {
		conf, _ := editor.Confidence()
		fmt.Fprintf(w, "calibration: %.2f ppm over %d sample(s), stdev %.2f%%, confidence %s\n",
			cal.PPM, len(cal.Samples), cal.StdevPct, conf)
	} else {
		fmt.Fprintln(w, "calibration: none")
	}

	masks := editor.Masks()
	fmt.Fprintf(w, "masks: %d\n", len(masks))
	for _, m := range masks {
		fmt.Fprintf(w, "  %s %-14s %d point(s)", m.Common().ID, m.Type(), len(m.Points()))
		if metrics, ok := editor.MaskMetrics(m.Common().ID); ok {
			if metrics.AreaM2 > 0 {
				fmt.Fprintf(w, "  area %.3f m2", metrics.AreaM2)
			}
			fmt.Fprintf(w, "  perimeter %.3f m", metrics.PerimeterM)
		}
		fmt.Fprintln(w)
	}
}

func readScript(path string) ([]event, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var events []event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	return events, nil
}

func parseSize(s string) (w, h float64, err error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	if _, err := fmt.Sscanf(parts[0]+" "+parts[1], "%f %f", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive, got %q", s)
	}
	return w, h, nil
}
