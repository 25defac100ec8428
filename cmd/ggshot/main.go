// Command ggshot records and verifies screenshots from the command line.
//
// Usage:
//
//	ggshot capture -golden g.png -actual new.png [-config ggshot.yaml] [-mode verify]
//	ggshot gif -o out.gif [-delay 100ms] [-repeat 0] [-quality 10] frame1.png ...
//	ggshot report -dir results [-o report.json] [-fail]
//	ggshot demo [-o demo.png] [-width 480] [-height 320] [-accent blue]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/canvas"
	"github.com/gogpu/ggshot/capture"
	"github.com/gogpu/ggshot/config"
	"github.com/gogpu/ggshot/gif"
	"github.com/gogpu/ggshot/internal/fsutil"
	"github.com/gogpu/ggshot/report"
)

// exitFailed is the exit code for verification failures, as opposed to
// usage or I/O errors.
const exitFailed = 3

func main() {
	log.SetFlags(0)
	log.SetPrefix("ggshot: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "capture":
		err = runCapture(args)
	case "gif":
		err = runGIF(args)
	case "report":
		err = runReport(args)
	case "demo":
		err = runDemo(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		log.Printf("unknown command %q", cmd)
		usage()
		os.Exit(2)
	}

	if errors.Is(err, capture.ErrVerification) {
		log.Print(err)
		os.Exit(exitFailed)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: ggshot <command> [flags]

commands:
  capture  compare or record one screenshot
  gif      encode PNG frames as an animated GIF
  report   summarize a directory of result files
  demo     render a sample screen`)
}

func verbose(fs *flag.FlagSet) *bool {
	return fs.Bool("v", false, "log debug output to stderr")
}

func setupLogging(v bool) {
	if v {
		ggshot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

func runCapture(args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	var (
		golden  = fs.String("golden", "", "golden image path")
		actual  = fs.String("actual", "", "new screenshot (PNG)")
		cfgPath = fs.String("config", "", "YAML config file")
		mode    = fs.String("mode", "", "task type: record, compare, verify, verify_and_record, compare_and_record")
		v       = verbose(fs)
	)
	_ = fs.Parse(args)
	setupLogging(*v)
	if *golden == "" || *actual == "" {
		return errors.New("capture: -golden and -actual are required")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.FromEnv(); err != nil {
		return err
	}
	extra := []capture.Option{}
	if *mode != "" {
		task, err := capture.ParseTaskType(*mode)
		if err != nil {
			return err
		}
		extra = append(extra, capture.WithTaskType(task))
	} else if cfg.TaskType() == capture.None {
		extra = append(extra, capture.WithTaskType(capture.Verify))
	}
	p, err := cfg.Pipeline(extra...)
	if err != nil {
		return err
	}

	c, err := canvas.Load(*actual)
	if err != nil {
		return err
	}
	res, err := p.Capture(c, *golden)
	if res.GoldenPath != "" {
		if encErr := printJSON(os.Stdout, res); encErr != nil {
			return encErr
		}
	}
	return err
}

func runGIF(args []string) error {
	fs := flag.NewFlagSet("gif", flag.ExitOnError)
	var (
		out     = fs.String("o", "out.gif", "output file")
		delay   = fs.Duration("delay", 100*time.Millisecond, "frame delay")
		repeat  = fs.Int("repeat", 0, "loop count, 0 forever, -1 play once")
		quality = fs.Int("quality", gif.DefaultSample, "quantizer sample factor (1 best, 30 fastest)")
		v       = verbose(fs)
	)
	_ = fs.Parse(args)
	setupLogging(*v)
	if fs.NArg() == 0 {
		return errors.New("gif: no frames given")
	}

	frames := make([]*canvas.Canvas, 0, fs.NArg())
	defer func() {
		for _, f := range frames {
			f.Release()
		}
	}()
	for _, path := range fs.Args() {
		c, err := canvas.Load(path)
		if err != nil {
			return err
		}
		frames = append(frames, c)
	}

	enc := gif.NewEncoder(gif.WithDelay(*delay), gif.WithRepeat(*repeat), gif.WithQuality(*quality))
	err := fsutil.WriteAtomic(*out, func(w io.Writer) error {
		if err := enc.Start(w); err != nil {
			return err
		}
		for _, f := range frames {
			if err := enc.AddFrame(f); err != nil {
				return err
			}
		}
		return enc.Finish()
	})
	if err != nil {
		return err
	}
	log.Printf("%d frames written to %s (%dx%d)", enc.Frames(), *out, enc.Size().X, enc.Size().Y)
	return nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var (
		dir  = fs.String("dir", "", "directory with per-capture result files")
		out  = fs.String("o", "", "write the report here instead of stdout")
		fail = fs.Bool("fail", false, "exit with status 3 when results were added or changed")
		v    = verbose(fs)
	)
	_ = fs.Parse(args)
	setupLogging(*v)
	if *dir == "" {
		return errors.New("report: -dir is required")
	}

	rep, err := report.LoadDir(*dir)
	if err != nil {
		return err
	}
	if *out != "" {
		err = rep.WriteFile(*out)
	} else {
		err = printJSON(os.Stdout, rep)
	}
	if err != nil {
		return err
	}
	s := rep.Summary
	log.Printf("total %d: recorded %d, added %d, changed %d, unchanged %d",
		s.Total, s.Recorded, s.Added, s.Changed, s.Unchanged)
	if *fail && s.Failed() {
		return fmt.Errorf("%w: %d added, %d changed", capture.ErrVerification, s.Added, s.Changed)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
