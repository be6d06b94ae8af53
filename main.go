// AMGP
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/akamensky/argparse"

	"github.com/met130/amgp-go/amgp"
)

var allLevels = []string{"surface", "850", "500", "300", "200"}

// legacyArgs maps the single-dash spellings of older releases onto flags.
var legacyArgs = map[string]string{
	"-ns":       "--no-show",
	"-allevels": "--all-levels",
	"-help":     "--help",
}

func rewriteLegacy(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if r, ok := legacyArgs[a]; ok {
			a = r
		}
		out[i] = a
	}
	return out
}

func fail(err error) {
	fmt.Printf("<error> %s\n", err)
	amgp.ShutdownLogging()
	os.Exit(1)
}

func confirm(prompt string) bool {
	fmt.Print(prompt + " [y/n] ")
	s := bufio.NewScanner(os.Stdin)
	return s.Scan() && strings.TrimSpace(s.Text()) == "y"
}

func main() {
	parser := argparse.NewParser("amgp", "Automated Map Generation Program: weather maps from observations and model data")

	quickrun := parser.Flag("", "quickrun", &argparse.Options{
		Help: "Run a preset without the interactive menu"})

	preset := parser.String("", "preset", &argparse.Options{
		Default: "default",
		Help:    "Preset to run with --quickrun"})

	levels := parser.StringList("", "level", &argparse.Options{
		Help: "Level to run, surface or hPa; repeatable or comma separated"})

	everyLevel := parser.Flag("", "all-levels", &argparse.Options{
		Help: "Run surface, 850, 500, 300 and 200 hPa"})

	date := parser.String("", "date", &argparse.Options{
		Default: "recent",
		Help:    "Date: recent, 'today, HH' or 'YYYY, MM, DD, HH'"})

	fcHour := parser.Int("", "fchour", &argparse.Options{
		Default: 0,
		Help:    "Forecast hour"})

	fcLoop := parser.Int("", "fcloop", &argparse.Options{
		Default: 0,
		Help:    "Number of further forecast hours, 6 hours apart"})

	dLoop := parser.Int("", "dloop", &argparse.Options{
		Default: 0,
		Help:    "Number of further dates, --jump hours apart; negative goes back"})

	jump := parser.Int("", "jump", &argparse.Options{
		Default: 6,
		Help:    "Hours between dates of a date loop"})

	rewind := parser.Int("", "rewind", &argparse.Options{
		Default: 0,
		Help:    "Move the data times back by this many hours"})

	doSave := parser.Flag("s", "save", &argparse.Options{
		Help: "Save the maps under the maps directory"})

	assigned := parser.Flag("a", "assignment", &argparse.Options{
		Help: "Save into Assignment_Maps instead of Test_Maps"})

	noShow := parser.Flag("n", "no-show", &argparse.Options{
		Help: "Do not open the maps after saving"})

	factors := parser.String("", "factors", &argparse.Options{
		Default: "",
		Help:    "Factors replacing those of the preset, comma separated"})

	gifName := parser.String("", "gif", &argparse.Options{
		Default: "",
		Help:    "Combine the maps into a gif with this name"})

	configPath := parser.String("", "config", &argparse.Options{
		Default: "config.json",
		Help:    "Preset file"})

	logLevel := parser.Selector("", "log", amgp.LogLevels, &argparse.Options{
		Default: "WARN",
		Help:    "Log level"})

	metricsFile := parser.String("", "metrics_file", &argparse.Options{
		Default: "",
		Help:    "Write run metrics to this file in the node exporter textfile format"})

	refresh := parser.Flag("", "refresh", &argparse.Options{
		Help: "Download data again even when cached"})

	areaInfo := parser.String("", "area-info", &argparse.Options{
		Default: "",
		Help:    "Print the extent of an area code and exit"})

	recall := parser.String("", "recall", &argparse.Options{
		Default: "",
		Help:    "Open a saved map: 'YYYY, MM, DD, HH, area, level, dpi, assigned(y/n), contour(y/n), fchour'"})

	clean := parser.String("", "clean", &argparse.Options{
		Default: "",
		Help:    "Delete the contents of a directory and exit"})

	remove := parser.String("", "delete", &argparse.Options{
		Default: "",
		Help:    "Delete a directory and its contents and exit"})

	if err := parser.Parse(rewriteLegacy(os.Args)); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	amgp.SetupLogging(*logLevel)
	defer amgp.ShutdownLogging()

	switch {
	case *clean != "":
		if !confirm(fmt.Sprintf("> Are you sure you'd like to delete all of %s's contents?", *clean)) {
			fmt.Println("<quit> Process terminated")
			return
		}
		if err := amgp.CleanDir(*clean); err != nil {
			fail(err)
		}
		return
	case *remove != "":
		if !confirm(fmt.Sprintf("> Are you sure you'd like to delete %s and all its contents?", *remove)) {
			fmt.Println("<quit> Process terminated")
			return
		}
		if err := amgp.DeleteDir(*remove); err != nil {
			fail(err)
		}
		return
	}

	fmt.Printf("<menu> You are using AMGP version %s\n", amgp.Version)
	cfg, err := amgp.LoadConfig(*configPath)
	if err != nil {
		fail(err)
	}
	warning, err := cfg.CheckVersion(amgp.Version)
	if err != nil {
		fail(err)
	}
	if warning != "" {
		fmt.Printf("<warning> %s\n", warning)
	}
	fmt.Println("<menu> Config loaded.")

	switch {
	case *areaInfo != "":
		areas, err := cfg.AreaTable()
		if err != nil {
			fail(err)
		}
		e, err := areas.Resolve(*areaInfo)
		if err != nil {
			fail(err)
		}
		fmt.Println(amgp.FormatExtent(e))
		return
	case *recall != "":
		path, err := amgp.RecallPath(cfg.MapsDir, cfg.Author, *recall)
		if err != nil {
			fail(err)
		}
		if _, err := os.Stat(path); err != nil {
			fail(err)
		}
		fmt.Printf("<run> Opening %s\n", path)
		amgp.ShowImage(path)
		return
	}

	metrics := amgp.NewMetrics()
	gen, err := amgp.NewGenerator(cfg, *refresh, metrics)
	if err != nil {
		fail(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *quickrun {
		s, err := cfg.Preset(*preset)
		if err != nil {
			fail(err)
		}
		lv := []string{"surface"}
		if *everyLevel {
			lv = allLevels
		} else if len(*levels) > 0 {
			lv = nil
			for _, l := range *levels {
				for _, part := range strings.Split(strings.Trim(l, `"`), ",") {
					if part = strings.TrimSpace(part); part != "" {
						lv = append(lv, part)
					}
				}
			}
		}
		multi := amgp.MultiSettings{
			Date:   *date,
			Delta:  *fcHour,
			Jump:   *jump,
			Levels: strings.Join(lv, ", "),
			DLoop:  *dLoop,
			FCLoop: *fcLoop,
		}
		opts := amgp.BatchOptions{
			Save:     *doSave,
			Assigned: *assigned,
			GIF:      *gifName,
			Factors:  strings.Trim(*factors, `"`),
			Show:     !*noShow,
			Rewind:   *rewind,
		}
		if err := amgp.ClearTemp(cfg.MapsDir); err != nil {
			fail(err)
		}
		_, err = gen.RunBatch(ctx, s, multi, opts, os.Stdout)
		writeMetrics(metrics, *metricsFile)
		if err != nil {
			fail(err)
		}
		return
	}

	session, err := amgp.NewSession(cfg, *configPath, gen.Areas, gen, os.Stdin, os.Stdout)
	if err != nil {
		fail(err)
	}
	err = session.Run(ctx)
	writeMetrics(metrics, *metricsFile)
	if err != nil {
		fail(err)
	}
}

func writeMetrics(m *amgp.Metrics, path string) {
	if path == "" {
		return
	}
	if err := m.WriteFile(path); err != nil {
		fmt.Printf("<warning> cannot write metrics: %s\n", err)
	}
}
