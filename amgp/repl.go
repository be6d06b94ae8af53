package amgp

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"image"
	"io"
	"strings"
)

//go:embed manual.txt
var manual string

// Mapper builds and stores maps for a session.
type Mapper interface {
	Run(ctx context.Context, s Settings, title string, ov Overrides) (*Product, error)
	SaveMap(p *Product, opts SaveOptions) (string, image.Image, error)
	RunBatch(ctx context.Context, s Settings, m MultiSettings, opts BatchOptions, out io.Writer) ([]string, error)
}

type sessionMode int

const (
	singleMode sessionMode = iota
	multiMode
)

// Session is the interactive command loop.
type Session struct {
	cfg     *Config
	cfgPath string
	areas   Areas
	mapper  Mapper

	loaded Settings
	multi  MultiSettings
	mode   sessionMode

	in  *bufio.Scanner
	out io.Writer
}

// NewSession starts a session with the default preset loaded.
func NewSession(cfg *Config, cfgPath string, areas Areas, m Mapper, in io.Reader, out io.Writer) (*Session, error) {
	loaded, err := cfg.Preset("default")
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:     cfg,
		cfgPath: cfgPath,
		areas:   areas,
		mapper:  m,
		loaded:  loaded,
		multi:   DefaultMultiSettings(),
		in:      bufio.NewScanner(in),
		out:     out,
	}, nil
}

// Loaded returns the current settings.
func (s *Session) Loaded() Settings { return s.loaded }

func (s *Session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Session) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Session) yes(prompt string) (bool, bool) {
	a, ok := s.ask(prompt + " [y/n] ")
	return a == "y", ok
}

// Run reads commands until quit or end of input.
func (s *Session) Run(ctx context.Context) error {
	s.printf("<menu> Input commands, or type 'help'.")
	for {
		line, ok := s.ask("<input> ")
		if !ok {
			return s.in.Err()
		}
		cmd := strings.Fields(line)
		if len(cmd) == 0 {
			s.printf("<error> That is not a valid command!")
			continue
		}
		var done bool
		if s.mode == singleMode {
			done = s.single(ctx, cmd)
		} else {
			done = s.batch(ctx, cmd)
		}
		if done {
			if err := ClearTemp(s.cfg.MapsDir); err != nil {
				logger().Warnf("clear temp: %s", err)
			}
			s.printf("<quit> The process was terminated.")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// common handles the commands both modes share; it reports whether cmd was
// one of them.
func (s *Session) common(cmd []string) bool {
	switch cmd[0] {
	case "help":
		fmt.Fprint(s.out, manual)
	case "time":
		s.printf("<time> It is currently %sZ", clock.Now().UTC().Format("2006-01-02 15:04:05"))
	case "preset":
		if len(cmd) < 2 {
			s.printf("<error> Name a preset, or type 'preset list'.")
			return true
		}
		if cmd[1] == "list" {
			s.printf("<presets> Below is the list of all currently loaded presets:")
			s.printf("<presets> %s", strings.Join(s.cfg.PresetNames(), ", "))
			return true
		}
		p, err := s.cfg.Preset(cmd[1])
		if err != nil {
			s.printf("<error> %s", err)
			return true
		}
		s.loaded = p
		s.paste()
	case "paste":
		s.paste()
	default:
		return false
	}
	return true
}

func (s *Session) paste() {
	if s.mode == multiMode {
		s.printf("<settings> Below are the settings from the loaded preset:")
		s.loaded.Print(s.out)
		s.printf("<settings> Below are the settings from the current multiRun settings:")
		s.multi.Print(s.out)
		return
	}
	s.loaded.Print(s.out)
}

func (s *Session) single(ctx context.Context, cmd []string) bool {
	if s.common(cmd) {
		return false
	}
	switch cmd[0] {
	case "list":
		for _, l := range []string{
			"Type 'time' to print the current time.",
			"Type 'preset {name}' to load a map preset.",
			"Type 'preset list' to list available presets.",
			"Type 'factors' to list accepted map factors.",
			"Type 'paste' to see the currently loaded values.",
			"Type 'edit {parameter} {value}' to edit a loaded parameter.",
			"Type 'edit Factors {(optional) add/remove} {value}' to edit loaded factors.",
			"Type 'save {preset name}' to save the current settings as a preset.",
			"Type 'area {code}' to print the extent of an area.",
			"Type 'run' to run with the current settings.",
			"Type 'mode' to switch to multi mode.",
			"Type 'quit' to exit without running.",
		} {
			s.printf("<list> %s", l)
		}
	case "factors":
		PrintFactors(s.out)
	case "edit":
		if len(cmd) < 2 {
			s.printf("<error> That is not a valid parameter to edit!")
			return false
		}
		if err := s.loaded.Edit(cmd[1], cmd[2:]); err != nil {
			s.printf("<error> %s", err)
			return false
		}
		s.paste()
	case "save":
		if len(cmd) < 2 {
			s.printf("<error> Name the preset to save.")
			return false
		}
		if err := s.cfg.SavePreset(s.cfgPath, cmd[1], s.loaded); err != nil {
			s.printf("<error> %s", err)
			return false
		}
		s.printf("<save> Loaded settings saved to %s as preset: %s.", s.cfgPath, cmd[1])
	case "area":
		if len(cmd) < 2 {
			s.printf("<error> Name an area code.")
			return false
		}
		code := strings.Join(cmd[1:], " ")
		e, err := s.areas.Resolve(code)
		if err != nil {
			s.printf("<error> %s", err)
			return false
		}
		s.printf("<loaded> %s: %s", code, FormatExtent(e))
	case "run":
		return s.runSingle(ctx)
	case "mode":
		s.mode = multiMode
		s.printf("<menu> Switched to multi mode.")
	case "quit":
		return true
	default:
		s.printf("<error> That is not a valid command!")
	}
	return false
}

func (s *Session) runSingle(ctx context.Context) bool {
	var opts SaveOptions
	save, ok := s.yes("<run> Would you like to save this map?")
	if !ok {
		return true
	}
	if save {
		opts.Save = true
		if opts.Assigned, ok = s.yes("<run> Is this map for an assignment?"); !ok {
			return true
		}
		show, ok := s.yes("<run> Would you like to show this map?")
		if !ok {
			return true
		}
		opts.NoShow = !show
		if opts.Title, ok = s.ask("<run> If you would like to override the default title, type the override here. Otherwise, hit enter: "); !ok {
			return true
		}
	}
	s.savePrev()
	if err := ClearTemp(s.cfg.MapsDir); err != nil {
		logger().Warnf("clear temp: %s", err)
	}
	p, err := s.mapper.Run(ctx, s.loaded, opts.Title, Overrides{})
	if err != nil {
		s.printf("<error> %s", err)
		return false
	}
	path, _, err := s.mapper.SaveMap(p, opts)
	if err != nil {
		s.printf("<error> %s", err)
		return false
	}
	if opts.Save {
		s.printf("<run> Map successfully saved!")
	}
	logger().Debugf("map at %s", path)
	return false
}

func (s *Session) savePrev() {
	if err := s.cfg.SavePreset(s.cfgPath, "prev", s.loaded); err != nil {
		s.printf("<warning> Could not save previous settings: %s", err)
		return
	}
	s.printf("<run> Previous settings saved.")
}

func (s *Session) batch(ctx context.Context, cmd []string) bool {
	if s.common(cmd) {
		if cmd[0] == "preset" && len(cmd) > 1 && cmd[1] == "list" {
			s.printf("<presets> To edit or add presets, please switch back to individual mode.")
		}
		return false
	}
	switch cmd[0] {
	case "list":
		for _, l := range []string{
			"Type 'time' to print the current time.",
			"Type 'preset {name}' to load a map preset.",
			"Type 'preset list' to list available presets.",
			"Type 'edit {parameter} {value}' to edit a given parameter.",
			"Type 'run' to run with the current settings.",
			"Type 'mode' to switch to single mode.",
			"Type 'quit' to exit without running.",
		} {
			s.printf("<list> %s", l)
		}
	case "edit":
		if len(cmd) < 2 {
			s.printf("<error> That is not a valid parameter to edit!")
			return false
		}
		if err := s.multi.Edit(cmd[1], cmd[2:]); err != nil {
			s.printf("<error> %s", err)
			return false
		}
		s.paste()
	case "run":
		return s.runBatch(ctx)
	case "mode":
		s.mode = singleMode
		s.printf("<menu> Switched to single mode.")
	case "quit":
		return true
	default:
		s.printf("<error> That is not a valid command!")
	}
	return false
}

func (s *Session) runBatch(ctx context.Context) bool {
	s.savePrev()
	opts := BatchOptions{Save: true}
	gif, ok := s.yes("<run> Would you like to save these files as a .gif?")
	if !ok {
		return true
	}
	if opts.Assigned, ok = s.yes("<run> Is this product for an assignment?"); !ok {
		return true
	}
	if gif {
		if opts.GIF, ok = s.ask("<run> What would you like to call this .gif?: "); !ok {
			return true
		}
		if opts.GIF == "" {
			opts.GIF = "loop"
		}
	}
	if _, err := s.mapper.RunBatch(ctx, s.loaded, s.multi, opts, s.out); err != nil {
		s.printf("<error> %s", err)
	}
	return false
}
