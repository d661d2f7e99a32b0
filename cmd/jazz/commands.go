package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-jazz"
	"github.com/xirelogy/go-jazz/internal/bytecode"
	"github.com/xirelogy/go-jazz/internal/compiler"
	"github.com/xirelogy/go-jazz/internal/config"
	"github.com/xirelogy/go-jazz/internal/runtime"
	"github.com/xirelogy/go-jazz/internal/value"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("jazz.cli")

type options struct {
	configPath string
	verbose    int
	stackSize  int
	trace      bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "jazz",
		Short:         "Compile and run jazz scripts",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to jazz.toml (default: search upward from the working directory)")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity")
	flags.IntVar(&opts.stackSize, "stack-size", 0, "execution stack slots (overrides config)")
	flags.BoolVar(&opts.trace, "trace", false, "trace every instruction to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "run FILE",
			Short: "Run a script file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := opts.engine(cmd)
				if err != nil {
					return err
				}
				return e.LoadFile(args[0])
			},
		},
		&cobra.Command{
			Use:   "eval SOURCE",
			Short: "Evaluate source text and print the result",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := opts.engine(cmd)
				if err != nil {
					return err
				}
				v, err := e.Eval("<eval>", args[0])
				if err != nil {
					return err
				}
				if !v.IsUndefined() {
					fmt.Fprintln(cmd.OutOrStdout(), display(v))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "disasm FILE",
			Short: "Compile a script and print its bytecode without running it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := opts.load(); err != nil {
					return err
				}
				src, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				unit, err := compiler.CompileSource(string(src), args[0])
				if err != nil {
					return err
				}
				return bytecode.NewDisassembler(cmd.OutOrStdout()).DisassembleUnit("", unit)
			},
		},
		&cobra.Command{
			Use:   "builtins",
			Short: "List the built-in global functions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, spec := range runtime.All() {
					arity := "variadic"
					if spec.Arity >= 0 {
						arity = fmt.Sprintf("%d", spec.Arity)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", spec.Name, arity, spec.Doc)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "jazz %s\n", version)
			},
		},
	)
	return root
}

// load reads the configuration and configures logging from it and the
// command-line flags.
func (o *options) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			cfg, err = config.FindAndLoad(wd)
		}
	}
	if err != nil {
		return nil, err
	}
	if o.stackSize > 0 {
		cfg.Runtime.StackSize = o.stackSize
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	verbosity := cfg.Log.Verbosity + o.verbose
	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(verbosity, logFile)
	if cfg.Path != "" {
		log.Infof("configuration loaded from %s", cfg.Path)
	}
	return cfg, nil
}

func (o *options) engine(cmd *cobra.Command) (*jazz.Engine, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	e := jazz.NewEngineWithOptions(jazz.Options{
		StackSize:        cfg.Runtime.StackSize,
		InstructionLimit: cfg.Runtime.InstructionLimit,
		GCSpeed:          cfg.GC.Speed,
		GCPause:          cfg.GC.Pause,
		GCMinThreshold:   cfg.GC.MinThreshold,
		Output:           cmd.OutOrStdout(),
	})
	if o.trace {
		w := cmd.ErrOrStderr()
		e.SetTraceHook(func(info jazz.TraceInfo) {
			fmt.Fprintf(w, "%s%s:%d %s ip=%d %s\n",
				strings.Repeat("  ", max(info.Depth-1, 0)), info.Source, info.Line, info.Function, info.IP, info.Name)
		})
	}
	return e, nil
}

// display renders a result the way print would for primitives, and as
// JSON for objects.
func display(v jazz.VmValue) string {
	switch v.Kind() {
	case jazz.ValueNull:
		return "null"
	case jazz.ValueBool:
		b, _ := v.Bool()
		return fmt.Sprintf("%t", b)
	case jazz.ValueNumber:
		n, _ := v.Number()
		return value.FormatNumber(n)
	case jazz.ValueString:
		s, _ := v.String()
		return s
	case jazz.ValueFunction:
		h, _ := v.AsFunction()
		defer h.Release()
		if name := h.Name(); name != "" {
			return fmt.Sprintf("[function %s]", name)
		}
		return "[function]"
	}
	raw, err := v.Raw()
	if err != nil {
		return "[object]"
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return "[object]"
	}
	return string(data)
}
