// Command promptfit fits transcript files under a token budget from the
// command line.
//
// Usage:
//
//	promptfit count --model gpt-4o transcript.txt
//	promptfit fit --budget 8000 transcript.txt
//	promptfit fit --budget 8000 --config config.yaml transcript.txt
//	promptfit version
//
// Transcripts use the text codec's wire format: role header lines like
// <|user|> followed by message content. The fit subcommand keeps the first
// message fixed and truncates the remaining history from the front until the
// transcript fits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/promptfit/codec"
	"github.com/BaSui01/promptfit/config"
	"github.com/BaSui01/promptfit/fit"
	"github.com/BaSui01/promptfit/strategy"
	"github.com/BaSui01/promptfit/tokenizer"
	"github.com/BaSui01/promptfit/types"
)

// Injected at build time via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "count":
		err = runCount(os.Args[2:])
	case "fit":
		err = runFit(os.Args[2:])
	case "version":
		fmt.Printf("promptfit %s (%s)\n", Version, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`promptfit - fit prompt transcripts under a token budget

Commands:
  count    count the tokens of a transcript
  fit      reduce a transcript until it fits a budget
  version  print version information

Run 'promptfit <command> -h' for command flags.`)
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, nil
	}
	return config.Load(path)
}

// readTranscript reads the named file, or stdin when no file is given.
func readTranscript(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func runCount(args []string) error {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	model := fs.String("model", "", "tokenizer model (default from config)")
	configPath := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *model == "" {
		*model = cfg.Tokenizer.Model
	}
	tokenizer.RegisterOpenAITokenizers()

	data, err := readTranscript(fs.Args())
	if err != nil {
		return err
	}

	c := codec.NewTextCodec(codec.CounterForModel(*model))
	fmt.Printf("%d tokens (%s)\n", c.CountTokens(data), *model)
	return nil
}

func runFit(args []string) error {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	budget := fs.Int("budget", 8000, "token budget")
	model := fs.String("model", "", "tokenizer model (default from config)")
	configPath := fs.String("config", "", "path to config file")
	verbose := fs.Bool("v", false, "log fit iterations to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *model == "" {
		*model = cfg.Tokenizer.Model
	}
	tokenizer.RegisterOpenAITokenizers()

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	data, err := readTranscript(fs.Args())
	if err != nil {
		return err
	}

	c := codec.NewTextCodec(codec.CounterForModel(*model))
	layout, err := c.Parse(data)
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}
	if len(layout) == 0 {
		return fmt.Errorf("transcript is empty")
	}

	// The first message (typically the system prompt) is kept fixed; the
	// rest is history that may be truncated from the front.
	history := make([]types.Node, 0, len(layout)-1)
	for _, msg := range layout[1:] {
		history = append(history, msg)
	}
	tree := types.NewTree(
		layout[0],
		types.NewScope(5, history...).
			WithStrategy(strategy.NewTruncate(strategy.FromStart)).
			WithID("history"),
	)

	engine := fit.NewEngine(fit.Config{
		Logger:        logger,
		MaxIterations: cfg.Engine.MaxIterations,
	})
	res, err := engine.Render(context.Background(), tree, fit.Options{
		Codec:  c,
		Budget: *budget,
	})
	if err != nil {
		return err
	}

	fitted, err := c.Render(res.Messages)
	if err != nil {
		return err
	}
	os.Stdout.Write(fitted)
	fmt.Println()
	fmt.Fprintf(os.Stderr, "fitted %d messages in %d tokens (budget %d, %d iterations)\n",
		len(res.Messages), res.TotalTokens, *budget, res.Iterations)
	return nil
}
