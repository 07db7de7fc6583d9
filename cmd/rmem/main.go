package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/labstack/gommon/color"
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"rmem/internal"
)

type replConfig struct {
	HeapCeiling int    `toml:"heap_ceiling"`
	LogLevel    string `toml:"log_level"`
	History     string `toml:"history"`
}

func loadConfig(path string) (replConfig, error) {
	cfg := replConfig{
		LogLevel: "warning",
		History:  filepath.Join(os.TempDir(), ".rmem_history"),
	}
	if path == "" {
		if _, err := os.Stat("rmem.toml"); err != nil {
			return cfg, nil
		}
		path = "rmem.toml"
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad config:", err)
		os.Exit(1)
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	rt := internal.NewRuntime(internal.Config{
		HeapCeiling: cfg.HeapCeiling,
		Logger:      log,
	})
	repl := &repl{rt: rt, out: os.Stdout}

	if flag.NArg() == 1 {
		runScript(repl, flag.Arg(0))
		return
	}
	if flag.NArg() > 1 {
		fmt.Println("Usage: rmem [-config rmem.toml] [/path/to/script.rmem]")
		return
	}

	runREPL(repl, cfg.History)
}

func runScript(repl *repl, path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	b, err := ioutil.ReadFile(absPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, line := range strings.Split(string(b), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := repl.run(line); err != nil {
			fmt.Fprintln(os.Stderr, color.Red(err.Error()))
			os.Exit(1)
		}
	}
}

func runREPL(repl *repl, histPath string) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("rmem: binding and copy-on-modify simulator. Type 'help'.")
	for {
		line, err := ln.Prompt(color.Cyan("rmem> "))
		if err != nil { // liner.ErrPromptAborted or EOF
			fmt.Println()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if line == "exit" || line == "quit" {
			return
		}
		if err := repl.run(line); err != nil {
			fmt.Println(color.Red(err.Error()))
		}
	}
}
