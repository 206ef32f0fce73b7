package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"

	"gitlab.com/stephen-fox/gmpatch/audioprobe"
	"gitlab.com/stephen-fox/gmpatch/config"
	"gitlab.com/stephen-fox/gmpatch/engine"
	"gitlab.com/stephen-fox/gmpatch/process"
	"gitlab.com/stephen-fox/gmpatch/textcodec"
)

const (
	appName = "gmpatch"
	usage   = appName + `
Lists, exports, and hot-swaps the audio and strings of a running
GameMaker game.

Only the console command changes the target. The other commands
are read-only.

usage:
  ` + appName + ` [options] COMMAND [ARGS]

commands:
  list-audio                    list the audio entries
  list-strings                  list the strings
  describe INDEX                describe an audio entry's payload
  export-audio INDEX PATH       save an audio entry's payload
  export-strings PATH           save every string, one per line
  gameid                        print the game id
  console                       start the interactive console

options:
`
)

func main() {
	log.SetFlags(0)

	err := mainWithError()
	if err != nil {
		log.Fatalln("fatal:", err)
	}
}

func mainWithError() error {
	flag.Usage = func() {
		os.Stderr.WriteString(usage)
		flag.PrintDefaults()
		os.Stderr.WriteString("\n")
		config.Usage(os.Stderr)
	}

	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	anchors, err := cfg.Anchors()
	if err != nil {
		return err
	}

	proc, err := cfg.Open()
	if err != nil {
		return fmt.Errorf("failed to attach to target - %w", err)
	}
	defer proc.Close()

	session := engine.NewSession(engine.Config{
		Space:         proc,
		Allocator:     proc.Allocator(),
		Anchors:       anchors,
		SkipExternal:  cfg.NoExternal,
		SkipSecondary: cfg.NoSecondary,
		OptLogger:     cfg.Logger(),
	})

	err = session.Frame()
	if err != nil {
		return err
	}

	for _, d := range session.Diags() {
		log.Printf("warning: %s", d)
	}

	args := flag.Args()[1:]

	switch cmd := flag.Arg(0); cmd {
	case "list-audio":
		return listAudio(session)
	case "list-strings":
		return listStrings(session)
	case "describe":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		return describe(session, i)
	case "export-audio":
		i, err := indexArg(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return errors.New("please specify the output path")
		}
		path, err := session.SaveAudio(i, args[1])
		if err != nil {
			return err
		}
		log.Printf("saved to %q", path)
		return nil
	case "export-strings":
		if len(args) < 1 {
			return errors.New("please specify the output path")
		}
		return session.ExportStrings(args[0])
	case "gameid":
		id, err := session.GameID()
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	case "console":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		ctx, cancelFn := process.ExitCtx(ctx, process.ExitCtxArgs{Process: proc})
		defer cancelFn()

		return runConsole(ctx, session, os.Stdin, os.Stdout)
	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}
}

func indexArg(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 0, errors.New("please specify an entry index")
	}

	i, err := strconv.Atoi(args[pos])
	if err != nil {
		return 0, fmt.Errorf("failed to parse entry index %q - %w", args[pos], err)
	}

	return i, nil
}

func listAudio(session *engine.Session) error {
	infos, err := session.ListAudio()
	if err != nil {
		return err
	}

	for _, info := range infos {
		swapped := ""
		if info.Entry.Swapped() {
			swapped = " [swapped]"
		}

		fmt.Printf("%d: %s (%s, %d bytes at %s)%s\n", info.Index, info.Entry.Label,
			info.Current, info.Entry.OriginalSize, info.Entry.Address, swapped)
	}

	return nil
}

func listStrings(session *engine.Session) error {
	texts, err := session.Texts()
	if err != nil {
		return err
	}

	for i, text := range texts {
		fmt.Printf("%d: %s\n", i, textcodec.EscapeRecord(text))
	}

	return nil
}

func describe(session *engine.Session, i int) error {
	return describeTo(os.Stdout, session, i)
}

func describeTo(w io.Writer, session *engine.Session, i int) error {
	desc, err := session.DescribeAudio(i)
	if err != nil && !errors.Is(err, audioprobe.ErrUnknownFormat) {
		return err
	}

	fmt.Fprintln(w, desc)

	return nil
}
