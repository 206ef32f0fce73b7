package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gitlab.com/stephen-fox/gmpatch/engine"
	"gitlab.com/stephen-fox/gmpatch/resource"
	"gitlab.com/stephen-fox/gmpatch/textcodec"
)

const consoleHelp = `commands:
  audio                     list the audio entries
  strings                   list the strings
  describe INDEX            describe an audio entry
  save INDEX PATH           save an audio entry
  saveplay INDEX PATH       save an audio entry and open it
  play INDEX                save an audio entry to a temporary file and open it
  load INDEX PATH           swap an audio entry for a file's contents
  restore-audio INDEX       restore an audio entry
  show INDEX                print a string
  set INDEX TEXT            swap a string for TEXT (\n and \r are unescaped)
  append INDEX TEXT         append TEXT to a string
  restore INDEX             restore a string
  restore-strings           restore every string
  restore-all               restore every audio entry and string
  export PATH               save every string, one per line
  import PATH               apply a file of strings
  search QUERY              select the next string containing QUERY
  gameid [ID]               print or set the game id
  diags                     print the resolution diagnostics
  help                      print this information
  quit                      exit the console
`

var indexCommands = map[string]bool{
	"describe":      true,
	"save":          true,
	"saveplay":      true,
	"play":          true,
	"load":          true,
	"restore-audio": true,
	"show":          true,
	"set":           true,
	"append":        true,
	"restore":       true,
}

type console struct {
	session  *engine.Session
	out      io.Writer
	selected int
}

// runConsole reads commands from in until it is exhausted, the quit
// command is given, or ctx is done. Each command is one frame of the
// session.
func runConsole(ctx context.Context, session *engine.Session, in io.Reader, out io.Writer) error {
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c := &console{session: session, out: out}

	fmt.Fprint(out, "type 'help' for a list of commands\n> ")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			err := session.Frame()
			if err != nil {
				return err
			}

			quit, err := c.exec(line)
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
			}

			if quit {
				return nil
			}

			fmt.Fprint(out, "> ")
		}
	}
}

func (o *console) exec(line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(o.out, consoleHelp)
		return false, nil
	case "diags":
		for _, d := range o.session.Diags() {
			fmt.Fprintln(o.out, d)
		}
		return false, nil
	case "audio":
		return false, o.listAudio()
	case "strings":
		return false, o.listStrings()
	case "restore-strings":
		n, err := o.session.RestoreAllStrings()
		fmt.Fprintf(o.out, "restored %d strings\n", n)
		return false, err
	case "restore-all":
		return false, o.session.RestoreAll()
	case "export":
		if rest == "" {
			return false, errors.New("please specify a path")
		}
		return false, o.session.ExportStrings(rest)
	case "import":
		if rest == "" {
			return false, errors.New("please specify a path")
		}
		report, err := o.session.ImportStrings(rest)
		fmt.Fprintf(o.out, "swapped: %d, restored: %d, unchanged: %d, ignored: %d\n",
			report.Swapped, report.Restored, report.Unchanged, report.Surplus)
		return false, err
	case "search":
		return false, o.search(rest)
	case "gameid":
		return false, o.gameID(rest)
	}

	if !indexCommands[cmd] {
		return false, fmt.Errorf("unknown command %q - type 'help' for a list of commands", cmd)
	}

	i, arg, err := parseIndex(rest)
	if err != nil {
		return false, err
	}

	switch cmd {
	case "describe":
		return false, describeTo(o.out, o.session, i)
	case "save", "saveplay":
		if arg == "" {
			return false, errors.New("please specify a path")
		}
		save := o.session.SaveAudio
		if cmd == "saveplay" {
			save = o.session.SaveAndPlayAudio
		}
		path, err := save(i, arg)
		if path != "" {
			fmt.Fprintf(o.out, "saved to %q\n", path)
		}
		return false, err
	case "play":
		_, err = o.session.PlayAudio(i)
		return false, err
	case "load":
		if arg == "" {
			return false, errors.New("please specify a path")
		}
		return false, o.session.LoadAudio(i, arg)
	case "restore-audio":
		return false, reportRestore(o.out, o.session.RestoreAudio(i))
	case "show":
		o.selected = i
		text, err := o.session.Text(i)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(o.out, text)
		return false, nil
	case "set":
		o.selected = i
		return false, o.session.SetString(i, textcodec.UnescapeRecord(arg))
	case "append":
		o.selected = i
		return false, o.session.AppendString(i, textcodec.UnescapeRecord(arg))
	case "restore":
		o.selected = i
		return false, reportRestore(o.out, o.session.RestoreString(i))
	default:
		return false, fmt.Errorf("unknown command %q - type 'help' for a list of commands", cmd)
	}
}

func parseIndex(rest string) (int, string, error) {
	indexStr, arg, _ := strings.Cut(rest, " ")
	if indexStr == "" {
		return 0, "", errors.New("please specify an entry index")
	}

	i, err := strconv.Atoi(indexStr)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse entry index %q - %w", indexStr, err)
	}

	return i, arg, nil
}

func reportRestore(out io.Writer, err error) error {
	if errors.Is(err, resource.ErrNotSwapped) {
		fmt.Fprintln(out, "the entry has not been modified")
		return nil
	}

	return err
}

func (o *console) listAudio() error {
	infos, err := o.session.ListAudio()
	if err != nil {
		return err
	}

	for _, info := range infos {
		marker := ""
		if info.Entry.Swapped() {
			marker = " *"
		}
		fmt.Fprintf(o.out, "%d: %s (%s)%s\n", info.Index, info.Entry.Label, info.Current, marker)
	}

	return nil
}

func (o *console) listStrings() error {
	texts, err := o.session.Texts()
	if err != nil {
		return err
	}

	for i, text := range texts {
		marker := ""
		if i == o.selected {
			marker = " <"
		}
		fmt.Fprintf(o.out, "%d: %s%s\n", i, textcodec.EscapeRecord(text), marker)
	}

	return nil
}

func (o *console) search(query string) error {
	result, found, err := o.session.SearchStrings(query)
	if err != nil {
		return err
	}

	if !found {
		fmt.Fprintf(o.out, "no string contains %q\n", query)
		return nil
	}

	texts, _ := o.session.Texts()
	for _, i := range result.Matches {
		marker := ""
		if i == result.Selected {
			marker = " [selected]"
		}
		fmt.Fprintf(o.out, "found %d%s: %s\n", i, marker, textcodec.EscapeRecord(texts[i]))
	}

	o.selected = result.Selected

	return nil
}

func (o *console) gameID(arg string) error {
	if arg != "" {
		id, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return fmt.Errorf("failed to parse game id %q - %w", arg, err)
		}

		return o.session.SetGameID(int32(id))
	}

	id, err := o.session.GameID()
	if err != nil {
		return err
	}

	fmt.Fprintln(o.out, id)

	return nil
}
