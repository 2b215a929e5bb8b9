package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"servoarm/arm"
	"servoarm/protocol"
)

// runConsole executes commands typed at an interactive prompt until the
// operator quits or ctx is done.
func runConsole(ctx context.Context, exec *protocol.Executor, seq *arm.Sequencer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "arm> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	printConsoleHelp(rl.Stdout())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "help", "?":
			printConsoleHelp(rl.Stdout())
			continue
		case "angles", "a":
			printAngles(rl.Stdout(), seq)
			continue
		case "quit", "exit", "q":
			return nil
		}

		cmd, err := exec.ExecuteLine(ctx, input)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(rl.Stdout(), "ok %s\n", cmd)
	}
}

func printAngles(w io.Writer, seq *arm.Sequencer) {
	for j, a := range seq.Angles() {
		fmt.Fprintf(w, "  %-11s %6.1f\n", arm.Joint(j), a)
	}
}

func printConsoleHelp(w io.Writer) {
	fmt.Fprintln(w, "\nArm commands (value in degrees):")
	fmt.Fprintln(w, "  SH <-90..90>   - Shoulder horizontal")
	fmt.Fprintln(w, "  SV <-90..90>   - Shoulder vertical")
	fmt.Fprintln(w, "  EV <-90..90>   - Elbow vertical")
	fmt.Fprintln(w, "  WV <-90..90>   - Wrist vertical")
	fmt.Fprintln(w, "  WR <-90..90>   - Wrist rotation")
	fmt.Fprintln(w, "  CS <20..90>    - Set clamp")
	fmt.Fprintln(w, "  CO / CC        - Open / close clamp")
	fmt.Fprintln(w, "Console commands:")
	fmt.Fprintln(w, "  angles         - Show the last angle of every joint")
	fmt.Fprintln(w, "  help           - Show this help message")
	fmt.Fprintln(w, "  quit/exit/q    - Exit")
	fmt.Fprintln(w)
}
