package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/joss/promptsmith/internal/backend"
	"github.com/joss/promptsmith/internal/domain"
	"github.com/joss/promptsmith/internal/engine"
	"github.com/joss/promptsmith/internal/render"
)

// errAborted is returned when the operator quits mid-run.
var errAborted = errors.New("run aborted")

// runPlain drives the optimization loop in line mode: print a candidate,
// read accept/reject from in, retry rejected stages with feedback. Used
// when stdout is not a terminal or --plain is set.
func runPlain(ctx context.Context, eng *engine.Engine, harm *engine.Harmonizer, back backend.Backend, session *domain.Session, rend *render.Renderer, in io.Reader, out io.Writer) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	w := render.NewWriter(out)
	rejections := 0
	draft := session.DraftPrompt()

	w.Print("%s", rend.Banner(back.ID(), back.Mode()))
	w.Rule()
	w.Line()

	for {
		step, ok := session.NextStep()
		if !ok {
			break
		}

		feedback := ""
		attempt := 1
	generate:
		for {
			result, err := eng.ProcessStep(ctx, session, step, draft, feedback)
			if err != nil {
				return rejections, err
			}

			w.Print("%s", rend.Candidate(result, attempt))

			// Read answers until one resolves the candidate. Invalid
			// input re-prompts; the candidate is generated exactly once
			// per attempt.
			for {
				w.Print("Accept? [y/n/q]: ")
				answer, err := readLine(scanner)
				if err != nil {
					return rejections, err
				}

				switch strings.ToLower(answer) {
				case "y", "yes", "":
					eng.Commit(session, result)
					break generate
				case "n", "no":
					w.Print("What should change? ")
					feedback, err = readLine(scanner)
					if err != nil {
						return rejections, err
					}
					rejections++
					attempt++
					continue generate
				case "q", "quit":
					return rejections, errAborted
				default:
					w.Println("Please answer y, n or q.")
				}
			}
		}
		w.Line()
	}

	w.Println("Harmonizing optimized prompt...")
	if err := harm.Harmonize(ctx, session); err != nil {
		return rejections, err
	}

	w.Section("Optimized Prompt")
	w.Print("%s", rend.FinalOutput(session.FinalOutput()))
	w.Line()
	w.Println("%s", rend.Usage(back.TokenUsage()))

	return rejections, nil
}

func readLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}
