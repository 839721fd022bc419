package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agora-ai/agora/internal/adapters/store"
	"github.com/agora-ai/agora/internal/api"
	"github.com/agora-ai/agora/internal/clip"
	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run a full debate in the terminal",
	Long: `Run a complete debate on the given topic. Two models argue opposing
stances round by round while the moderator watches; the debate closes with
an impartial summary.

Examples:
  agora run "Should cities ban private cars from downtown?"
  agora run --copy "Is remote work better than office work?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var (
	runCopy      bool
	runMaxRounds int
	runPlain     bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runCopy, "copy", false,
		"copy the final summary to the clipboard")
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", 0,
		"override the configured round cap")
	runCmd.Flags().BoolVar(&runPlain, "plain", false,
		"plain output without the interactive view")
}

func runRun(_ *cobra.Command, args []string) error {
	topic := strings.TrimSpace(strings.Join(args, " "))
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runMaxRounds > 0 {
		cfg.Debate.MaxRounds = runMaxRounds
	}

	scheduler, _, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	debateStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.CloseStore(debateStore) }()

	service := api.NewDebateService(scheduler, debateStore, nil, logger)

	interactive := !runPlain && term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		return runPlainDebate(service, topic)
	}

	model := tui.NewModel(service, topic)
	program := tea.NewProgram(model)
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("running debate view: %w", err)
	}

	final, ok := finalModel.(tui.Model)
	if !ok || final.Summary() == "" {
		return nil
	}
	return copySummary(final.State(), final.Summary())
}

// runPlainDebate drives the debate without bubbletea, printing each turn as
// it lands. Used for pipes and --plain.
func runPlainDebate(service *api.DebateService, topic string) error {
	ctx := context.Background()

	state, err := service.Create(ctx, topic)
	if err != nil {
		return err
	}

	fmt.Printf("Debate: %s\n", state.Topic)
	fmt.Printf("FOR: %s\n", state.Stance.For)
	fmt.Printf("AGAINST: %s\n\n", state.Stance.Against)

	for {
		result, next, err := service.Advance(ctx, state.ID)
		if err != nil {
			return err
		}
		state = next

		for _, note := range result.Messages {
			printTurn(note)
		}
		if result.Turn != nil {
			printTurn(*result.Turn)
		}
		if result.Outcome == core.OutcomeClosed {
			fmt.Printf("--- Summary (%d rounds) ---\n%s\n", state.RoundCount, result.Summary)
			return copySummary(state, result.Summary)
		}
	}
}

func printTurn(turn core.Turn) {
	label := strings.ToUpper(turn.Side.String())
	if turn.Kind != core.TurnArgument {
		label += " (" + string(turn.Kind) + ")"
	}
	fmt.Printf("%s: %s\n\n", label, turn.Text)
}

// copySummary honors --copy, reporting where the text landed.
func copySummary(state *core.DebateState, summary string) error {
	if !runCopy || summary == "" {
		return nil
	}

	text := summary
	if state != nil {
		text = fmt.Sprintf("Debate: %s\n\n%s", state.Topic, summary)
	}

	result, err := clip.WriteAll(text)
	if err != nil {
		return fmt.Errorf("copying summary: %w", err)
	}
	switch result.Method {
	case clip.MethodFile:
		fmt.Fprintf(os.Stderr, "clipboard unavailable; summary written to %s\n", result.FilePath)
	default:
		fmt.Fprintln(os.Stderr, "summary copied to clipboard")
	}
	return nil
}
