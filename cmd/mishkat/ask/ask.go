// Package askcmder provides the ask command for one-shot questions from the
// terminal.
package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noorlabs/mishkat/pkg/bootstrap"
	"github.com/noorlabs/mishkat/pkg/cliui"
	"github.com/noorlabs/mishkat/pkg/config"
	"github.com/noorlabs/mishkat/pkg/engine"
	"github.com/noorlabs/mishkat/pkg/logger"
)

type AskCommander struct {
	surah    int
	verse    int
	endVerse int
	topK     int
	debug    bool
	logger   *zap.Logger
}

const askLongDesc string = `Ask a question about the Quran and its tafsir from the terminal.

Runs retrieval and generation locally against the configured index and
prints the cited answer. Filters restrict retrieval to a surah or to a
verse range within it.

Examples:
  mishkat ask "What does the Quran say about patience?"
  mishkat ask --surah 2 "What does this surah say about fasting?"
  mishkat ask --surah 2 --verse 255 "Explain this verse"`

const askShortDesc string = "Ask a question from the terminal"

func NewAskCmd() *cobra.Command {
	cmder := &AskCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			return cmder.run(config.FromViper(v), strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVarP(&cmder.surah, "surah", "s", 0, "Restrict retrieval to this surah number")
	cmd.Flags().IntVar(&cmder.verse, "verse", 0, "Restrict retrieval to this verse (requires --surah)")
	cmd.Flags().IntVar(&cmder.endVerse, "end-verse", 0, "End of an inclusive verse range (requires --verse)")
	cmd.Flags().IntVarP(&cmder.topK, "top-k", "k", 0, "Number of passages to retrieve")

	return cmd
}

func (c *AskCommander) run(cfg *config.Config, question string) error {
	c.logger = logger.New(c.debug)
	defer c.logger.Sync()

	ctx := context.Background()

	stack, err := bootstrap.NewStack(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	var resp *engine.Response
	err = cliui.Step(os.Stdout, "Answering", func() error {
		var answerErr error
		resp, answerErr = stack.Engine.Answer(ctx, engine.Request{
			Question:       question,
			SurahFilter:    c.surah,
			VerseFilter:    c.verse,
			EndVerseFilter: c.endVerse,
			TopK:           c.topK,
		})
		return answerErr
	})
	if err != nil {
		return err
	}

	rendered, err := cliui.RenderMarkdown(resp.Answer)
	if err != nil {
		// Fall back to plain text when the terminal renderer is unavailable.
		rendered = "\n" + resp.Answer + "\n"
	}
	fmt.Print(rendered)

	if resp.Degraded {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("(degraded: the language model was unreachable)"))
	}

	if len(resp.Sources) > 0 {
		fmt.Printf("  %s\n", cliui.KeyStyle.Render("Sources"))
		for _, src := range resp.Sources {
			fmt.Printf("    %s %s\n",
				cliui.ValueStyle.Render(src.Reference),
				cliui.DimStyle.Render(fmt.Sprintf("(%s)", src.Type)),
			)
		}
		fmt.Println()
	}

	return nil
}
