package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/extract"
	"github.com/CoderCouple/context0/memory"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newRecallCmd(params *rootParams) *cobra.Command {
	var (
		limit      int
		threshold  float64
		platforms  []string
		categories []string
		inject     bool
	)

	cmd := &cobra.Command{
		Use:   "recall [query...]",
		Short: "Search memories by relevance; empty query browses recent ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			opts := memory.SearchOptions{
				Limit:     limit,
				Platforms: platforms,
				Categories: lo.Map(categories, func(c string, _ int) extract.Category {
					return extract.Category(c)
				}),
			}
			if cmd.Flags().Changed("threshold") {
				opts.Threshold = &threshold
			}

			results, err := engine.SearchMemories(cmd.Context(), strings.Join(args, " "), opts)
			if err != nil {
				return errors.Wrapf(err, "failed to search memories")
			}

			if inject {
				memories := lo.Map(results, func(r memory.ScoredMemory, _ int) *memory.Memory {
					return r.Memory
				})
				fmt.Println(engine.FormatMemoriesForInjection(memories, memory.FormatOptions{}))
				return nil
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return errors.WithStack(encoder.Encode(results))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum enhanced score")
	cmd.Flags().StringSliceVar(&platforms, "platform", nil, "filter by source tag")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "filter by category")
	cmd.Flags().BoolVar(&inject, "inject", false, "print results as an injection block instead of JSON")
	return cmd
}
