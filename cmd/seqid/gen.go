package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/roniherschmann/go-seqid/alphabet"
	"github.com/roniherschmann/go-seqid/provider"
)

type genOptions struct {
	alphabet string
	charset  string
	prefix   string
	start    int64
	count    int
}

func newGenCmd() *cobra.Command {
	var o genOptions
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Print IDs from a sequence without a server",
		Long: `Print count IDs starting at --start, one per line. The position to resume
from is written to stderr; pass it back as --start to continue the sequence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, o)
		},
	}
	cmd.Flags().StringVarP(&o.alphabet, "alphabet", "a", "", "symbols to draw IDs from, in digit order")
	cmd.Flags().StringVar(&o.charset, "charset", "alphanumeric", "predefined alphabet when --alphabet is not set")
	cmd.Flags().StringVarP(&o.prefix, "prefix", "p", "", "prefix for every ID")
	cmd.Flags().Int64VarP(&o.start, "start", "s", 0, "position of the first ID")
	cmd.Flags().IntVarP(&o.count, "count", "n", 10, "number of IDs to print")
	return cmd
}

func runGen(cmd *cobra.Command, o genOptions) error {
	if o.count < 0 {
		return errors.New("count must not be negative")
	}
	symbols := o.alphabet
	if symbols == "" {
		s, ok := alphabet.Lookup(o.charset)
		if !ok {
			return fmt.Errorf("unknown charset %q", o.charset)
		}
		symbols = s
	}

	p, err := provider.NewConfigurable(symbols,
		provider.WithStart(o.start),
		provider.WithPrefix(o.prefix),
		provider.WithLogger(log.Logger),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i := 0; i < o.count; i++ {
		fmt.Fprintln(out, p.GenerateID())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "next position: %d\n", p.Position())
	return nil
}
