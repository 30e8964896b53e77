package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"

	"github.com/spf13/cobra"
)

var errInvalidInput = errors.New("invalid input")

func newCalcCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run a calculator, the result is stored in the history",
	}

	for _, c := range []struct {
		use      string
		calcType calculations.Type
	}{
		{use: "bmr", calcType: calculations.TypeBMR},
		{use: "tdee", calcType: calculations.TypeTDEE},
		{use: "macros", calcType: calculations.TypeMacros},
		{use: "bmi", calcType: calculations.TypeBMI},
		{use: "bodycomp", calcType: calculations.TypeBodyComposition},
	} {
		cmd.AddCommand(newCalculatorCmd(opts, c.use, c.calcType))
	}
	return cmd
}

// newCalculatorCmd exposes every field of the calculator form as a flag.
// Flags left unset keep the form defaults.
func newCalculatorCmd(opts *rootOptions, use string, calcType calculations.Type) *cobra.Command {
	fields := calculators.Fields(calcType)
	values := make(map[calculators.Field]*string, len(fields))

	cmd := &cobra.Command{
		Use:   use,
		Short: "Calculate " + calcType.Label(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form := opts.app.calculators.NewForm(calcType)
			for _, field := range fields {
				if !cmd.Flags().Changed(string(field)) {
					continue
				}
				if err := form.SetValue(field, *values[field]); err != nil {
					return err
				}
			}

			res, err := form.Submit(cmd.Context())
			var verrs calculators.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					fmt.Fprintf(cmd.ErrOrStderr(), "  --%s: %s\n", fe.Field, fe.Message)
				}
				return errInvalidInput
			}
			if errors.Is(err, calculators.ErrNoUser) {
				return errNotSignedIn
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), calculations.Summary(calculations.Calculation{Type: calcType, Result: res}))
			return nil
		},
	}

	defaults := calculators.DefaultValues(calcType)
	discriminant := calculators.Discriminant(calcType)
	for _, field := range fields {
		usage := field.Label()
		if field == discriminant {
			usage += " [" + strings.Join(calculators.DiscriminantOptions(calcType), " | ") + "]"
		}
		values[field] = cmd.Flags().String(string(field), defaults[field], usage)
	}
	return cmd
}
