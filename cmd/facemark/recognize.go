package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/facemark/internal/app"
)

var recognizeCmd = &cobra.Command{
	Use:     "recognize",
	Short:   "Recognize a face and mark attendance",
	Example: `  facemark recognize --image snapshot.jpg`,
	RunE:    runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("image", "", "Image file to recognize")
	recognizeCmd.Flags().Bool("verbose", false, "Print the match distance and timestamp")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	imagePath := mustGetString(cmd, "image")
	verbose := mustGetBool(cmd, "verbose")

	img, err := readImage(imagePath)
	if err != nil {
		return err
	}

	_, a, err := openApp(false, "")
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Recognize(cmd.Context(), img)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, app.RecognizeMessage(res, err))
	if err != nil {
		return errReported
	}

	if verbose {
		fmt.Fprintf(out, "  file:     %s\n", res.Match.File)
		fmt.Fprintf(out, "  distance: %.4f\n", res.Match.Distance)
		fmt.Fprintf(out, "  at:       %s %s\n", res.Record.Date, res.Record.Time)
	}
	return nil
}
