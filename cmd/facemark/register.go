package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/facemark/internal/app"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a face under a name",
	Long: `Register stores the image under the given name, replacing any earlier
image for that name, and rebuilds the embedding index.`,
	Example: `  facemark register --name alice --image alice.jpg`,
	RunE:    runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("name", "", "Name to register the face under")
	registerCmd.Flags().String("image", "", "Image file containing the face")
}

func runRegister(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	imagePath := mustGetString(cmd, "image")

	img, err := readImage(imagePath)
	if err != nil {
		return err
	}

	_, a, err := openApp(false, "")
	if err != nil {
		return err
	}
	defer a.Close()

	stored, err := a.Register(cmd.Context(), name, img)
	fmt.Fprintln(cmd.OutOrStdout(), app.RegisterMessage(stored, err))
	if err != nil {
		return errReported
	}
	return nil
}
