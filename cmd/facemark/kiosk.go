package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/store"
	"github.com/ayusman/facemark/internal/tray"
)

var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Mark attendance from the camera with a tray menu",
	Long: `Kiosk watches the camera and marks attendance for every registered face
it recognizes. A person is marked at most once per cooldown. The tray menu
pauses recognition, shows the last check-in and locates the ledger. The live
view and API stay available over HTTP.`,
	RunE: runKiosk,
}

func init() {
	rootCmd.AddCommand(kioskCmd)

	kioskCmd.Flags().String("addr", "", "Listen address (default from config)")
	kioskCmd.Flags().String("camera", "", "Camera device index or stream URL (default from config)")
	kioskCmd.Flags().Bool("no-tray", false, "Run without the system tray")
}

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg, a, err := openApp(true, mustGetString(cmd, "camera"))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start kiosk: %w", err)
	}

	srv := newServer(cfg, a)
	go func() {
		if err := srv.ListenAndServe(addrFlag(cmd, cfg)); err != nil {
			log.Printf("Server failed: %v", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	if mustGetBool(cmd, "no-tray") {
		a.OnAttendance(func(rec store.Record) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", rec.Name, rec.Date, rec.Time)
		})
		waitForSignal()
		return nil
	}

	t := newTray(a)
	go func() {
		waitForSignal()
		t.Quit()
	}()
	t.Run()
	return nil
}

// newTray connects the tray menu to the kiosk.
func newTray(a *app.App) *tray.Tray {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnExport(func() {
		path, err := a.Export()
		if err != nil {
			log.Print(app.ExportMessage(err))
			return
		}
		log.Printf("Attendance ledger: %s", path)
	})
	t.OnQuit(a.Stop)
	a.OnAttendance(t.Marked)
	return t
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	log.Printf("Received %v, shutting down", sig)
}
