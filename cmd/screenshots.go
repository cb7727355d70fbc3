package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/swbridge/internal/screenshots"
	"github.com/Norgate-AV/swbridge/internal/timeouts"
)

var screenshotsCmd = &cobra.Command{
	Use:   "screenshots",
	Short: "Drive the screenshot library",
}

var screenshotsStatusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show whether screenshots are hooked",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNative: "true"},
	RunE:        guarded(runScreenshotsStatus),
}

var screenshotsAddCmd = &cobra.Command{
	Use:         "add <file>...",
	Short:       "Add image files to the screenshot library",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationNative: "true"},
	RunE:        guarded(runScreenshotsAdd),
}

var screenshotsTriggerCmd = &cobra.Command{
	Use:         "trigger",
	Short:       "Trigger a screenshot and wait until it is ready",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNative: "true"},
	RunE:        guarded(runScreenshotsTrigger),
}

func init() {
	screenshotsAddCmd.Flags().StringP("thumbnail", "t", "", "thumbnail image (single file only)")
	screenshotsAddCmd.Flags().Int32("width", 0, "declared image width")
	screenshotsAddCmd.Flags().Int32("height", 0, "declared image height")

	screenshotsTriggerCmd.Flags().Bool("hook", false, "take over capture and supply --file when requested")
	screenshotsTriggerCmd.Flags().String("file", "", "image to submit when a screenshot is requested")
	screenshotsTriggerCmd.Flags().Int32("width", 0, "declared image width")
	screenshotsTriggerCmd.Flags().Int32("height", 0, "declared image height")
	screenshotsTriggerCmd.Flags().Duration("timeout", timeouts.ScreenshotReadyTimeout, "how long to wait for the screenshot")

	screenshotsCmd.AddCommand(screenshotsStatusCmd, screenshotsAddCmd, screenshotsTriggerCmd)
	RootCmd.AddCommand(screenshotsCmd)
}

func runScreenshotsStatus(cmd *cobra.Command, ex *ExecutionContext, _ []string) error {
	hooked := ex.api.IsScreenshotsHooked()

	if ex.cfg.JSON {
		return printJSON(cmd.OutOrStdout(), struct {
			Hooked bool `json:"hooked"`
		}{hooked})
	}

	state := screenshots.StateUnhooked
	if hooked {
		state = screenshots.StateHooked
	}

	fmt.Fprintln(cmd.OutOrStdout(), state)
	return nil
}

type addResult struct {
	File   string `json:"file"`
	Handle uint32 `json:"handle"`
	Error  string `json:"error,omitempty"`
}

func runScreenshotsAdd(cmd *cobra.Command, ex *ExecutionContext, args []string) error {
	width, _ := cmd.Flags().GetInt32("width")
	height, _ := cmd.Flags().GetInt32("height")
	thumbFlag, _ := cmd.Flags().GetString("thumbnail")

	var thumbnail *string
	if thumbFlag != "" {
		if len(args) > 1 {
			return errors.New("--thumbnail can only be used with a single file")
		}
		abs, err := filepath.Abs(thumbFlag)
		if err != nil {
			return fmt.Errorf("error resolving thumbnail path: %w", err)
		}
		thumbnail = &abs
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.LibraryAddTimeout)
	defer cancel()

	results := make([]addResult, len(args))
	var g errgroup.Group

	for i, file := range args {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("error resolving file path: %w", err)
		}

		pending := ex.api.AddScreenshotToLibraryAsync(ctx, abs, thumbnail, width, height)
		ex.log.Debug("Submitted screenshot", slog.String("job", pending.ID().String()), slog.String("file", abs))

		g.Go(func() error {
			h, err := pending.Wait(ctx)
			results[i] = addResult{File: file, Handle: uint32(h)}
			if err != nil {
				results[i].Error = err.Error()
				return fmt.Errorf("%s: %w", file, err)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	if ex.cfg.JSON {
		if err := printJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
		return waitErr
	}

	for _, r := range results {
		if r.Error != "" {
			ex.log.Error("Failed to add screenshot", slog.String("file", r.File), slog.String("error", r.Error))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", r.File, r.Handle)
	}

	return waitErr
}

type readyEvent struct {
	handle uint32
	err    error
}

func runScreenshotsTrigger(cmd *cobra.Command, ex *ExecutionContext, _ []string) error {
	hook, _ := cmd.Flags().GetBool("hook")
	file, _ := cmd.Flags().GetString("file")
	width, _ := cmd.Flags().GetInt32("width")
	height, _ := cmd.Flags().GetInt32("height")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if hook && file == "" {
		return errors.New("--file is required with --hook")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	ready := make(chan readyEvent, 1)
	cancelReady := ex.api.OnScreenshotReady(func(h uint32, err error) {
		select {
		case ready <- readyEvent{h, err}:
		default:
		}
	})
	defer cancelReady()

	if hook {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("error resolving file path: %w", err)
		}

		ex.api.HookScreenshots(true)
		defer ex.api.HookScreenshots(false)

		cancelRequested := ex.api.OnScreenshotRequested(func() {
			ex.log.Info("Screenshot requested, submitting image", slog.String("file", abs))
			ex.api.AddScreenshotToLibraryAsync(ctx, abs, nil, width, height)
		})
		defer cancelRequested()
	}

	ex.log.Debug("Triggering screenshot", slog.Bool("hooked", hook))
	ex.api.TriggerScreenshot()

	stopPump := ex.handle.StartCallbackPump(ex.settings.Callbacks.Interval)
	defer stopPump()

	select {
	case ev := <-ready:
		if ev.err != nil {
			return fmt.Errorf("screenshot failed: %w", ev.err)
		}

		ex.log.Info("Screenshot ready", slog.Uint64("handle", uint64(ev.handle)))
		if ex.cfg.JSON {
			return printJSON(cmd.OutOrStdout(), struct {
				Handle uint32 `json:"handle"`
				Hooked bool   `json:"hooked"`
			}{ev.handle, hook})
		}

		fmt.Fprintln(cmd.OutOrStdout(), ev.handle)
		return nil

	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for screenshot: %w", ctx.Err())
	}
}
