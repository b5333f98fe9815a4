package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmorgan81/imagegen/internal/client"
	"github.com/dmorgan81/imagegen/internal/controller"
	"github.com/dmorgan81/imagegen/internal/inject"
	"github.com/dmorgan81/imagegen/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	prompt   string
	relayURL string
	out      string
	timeout  time.Duration
	noExport bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Submit a prompt to the relay and save the resulting image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.prompt = args[0]
			}
			opts.relayURL = lo.Ternary(opts.relayURL != "", opts.relayURL, root.cfg.RelayURL)
			return runGenerate(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "text prompt describing the image")
	cmd.Flags().StringVar(&opts.relayURL, "relay-url", "", "relay endpoint (default $RELAY_URL)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "directory or s3://bucket/prefix to save the image to")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "give up on the relay after this long (0 waits indefinitely)")
	cmd.Flags().BoolVar(&opts.noExport, "no-export", false, "only generate, do not save the image")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	ctx := cmd.Context()
	injector := inject.Setup(ctx, root.cfg)
	defer func() { _ = injector.Shutdown() }()

	uploader, err := newUploader(injector, opts.out)
	if err != nil {
		return err
	}

	c := controller.New(
		client.New(opts.relayURL, &http.Client{Timeout: opts.timeout}),
		controller.WithNotifier(cliNotifier{cmd}),
		controller.WithUploader(uploader),
	)

	if _, err := c.Submit(ctx, opts.prompt); err != nil {
		return reportedError{err}
	}
	if opts.noExport {
		return nil
	}

	name, err := c.Export(ctx)
	if err != nil {
		return err
	}
	cmd.Println(strings.TrimSuffix(opts.out, "/") + "/" + name)
	return nil
}

// newUploader only touches AWS when the destination is a bucket.
func newUploader(injector *do.Injector, out string) (store.Uploader, error) {
	if !strings.HasPrefix(out, "s3://") {
		return store.NewUploader(out, nil)
	}
	s3Client, err := do.Invoke[*s3.Client](injector)
	if err != nil {
		return nil, err
	}
	return store.NewUploader(out, s3Client)
}

type cliNotifier struct {
	cmd *cobra.Command
}

func (n cliNotifier) Notify(_ context.Context, note controller.Notification) {
	if note.Level == controller.LevelError {
		n.cmd.PrintErrln(note.Message)
		return
	}
	n.cmd.Println(note.Message)
}
