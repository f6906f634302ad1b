package main

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mormegil-cz/nklink/internal/authority/models"
	"github.com/mormegil-cz/nklink/internal/authority/service"
	"github.com/mormegil-cz/nklink/internal/platform/config"
	"github.com/mormegil-cz/nklink/internal/platform/logger"
)

func newResolveCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		formatFlag   string
		callbackFlag string
		targetFlag   string
		purgeFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <autid>",
		Short: "Resolve one authority ID and print the rendered result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New(cmd.ErrOrStderr(), "text", cfg.Log.Level)

			id, err := models.ParseAuthorityID(args[0])
			if err != nil {
				return err
			}
			params, err := resolveParams(formatFlag, callbackFlag, targetFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res, err := a.service.Resolve(ctx, id, service.Options{Purge: purgeFlag})
			if err != nil {
				return err
			}
			resp, err := a.renderer.Render(res.Record, id, params, time.Now())
			if err != nil {
				return err
			}
			return writeResolved(cmd.OutOrStdout(), resp.Status, resp.Header.Get("Location"), resp.Body)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(models.FormatJSON), "Output format: json, jsonp, redirect or html")
	cmd.Flags().StringVar(&callbackFlag, "callback", "", "JSONP callback name")
	cmd.Flags().StringVar(&targetFlag, "target", "", "Target database for the redirect format")
	cmd.Flags().BoolVar(&purgeFlag, "purge", false, "Skip the cache read")
	return cmd
}

func resolveParams(format, callback, target string) (models.Params, error) {
	f, err := models.ParseFormat(format)
	if err != nil {
		return models.Params{}, err
	}
	params := models.Params{Format: f}
	switch f {
	case models.FormatJSONP:
		if params.Callback, err = models.ParseCallback(callback); err != nil {
			return models.Params{}, err
		}
	case models.FormatRedirect:
		if params.Target, err = models.ParseDatabase(target); err != nil {
			return models.Params{}, err
		}
	}
	return params, nil
}

func writeResolved(w io.Writer, status int, location string, body []byte) error {
	if location != "" {
		_, err := fmt.Fprintf(w, "%d %s\n", status, location)
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}
