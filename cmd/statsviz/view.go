package main

import (
	"github.com/spf13/cobra"

	"github.com/maynagashev/statuslist-stats/internal/api"
)

func newViewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "view",
		Short:       "Интерактивный просмотр диаграмм (локальный CSV или сервер)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE:        a.runView,
	}
	addClientFlags(cmd.Flags(), a.cfg, "")
	return cmd
}

func (a *app) runView(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if a.cfg.ServerURL != "" {
		client := api.NewHTTPClient(a.cfg.ServerURL)
		client.SetAPIKey(a.cfg.APIKey)
		return runTUI(ctx, nil, client.GetAggregates)
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}
	source := reloadSource(svc, a.cfg.Input)
	groups, err := source(ctx)
	if err != nil {
		return err
	}
	return runTUI(ctx, groups, source)
}
