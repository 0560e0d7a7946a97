package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRootCmd собирает дерево команд. Без подкоманды выполняется анализ.
func newRootCmd() *cobra.Command {
	cfg := newConfig()
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:   "statsviz",
		Short: "Анализ размеров токенов списков статусов",
		Long: `statsviz читает stats.csv (capacity,revoked,size,compressedSize), считает средние
size и compressedSize для каждой пары (capacity, revoked), печатает их и рисует
столбчатые диаграммы.`,
		Version:       fmt.Sprintf("%s (build %s, commit %s)", version, buildDate, commitHash),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyEnv(cmd.Flags()); err != nil {
				return err
			}
			logger, err := buildLogger(cfg, isTUICommand(cmd, cfg))
			if err != nil {
				return err
			}
			a.logger = logger.With(zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
		RunE: a.runAnalyze,
	}

	addGlobalFlags(root.PersistentFlags(), cfg)
	addAnalyzeFlags(root.Flags(), cfg)

	root.AddCommand(
		newAnalyzeCmd(a),
		newGenerateCmd(a),
		newServeCmd(a),
		newViewCmd(a),
		newPushCmd(a),
	)
	return root
}
