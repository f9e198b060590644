package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/snapsync/snapsync/internal/config"
	"github.com/snapsync/snapsync/pkg/models"
)

func archiveCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "archive", Short: "manage archives (named backup configurations)"}
	cmd.AddCommand(archiveNewCmd(), archiveListCmd(), archiveDeleteCmd())
	return cmd
}

func archiveNewCmd() *cobra.Command {
	var repoName, snapshotDir string
	var inclusions, dirExcl, fileExcl []string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "define a new archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := models.ArchiveSpec{
				ContentRepoName: repoName,
				SnapshotDirPath: snapshotDir,
				Inclusions:      inclusions,
				DirExclusions:   dirExcl,
				FileExclusions:  fileExcl,
			}
			if err := config.SaveArchiveSpec(args[0], spec); err != nil {
				return err
			}
			log.Info().Str("archive", args[0]).Msg("archive created")
			return nil
		},
	}
	cmd.Flags().StringVar(&repoName, "repo", "", "content repository name this archive stores into")
	cmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory snapshot files are written to")
	cmd.Flags().StringArrayVar(&inclusions, "include", nil, "path to include (repeatable)")
	cmd.Flags().StringArrayVar(&dirExcl, "dir-exclude", nil, "glob pattern excluding directories (repeatable)")
	cmd.Flags().StringArrayVar(&fileExcl, "file-exclude", nil, "glob pattern excluding files (repeatable)")
	cmd.MarkFlagRequired("repo")
	cmd.MarkFlagRequired("snapshot-dir")
	return cmd
}

func archiveListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list known archives",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := config.ListArchiveNames()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func archiveDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "delete an archive's configuration (its snapshot files are left untouched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteArchiveSpec(args[0]); err != nil {
				return err
			}
			log.Info().Str("archive", args[0]).Msg("archive deleted")
			return nil
		},
	}
}
