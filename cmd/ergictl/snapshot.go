package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/snapsync/snapsync/internal/archive"
	"github.com/snapsync/snapsync/internal/config"
	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/internal/snapshot"
	"github.com/snapsync/snapsync/pkg/models"
)

// snapshotPath returns the path a new snapshot taken at t should be
// written to within archiveSpec's snapshot directory, creating that
// directory if needed.
func snapshotPath(archiveSpec models.ArchiveSpec, t time.Time) string {
	os.MkdirAll(archiveSpec.SnapshotDirPath, 0o755)
	return filepath.Join(archiveSpec.SnapshotDirPath, snapshot.Name(t))
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "snapshot", Short: "inspect and prune an archive's snapshots"}
	cmd.AddCommand(snapshotListCmd(), snapshotDeleteCmd())
	return cmd
}

func snapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive>",
		Short: "list an archive's snapshots, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.LoadArchiveSpec(args[0])
			if err != nil {
				return err
			}
			reg := archive.Open(args[0], spec)
			names, err := reg.ListSnapshotFiles()
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

func snapshotDeleteCmd() *cobra.Command {
	var force bool
	var backN int
	cmd := &cobra.Command{
		Use:   "delete <archive> [snapshot-name]",
		Short: "delete a snapshot by name, or the nth-back one with --back",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.LoadArchiveSpec(args[0])
			if err != nil {
				return err
			}
			repoSpec, err := config.LoadRepoSpec(spec.ContentRepoName)
			if err != nil {
				return err
			}
			repo := content.New(repoSpec)
			mgr, err := repo.Open(content.Mutable)
			if err != nil {
				return err
			}
			defer mgr.Close()

			reg := archive.Open(args[0], spec)

			if len(args) == 2 {
				if err := reg.DeleteSnapshotFile(mgr, args[1], force); err != nil {
					return err
				}
				log.Info().Str("archive", args[0]).Str("snapshot", args[1]).Msg("snapshot deleted")
				return nil
			}
			if err := reg.DeleteBackN(mgr, backN, force); err != nil {
				return err
			}
			log.Info().Str("archive", args[0]).Int("back", backN).Msg("snapshot deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "allow deleting the archive's only remaining snapshot")
	cmd.Flags().IntVar(&backN, "back", 0, "delete the snapshot N positions back from newest (0 = newest)")
	return cmd
}

func extractCmd() *cobra.Command {
	var backN int
	var name string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "extract <archive> <dest-dir>",
		Short: "extract a snapshot's full tree into dest-dir",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archiveName, dest := args[0], args[1]
			archiveSpec, err := config.LoadArchiveSpec(archiveName)
			if err != nil {
				return err
			}
			repoSpec, err := config.LoadRepoSpec(archiveSpec.ContentRepoName)
			if err != nil {
				return err
			}

			reg := archive.Open(archiveName, archiveSpec)
			snapName := name
			if snapName == "" {
				snapName, err = reg.NthBack(backN)
				if err != nil {
					return err
				}
			}

			data, err := snapshot.Load(reg.Path(snapName))
			if err != nil {
				return err
			}

			repo := content.New(repoSpec)
			mgr, err := repo.Open(content.Immutable)
			if err != nil {
				return err
			}
			defer mgr.Close()

			stats, err := snapshot.ExtractDir(mgr, data.Root, dest, overwrite, stderrWarnSink{})
			if err != nil {
				return err
			}

			fmt.Printf("extracted %s: %d dirs, %d files (%d bytes), %d dir-symlinks, %d file-symlinks\n",
				snapName, stats.DirCount, stats.FileCount, stats.BytesCount,
				stats.DirSymLinkCount, stats.FileSymLinkCount)
			return nil
		},
	}
	cmd.Flags().IntVar(&backN, "back", 0, "extract the snapshot N positions back from newest (0 = newest)")
	cmd.Flags().StringVar(&name, "name", "", "extract this exact snapshot file name instead of --back")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing files in place instead of renaming them aside")
	return cmd
}
