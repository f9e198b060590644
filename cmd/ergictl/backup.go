package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/snapsync/snapsync/internal/config"
	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/internal/exclude"
	"github.com/snapsync/snapsync/internal/generator"
	"github.com/snapsync/snapsync/internal/snapshot"
)

// stderrWarnSink writes attribute-restore warnings to the log; unused
// during backup (attributes are only reapplied on extract) but kept here
// so both commands share the same sink type.
type stderrWarnSink struct{}

func (stderrWarnSink) WriteLine(s string) { log.Warn().Msg(s) }

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <archive>",
		Short: "take a new snapshot of an archive's included paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archiveName := args[0]
			archiveSpec, err := config.LoadArchiveSpec(archiveName)
			if err != nil {
				return err
			}
			repoSpec, err := config.LoadRepoSpec(archiveSpec.ContentRepoName)
			if err != nil {
				return err
			}

			dirExcl, err := exclude.Compile(archiveSpec.DirExclusions)
			if err != nil {
				return err
			}
			fileExcl, err := exclude.Compile(archiveSpec.FileExclusions)
			if err != nil {
				return err
			}

			repo := content.New(repoSpec)
			mgr, err := repo.Open(content.Mutable)
			if err != nil {
				return err
			}

			gen := generator.New(mgr, dirExcl, fileExcl)
			result, genErr := gen.Generate(archiveSpec.Inclusions)
			if genErr != nil {
				if result != nil && result.Root != nil {
					if relErr := snapshot.ReleaseTree(mgr, result.Root); relErr != nil {
						log.Warn().Err(relErr).Msg("failed to release tokens after a failed generate")
					}
				}
				mgr.Close()
				return genErr
			}

			data := &snapshot.PersistentData{
				ArchiveName:   archiveName,
				Taken:         time.Now(),
				HashAlgorithm: repoSpec.HashAlgorithm,
				Root:          result.Root,
				Files:         result.Files,
				SymLinks:      result.Links,
			}

			path := snapshotPath(archiveSpec, data.Taken)
			saveErr := snapshot.Save(path, data)
			if saveErr != nil {
				if relErr := snapshot.ReleaseTree(mgr, data.Root); relErr != nil {
					log.Warn().Err(relErr).Msg("failed to release tokens after a failed snapshot write")
				}
			}

			if err := mgr.Close(); err != nil {
				return err
			}
			if saveErr != nil {
				return saveErr
			}

			fmt.Printf("snapshot %s: %d files, %d bytes, %d symlinks, took %s\n",
				path, result.Files.Count, result.Files.Bytes, result.Links.Count, result.Duration)
			return nil
		},
	}
}
