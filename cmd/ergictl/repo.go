package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/snapsync/snapsync/internal/config"
	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/internal/hasher"
	"github.com/snapsync/snapsync/pkg/models"
)

func repoCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "repo", Short: "manage content repositories"}
	cmd.AddCommand(repoNewCmd(), repoListCmd(), repoDeleteCmd(), repoPruneCmd())
	return cmd
}

func repoNewCmd() *cobra.Command {
	var hashAlgo string
	cmd := &cobra.Command{
		Use:   "new <name> <base-dir>",
		Short: "create a new content repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			algo, err := hasher.ParseAlgorithm(hashAlgo)
			if err != nil {
				return err
			}
			spec := models.RepoSpec{BaseDirectoryPath: args[1], HashAlgorithm: algo}
			if _, err := content.Create(spec); err != nil {
				return err
			}
			if err := config.SaveRepoSpec(args[0], spec); err != nil {
				return err
			}
			log.Info().Str("repo", args[0]).Str("path", args[1]).Msg("repository created")
			return nil
		},
	}
	cmd.Flags().StringVar(&hashAlgo, "hash", string(models.Sha256), "hash algorithm: Sha1, Sha256 or Sha512")
	return cmd
}

func repoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list known repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := config.ListRepoNames()
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

func repoDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "delete a repository (refuses if anything still references it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.LoadRepoSpec(args[0])
			if err != nil {
				return err
			}
			repo := content.New(spec)
			if err := repo.Delete(); err != nil {
				return err
			}
			if err := config.DeleteRepoSpec(args[0]); err != nil {
				return err
			}
			log.Info().Str("repo", args[0]).Msg("repository deleted")
			return nil
		},
	}
}

func repoPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <name>",
		Short: "remove unreferenced blob bodies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.LoadRepoSpec(args[0])
			if err != nil {
				return err
			}
			repo := content.New(spec)
			result, errs, err := repo.Prune()
			if err != nil {
				return err
			}
			for _, e := range errs {
				log.Warn().Err(e).Msg("prune: entry skipped")
			}
			fmt.Printf("removed %d bodies, reclaimed %d bytes\n", result.BodiesRemoved, result.BytesReclaimed)
			return nil
		},
	}
}
