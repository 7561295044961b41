package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/olovm/cora-diskstorage/backup"
	"github.com/olovm/cora-diskstorage/backup/minio"
	"github.com/olovm/cora-diskstorage/backup/s3"
	"github.com/olovm/cora-diskstorage/cmd/diskstorage/internal/config"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Mirror the partition tree to the configured target",
	Long: `Upload every partition file to the target configured under backup.kind
(dir, minio or s3) and delete objects that no longer exist locally.

With an s3 target and backup.ledger.table set, each completed run is
recorded in that DynamoDB table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		target, err := newTarget(ctx, cfg.Backup)
		if err != nil {
			return err
		}

		s, _, err := openStorage(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.Backup(ctx, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d file(s), %d bytes; pruned %d\n", res.Uploaded, res.Bytes, res.Pruned)

		if cfg.Backup.Kind == config.BackupS3 && cfg.Backup.Ledger.Table != "" {
			ledger, err := s3.NewLedgerFromConfig(ctx, ledgerRegion(cfg.Backup), cfg.Backup.Ledger.Table, cfg.Backup.LedgerURI())
			if err != nil {
				return err
			}
			version, err := ledger.Record(ctx, res, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded run %d in %s\n", version, cfg.Backup.Ledger.Table)
		}
		return nil
	},
}

func newTarget(ctx context.Context, b config.Backup) (backup.Target, error) {
	switch b.Kind {
	case config.BackupDir:
		if b.Dir == "" {
			return nil, errors.New("backup.dir is required for kind dir")
		}
		return backup.NewDir(b.Dir), nil
	case config.BackupMinIO:
		return minio.Dial(ctx, b.MinIO)
	case config.BackupS3:
		return s3.Dial(ctx, b.S3)
	case "":
		return nil, errors.New("backup.kind is not configured")
	default:
		return nil, fmt.Errorf("unknown backup kind %q", b.Kind)
	}
}

func ledgerRegion(b config.Backup) string {
	if b.Ledger.Region != "" {
		return b.Ledger.Region
	}
	return b.S3.Region
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
